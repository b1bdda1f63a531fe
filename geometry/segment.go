package geometry

import (
	"math"

	"github.com/paulmach/orb/planar"
)

// LineSegment represents a line segment between two points
type LineSegment struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// Length returns the Euclidean length of the segment.
func (s LineSegment) Length() float64 {
	return s.P1.Distance(s.P2)
}

// IsDegenerate reports whether both endpoints coincide within eps.
func (s LineSegment) IsDegenerate(eps float64) bool {
	return s.P1.ApproxEqual(s.P2, eps)
}

// DoSegmentsIntersect checks if two closed line segments share at least one point.
// Touching endpoints and collinear overlap count as intersections.
func DoSegmentsIntersect(seg1, seg2 LineSegment) bool {
	p1, p2 := seg1.P1, seg1.P2
	p3, p4 := seg2.P1, seg2.P2

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Check for collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 Point) float64 {
	return (p3.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(p3.Y-p1.Y)
}

// onSegment checks if point q lies on segment pr
func onSegment(p, r, q Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// PointSegmentDistance returns the shortest distance from p to any point of seg.
func PointSegmentDistance(p Point, seg LineSegment) float64 {
	return planar.DistanceFromSegment(seg.P1.Orb(), seg.P2.Orb(), p.Orb())
}

// SegmentDistance returns the shortest distance between two closed segments; zero when they intersect.
func SegmentDistance(a, b LineSegment) float64 {
	if DoSegmentsIntersect(a, b) {
		return 0
	}
	return math.Min(
		math.Min(PointSegmentDistance(a.P1, b), PointSegmentDistance(a.P2, b)),
		math.Min(PointSegmentDistance(b.P1, a), PointSegmentDistance(b.P2, a)),
	)
}
