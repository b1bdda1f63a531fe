package geometry

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// Obstacle is a closed planar shape the robot may not touch. The set of variants is closed:
// Rect and Polygon are the only implementations.
type Obstacle interface {
	// ContainsPoint reports whether p lies on or inside the shape, within eps.
	ContainsPoint(p Point, eps float64) bool
	// IntersectsSegment reports whether the closed segment touches the boundary or interior.
	IntersectsSegment(seg LineSegment, eps float64) bool
	// Bounds is the axis-aligned bounding box of the shape.
	Bounds() r2.Rect
	// Validate checks the shape is well formed.
	Validate() error

	obstacle()
}

// Rect is an axis-aligned rectangular obstacle.
type Rect struct {
	box r2.Rect
}

// NewRect creates a rectangle from two opposite corners given in any order.
func NewRect(a, b Point) Rect {
	return Rect{box: r2.RectFromPoints(a.R2(), b.R2())}
}

// NewRectFromAnchor creates a rectangle from its minimum corner and size.
func NewRectFromAnchor(anchor Point, width, height float64) Rect {
	return Rect{box: r2.Rect{
		X: r1.Interval{Lo: anchor.X, Hi: anchor.X + width},
		Y: r1.Interval{Lo: anchor.Y, Hi: anchor.Y + height},
	}}
}

// Min returns the minimum corner.
func (r Rect) Min() Point { return FromR2(r.box.Lo()) }

// Max returns the maximum corner.
func (r Rect) Max() Point { return FromR2(r.box.Hi()) }

// Bounds implements Obstacle.
func (r Rect) Bounds() r2.Rect { return r.box }

// Corners returns the four corners counter-clockwise from the minimum corner.
func (r Rect) Corners() []Point {
	v := r.box.Vertices()
	return []Point{FromR2(v[0]), FromR2(v[1]), FromR2(v[2]), FromR2(v[3])}
}

// ContainsPoint implements Obstacle. Points within eps of the rectangle count as contained.
func (r Rect) ContainsPoint(p Point, eps float64) bool {
	q := p.R2()
	return q.Sub(r.box.ClampPoint(q)).Norm() <= eps
}

// IntersectsSegment implements Obstacle.
func (r Rect) IntersectsSegment(seg LineSegment, eps float64) bool {
	if r.ContainsPoint(seg.P1, eps) || r.ContainsPoint(seg.P2, eps) {
		return true
	}
	return edgesWithin(r.Corners(), seg, eps)
}

// Validate implements Obstacle.
func (r Rect) Validate() error {
	if r.box.IsEmpty() || r.box.X.Length() <= 0 || r.box.Y.Length() <= 0 {
		return errors.Errorf("rectangle %v-%v has no area", r.Min(), r.Max())
	}
	return nil
}

func (Rect) obstacle() {}

// Polygon is a simple polygonal obstacle. Vertices may be given in either winding and the
// ring may or may not repeat its first vertex at the end.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// Ring converts the polygon outline to an orb ring.
func (poly Polygon) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(poly.Vertices))
	for _, v := range poly.Vertices {
		ring = append(ring, v.Orb())
	}
	return ring
}

// Bounds implements Obstacle.
func (poly Polygon) Bounds() r2.Rect {
	pts := make([]r2.Point, 0, len(poly.Vertices))
	for _, v := range poly.Vertices {
		pts = append(pts, v.R2())
	}
	return r2.RectFromPoints(pts...)
}

// ContainsPoint implements Obstacle. Points within eps of an edge count as contained.
func (poly Polygon) ContainsPoint(p Point, eps float64) bool {
	if len(poly.Vertices) < 3 {
		return false
	}
	n := len(poly.Vertices)
	for i := 0; i < n; i++ {
		edge := LineSegment{P1: poly.Vertices[i], P2: poly.Vertices[(i+1)%n]}
		if PointSegmentDistance(p, edge) <= eps {
			return true
		}
	}
	return planar.RingContains(poly.Ring(), p.Orb())
}

// IntersectsSegment implements Obstacle.
func (poly Polygon) IntersectsSegment(seg LineSegment, eps float64) bool {
	if len(poly.Vertices) < 3 {
		return false
	}
	// A segment entirely inside has both endpoints inside; any other hit crosses an edge.
	if poly.ContainsPoint(seg.P1, eps) || poly.ContainsPoint(seg.P2, eps) {
		return true
	}
	return edgesWithin(poly.Vertices, seg, eps)
}

// Validate implements Obstacle.
func (poly Polygon) Validate() error {
	if len(poly.Vertices) < 3 {
		return errors.Errorf("polygon needs at least 3 vertices, got %d", len(poly.Vertices))
	}
	if math.Abs(poly.Area()) <= Epsilon {
		return errors.New("polygon has no area")
	}
	return nil
}

// Area returns the signed area of the polygon (positive for counter-clockwise winding).
func (poly Polygon) Area() float64 {
	if len(poly.Vertices) < 3 {
		return 0
	}
	ring := poly.Ring()
	return float64(ring.Orientation()) * math.Abs(planar.Area(ring))
}

func (Polygon) obstacle() {}

// edgesWithin checks whether seg comes within eps of any edge of the closed outline.
func edgesWithin(outline []Point, seg LineSegment, eps float64) bool {
	n := len(outline)
	for i := 0; i < n; i++ {
		edge := LineSegment{P1: outline[i], P2: outline[(i+1)%n]}
		if SegmentDistance(seg, edge) <= eps {
			return true
		}
	}
	return false
}
