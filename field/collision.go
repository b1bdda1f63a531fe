package field

import (
	"github.com/golang/geo/r2"

	"rrtnav/geometry"
)

// PointInObstacle is true if p lies on or inside any obstacle grown by the clearance, or outside
// the workspace bounds.
func (f *Field) PointInObstacle(p geometry.Point) bool {
	if !f.InBounds(p) {
		return true
	}
	margin := f.margin()
	for _, o := range f.index.QueryRegion(r2.RectFromPoints(p.R2()), margin) {
		if o.ContainsPoint(p, margin) {
			return true
		}
	}
	return false
}

// SegmentCollides is true if the closed segment a-b comes within the clearance of any obstacle or
// leaves the bounds.
func (f *Field) SegmentCollides(a, b geometry.Point) bool {
	seg := geometry.LineSegment{P1: a, P2: b}
	if seg.IsDegenerate(geometry.Epsilon) {
		return f.PointInObstacle(a)
	}
	// The workspace is convex, so both endpoints inside keeps the whole segment inside.
	if !f.InBounds(a) || !f.InBounds(b) {
		return true
	}
	margin := f.margin()
	for _, o := range f.index.QuerySegment(seg, margin) {
		if o.IntersectsSegment(seg, margin) {
			return true
		}
	}
	return false
}
