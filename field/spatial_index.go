package field

import (
	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/r2"

	"rrtnav/geometry"
)

// obstacleEntry wraps an obstacle for R-tree storage
type obstacleEntry struct {
	obstacle geometry.Obstacle
	bbox     rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// SpatialIndex manages obstacle bounding-box queries
type SpatialIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewSpatialIndex creates a new spatial index
func NewSpatialIndex(obstacles []geometry.Obstacle) *SpatialIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	size := 0
	for _, o := range obstacles {
		bbox, err := toRtreeRect(o.Bounds(), geometry.Epsilon)
		if err != nil {
			continue
		}
		tree.Insert(&obstacleEntry{obstacle: o, bbox: bbox})
		size++
	}

	return &SpatialIndex{tree: tree, size: size}
}

// Len returns the number of indexed obstacles.
func (si *SpatialIndex) Len() int {
	return si.size
}

// QueryRegion returns obstacles whose bounding box intersects the given box grown by margin.
func (si *SpatialIndex) QueryRegion(region r2.Rect, margin float64) []geometry.Obstacle {
	bbox, err := toRtreeRect(region, margin)
	if err != nil {
		return []geometry.Obstacle{}
	}

	results := si.tree.SearchIntersect(bbox)
	obstacles := make([]geometry.Obstacle, 0, len(results))

	for _, item := range results {
		entry := item.(*obstacleEntry)
		obstacles = append(obstacles, entry.obstacle)
	}

	return obstacles
}

// QuerySegment returns the obstacles that could touch seg.
func (si *SpatialIndex) QuerySegment(seg geometry.LineSegment, margin float64) []geometry.Obstacle {
	return si.QueryRegion(r2.RectFromPoints(seg.P1.R2(), seg.P2.R2()), margin)
}

// toRtreeRect converts a box to an rtreego rect, padding it so degenerate boxes keep a
// positive extent on every axis.
func toRtreeRect(box r2.Rect, margin float64) (rtreego.Rect, error) {
	if margin <= 0 {
		margin = geometry.Epsilon
	}
	box = box.ExpandedByMargin(margin)
	lo := box.Lo()
	return rtreego.NewRect(
		rtreego.Point{lo.X, lo.Y},
		[]float64{box.X.Length(), box.Y.Length()},
	)
}
