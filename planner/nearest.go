package planner

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"rrtnav/geometry"
)

// nodeTolerance is the half-width of the box each tree node occupies in the R-tree.
const nodeTolerance = 1e-6

// neighborIndex finds the tree node closest to a sample.
type neighborIndex interface {
	insert(index int, p geometry.Point)
	nearest(p geometry.Point) int
}

func newNeighborIndex(tree *Tree, useRtree bool) neighborIndex {
	if !useRtree {
		return &linearIndex{tree: tree}
	}
	idx := &rtreeIndex{rtree: rtreego.NewTree(2, 25, 50)}
	for i, n := range tree.nodes {
		idx.insert(i, n.Point)
	}
	return idx
}

// linearIndex scans every node. Ties go to the lowest index.
type linearIndex struct {
	tree *Tree
}

func (li *linearIndex) insert(int, geometry.Point) {}

func (li *linearIndex) nearest(p geometry.Point) int {
	best := 0
	bestDist := math.Inf(1)
	for i, n := range li.tree.nodes {
		if dist := p.Distance(n.Point); dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// treeEntry wraps a tree node for R-tree storage
type treeEntry struct {
	index int
	bbox  rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *treeEntry) Bounds() rtreego.Rect {
	return e.bbox
}

type rtreeIndex struct {
	rtree *rtreego.Rtree
}

func (ri *rtreeIndex) insert(index int, p geometry.Point) {
	bbox, err := rtreego.NewRect(
		rtreego.Point{p.X - nodeTolerance, p.Y - nodeTolerance},
		[]float64{2 * nodeTolerance, 2 * nodeTolerance},
	)
	if err != nil {
		// lengths are constant and positive
		panic(err)
	}
	ri.rtree.Insert(&treeEntry{index: index, bbox: bbox})
}

func (ri *rtreeIndex) nearest(p geometry.Point) int {
	return ri.rtree.NearestNeighbor(rtreego.Point{p.X, p.Y}).(*treeEntry).index
}
