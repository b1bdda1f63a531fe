package planner

import (
	"fmt"

	"rrtnav/geometry"
)

// NoParent is the parent index stored on the root node.
const NoParent = -1

// Node is a tree vertex. Parent is the index of the node it was grown from.
type Node struct {
	Point  geometry.Point `json:"point"`
	Parent int            `json:"parent"`
}

// Tree is an append-only arena of nodes rooted at index 0. Nodes only refer to nodes added
// before them, so following parents always terminates at the root.
type Tree struct {
	nodes []Node
}

// NewTree creates a tree holding only the root.
func NewTree(root geometry.Point) *Tree {
	return &Tree{nodes: []Node{{Point: root, Parent: NoParent}}}
}

// Add appends a node grown from parent and returns its index.
func (t *Tree) Add(p geometry.Point, parent int) int {
	t.mustIndex(parent)
	t.nodes = append(t.nodes, Node{Point: p, Parent: parent})
	return len(t.nodes) - 1
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the start point.
func (t *Tree) Root() geometry.Point {
	return t.nodes[0].Point
}

// Node returns the node at index i.
func (t *Tree) Node(i int) Node {
	t.mustIndex(i)
	return t.nodes[i]
}

// Nodes returns a copy of every node in insertion order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Edges returns every parent-child link as a segment, for display.
func (t *Tree) Edges() []geometry.LineSegment {
	edges := make([]geometry.LineSegment, 0, len(t.nodes)-1)
	for _, n := range t.nodes[1:] {
		edges = append(edges, geometry.LineSegment{P1: t.nodes[n.Parent].Point, P2: n.Point})
	}
	return edges
}

// Depth returns the number of parent links between node i and the root.
func (t *Tree) Depth(i int) int {
	t.mustIndex(i)
	depth := 0
	for t.nodes[i].Parent != NoParent {
		i = t.nodes[i].Parent
		depth++
	}
	return depth
}

func (t *Tree) mustIndex(i int) {
	if i < 0 || i >= len(t.nodes) {
		panic(fmt.Sprintf("planner: node index %d out of range [0,%d)", i, len(t.nodes)))
	}
}
