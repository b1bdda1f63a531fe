package planner

// ExtractPath walks parent links from node index back to the root and returns the points in
// start-to-node order. An out-of-range index panics.
func ExtractPath(tree *Tree, index int) Path {
	tree.mustIndex(index)

	// extract the path to the root
	path := make(Path, 0, 16)
	for i := index; i != NoParent; i = tree.nodes[i].Parent {
		path = append(path, tree.nodes[i].Point)
	}

	// reverse the slice
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
