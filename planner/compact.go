package planner

import "rrtnav/field"

// Compact removes redundant waypoints by greedy shortcutting. From the last accepted point it
// tries the remaining points farthest first and keeps the first one reachable by a
// collision-free segment. Paths of two or fewer points are returned unchanged.
//
// If no later point is reachable, the immediate successor is kept anyway so the scan always
// ends; planner output never hits that case because its consecutive points are already clear.
func Compact(path Path, checker field.Checker) Path {
	n := len(path)
	if n <= 2 {
		return path.Clone()
	}

	compacted := Path{path[0]}
	for i := 0; i < n-1; {
		next := i + 1
		for j := n - 1; j > i+1; j-- {
			if !checker.SegmentCollides(path[i], path[j]) {
				next = j
				break
			}
		}
		compacted = append(compacted, path[next])
		i = next
	}
	return compacted
}
