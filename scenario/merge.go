package scenario

import (
	"rrtnav/geometry"
)

// RemoveContained drops obstacles that lie entirely inside another convex obstacle. Collision
// answers are unchanged; the index just has less to search. Order of the survivors is kept.
func RemoveContained(obstacles []geometry.Obstacle) []geometry.Obstacle {
	if len(obstacles) <= 1 {
		return obstacles
	}

	contained := make([]bool, len(obstacles))
	for i := range obstacles {
		if contained[i] {
			continue
		}
		for j := range obstacles {
			if i == j || contained[j] {
				continue
			}
			if isContainedIn(obstacles[i], obstacles[j]) {
				contained[i] = true
				break
			}
			if isContainedIn(obstacles[j], obstacles[i]) {
				contained[j] = true
			}
		}
	}

	result := make([]geometry.Obstacle, 0, len(obstacles))
	for i, o := range obstacles {
		if !contained[i] {
			result = append(result, o)
		}
	}
	return result
}

// PruneObstacles removes contained obstacles from the scenario and returns how many were dropped.
func (s *Scenario) PruneObstacles() (int, error) {
	shapes, err := s.Shapes()
	if err != nil {
		return 0, err
	}
	kept := RemoveContained(shapes)
	specs := make([]ObstacleSpec, 0, len(kept))
	for _, o := range kept {
		specs = append(specs, SpecFor(o))
	}
	s.Obstacles = specs
	return len(shapes) - len(kept), nil
}

// isContainedIn checks whether a lies inside b. Only convex containers are considered, where
// vertex containment implies the whole shape is inside.
func isContainedIn(a, b geometry.Obstacle) bool {
	outer := outline(b)
	if !isConvex(outer) {
		return false
	}
	ab, bb := a.Bounds(), b.Bounds()
	if !bb.ContainsPoint(ab.Lo()) || !bb.ContainsPoint(ab.Hi()) {
		return false
	}
	for _, v := range outline(a) {
		if !b.ContainsPoint(v, geometry.Epsilon) {
			return false
		}
	}
	return true
}

func outline(o geometry.Obstacle) []geometry.Point {
	switch shape := o.(type) {
	case geometry.Rect:
		return shape.Corners()
	case geometry.Polygon:
		return shape.Vertices
	default:
		return nil
	}
}

// isConvex reports whether every turn along the outline has the same sign.
func isConvex(vertices []geometry.Point) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}
	sign := 0.0
	for i := 0; i < n; i++ {
		a, b, c := vertices[i], vertices[(i+1)%n], vertices[(i+2)%n]
		cross := crossProduct(a, b, c)
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = cross
			continue
		}
		if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return sign != 0
}

// crossProduct is the z component of (b-a) x (c-a).
func crossProduct(a, b, c geometry.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}
