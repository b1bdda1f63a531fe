package scenario

import "rrtnav/geometry"

// Default returns the 800x800 playground course: two vertical barriers with a single gap each,
// a short pillar and two horizontal barriers, with the goal in the far corner of the top row.
// Some barriers run past the workspace edge.
func Default() *Scenario {
	s := New(800, 800)
	s.Name = "playground"
	s.Start = geometry.Point{X: 50, Y: 50}
	s.Goal = geometry.Point{X: 750, Y: 50}

	for _, r := range []struct{ x, y, w, h float64 }{
		// vertical barrier 1
		{200, 0, 100, 650},
		{200, 750, 100, 100},
		// vertical barrier 2
		{650, 0, 50, 100},
		{650, 200, 50, 100},
		// pillar
		{500, 50, 50, 200},
		// horizontal barrier 1
		{300, 500, 350, 100},
		{750, 500, 300, 100},
		// horizontal barrier 2
		{300, 300, 50, 100},
		{450, 300, 400, 100},
	} {
		s.Obstacles = append(s.Obstacles, RectSpec(
			geometry.Point{X: r.x, Y: r.y},
			geometry.Point{X: r.x + r.w, Y: r.y + r.h},
		))
	}
	return s
}
