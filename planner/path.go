package planner

import "rrtnav/geometry"

// Path is an ordered waypoint sequence from the start towards the goal.
type Path []geometry.Point

// Length returns the summed Euclidean length of the path's segments.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i-1].Distance(p[i])
	}
	return total
}

// Clone returns an independent copy.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// PointAt returns the point a given arc length along the path, clamped to its ends.
func (p Path) PointAt(distance float64) geometry.Point {
	if len(p) == 0 {
		panic("planner: PointAt on empty path")
	}
	if distance <= 0 {
		return p[0]
	}
	for i := 1; i < len(p); i++ {
		seg := p[i-1].Distance(p[i])
		if distance <= seg {
			if seg == 0 {
				return p[i]
			}
			return p[i-1].Lerp(p[i], distance/seg)
		}
		distance -= seg
	}
	return p[len(p)-1]
}

// Segments returns the consecutive point pairs of the path.
func (p Path) Segments() []geometry.LineSegment {
	if len(p) < 2 {
		return nil
	}
	segs := make([]geometry.LineSegment, 0, len(p)-1)
	for i := 1; i < len(p); i++ {
		segs = append(segs, geometry.LineSegment{P1: p[i-1], P2: p[i]})
	}
	return segs
}
