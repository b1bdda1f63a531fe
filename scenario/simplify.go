package scenario

import (
	"math"

	"rrtnav/geometry"
)

// SimplifyPolygon reduces vertex count with Douglas-Peucker. A closed ring (first vertex repeated
// at the end) stays closed, and the polygon is returned unchanged if simplification would leave
// fewer than three distinct vertices.
func SimplifyPolygon(poly geometry.Polygon, epsilon float64) geometry.Polygon {
	n := len(poly.Vertices)
	if n <= 3 || epsilon <= 0 {
		return poly
	}

	closed := poly.Vertices[0].ApproxEqual(poly.Vertices[n-1], geometry.Epsilon)
	open := poly.Vertices
	if closed {
		open = poly.Vertices[:n-1]
	}

	// simplify the ring as a polyline that returns to its first vertex
	ring := make([]geometry.Point, 0, len(open)+1)
	ring = append(ring, open...)
	ring = append(ring, open[0])
	simplified := douglasPeucker(ring, epsilon)
	simplified = simplified[:len(simplified)-1]

	if len(simplified) < 3 {
		return poly
	}
	out := geometry.Polygon{Vertices: simplified}
	if out.Validate() != nil {
		return poly
	}
	if closed {
		out.Vertices = append(out.Vertices, out.Vertices[0])
	}
	return out
}

// SimplifyObstacles simplifies every polygon in the scenario in place. Rectangles are left alone.
func (s *Scenario) SimplifyObstacles(epsilon float64) (removedVertices int) {
	for i, spec := range s.Obstacles {
		if spec.Type != KindPolygon {
			continue
		}
		simplified := SimplifyPolygon(geometry.Polygon{Vertices: spec.Vertices}, epsilon)
		removedVertices += len(spec.Vertices) - len(simplified.Vertices)
		s.Obstacles[i].Vertices = simplified.Vertices
	}
	return removedVertices
}

func douglasPeucker(points []geometry.Point, epsilon float64) []geometry.Point {
	if len(points) <= 2 {
		return points
	}

	dmax := 0.0
	index := 0
	end := len(points) - 1
	for i := 1; i < end; i++ {
		if d := perpendicularDistance(points[i], points[0], points[end]); d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax <= epsilon {
		return []geometry.Point{points[0], points[end]}
	}

	left := douglasPeucker(points[:index+1], epsilon)
	right := douglasPeucker(points[index:], epsilon)
	result := make([]geometry.Point, 0, len(left)+len(right)-1)
	result = append(result, left[:len(left)-1]...)
	return append(result, right...)
}

// perpendicularDistance is the distance from p to the infinite line through a and b, or to a
// itself when the two coincide.
func perpendicularDistance(p, a, b geometry.Point) float64 {
	dir := b.R2().Sub(a.R2())
	rel := p.R2().Sub(a.R2())
	if dir.Norm() == 0 {
		return rel.Norm()
	}
	return math.Abs(dir.Cross(rel)) / dir.Norm()
}

// EstimateSimplificationEpsilon suggests a tolerance that grows with the total vertex count so
// heavy imports shrink more. Values are in workspace units.
func EstimateSimplificationEpsilon(polygons []geometry.Polygon) float64 {
	count := 0
	for _, poly := range polygons {
		count += len(poly.Vertices)
	}
	for _, step := range []struct {
		above   int
		epsilon float64
	}{
		{50000, 20},
		{20000, 10},
		{5000, 5},
		{1000, 2},
	} {
		if count > step.above {
			return step.epsilon
		}
	}
	return 1
}
