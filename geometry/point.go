// Package geometry holds the 2D primitives the planner works with: points, segments and the
// closed set of obstacle shapes, all compared with a fixed tolerance.
package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
)

// Epsilon is the tolerance used by every geometric comparison in this module.
const Epsilon = 1e-9

// Point is a position in the workspace frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	return p.R2().Sub(other.R2()).Norm()
}

// Add returns p+other.
func (p Point) Add(other Point) Point {
	return FromR2(p.R2().Add(other.R2()))
}

// Sub returns p-other.
func (p Point) Sub(other Point) Point {
	return FromR2(p.R2().Sub(other.R2()))
}

// Scale returns p multiplied by k.
func (p Point) Scale(k float64) Point {
	return FromR2(p.R2().Mul(k))
}

// Dot returns the dot product of p and other.
func (p Point) Dot(other Point) float64 {
	return p.R2().Dot(other.R2())
}

// Cross returns the z component of the cross product of p and other.
func (p Point) Cross(other Point) float64 {
	return p.R2().Cross(other.R2())
}

// Norm returns the length of p as a vector.
func (p Point) Norm() float64 {
	return p.R2().Norm()
}

// Lerp returns the point a fraction t of the way from p to other.
func (p Point) Lerp(other Point, t float64) Point {
	return p.Add(other.Sub(p).Scale(t))
}

// ApproxEqual reports whether both coordinates differ by at most eps.
func (p Point) ApproxEqual(other Point, eps float64) bool {
	return math.Abs(p.X-other.X) <= eps && math.Abs(p.Y-other.Y) <= eps
}

// R2 converts p to the r2 representation used for vector math and rectangles.
func (p Point) R2() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Orb converts p to an orb point for the planar helpers.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// FromR2 converts an r2 point back to a Point.
func FromR2(p r2.Point) Point {
	return Point{X: p.X, Y: p.Y}
}
