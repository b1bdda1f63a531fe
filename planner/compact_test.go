package planner

import (
	"testing"

	"go.viam.com/test"

	"rrtnav/field"
	"rrtnav/geometry"
)

func TestCompactCollinear(t *testing.T) {
	f, err := field.New(10, 10)
	test.That(t, err, test.ShouldBeNil)

	raw := Path{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 4, Y: 0}}
	test.That(t, Compact(raw, f), test.ShouldResemble, Path{{X: 0, Y: 0}, {X: 4, Y: 0}})
	// input untouched
	test.That(t, raw, test.ShouldHaveLength, 5)
}

func TestCompactShortPaths(t *testing.T) {
	f, err := field.New(10, 10)
	test.That(t, err, test.ShouldBeNil)

	for _, raw := range []Path{{}, {{X: 1, Y: 1}}, {{X: 1, Y: 1}, {X: 2, Y: 2}}} {
		out := Compact(raw, f)
		test.That(t, out, test.ShouldResemble, raw)
	}
}

func TestCompactAroundObstacle(t *testing.T) {
	// Test Map:
	//      - bounds are from (0, 0) to (20, 20)
	//      - obstacle from (8, 0) to (12, 10)
	f, err := field.New(20, 20, geometry.NewRect(geometry.Point{X: 8, Y: 0}, geometry.Point{X: 12, Y: 10}))
	test.That(t, err, test.ShouldBeNil)

	raw := Path{
		{X: 2, Y: 2}, {X: 4, Y: 6}, {X: 6, Y: 12}, {X: 8, Y: 13},
		{X: 12, Y: 13}, {X: 14, Y: 12}, {X: 16, Y: 6}, {X: 18, Y: 2},
	}
	out := Compact(raw, f)

	test.That(t, out[0], test.ShouldResemble, raw[0])
	test.That(t, out[len(out)-1], test.ShouldResemble, raw[len(raw)-1])
	test.That(t, len(out), test.ShouldBeLessThan, len(raw))
	test.That(t, len(out), test.ShouldBeGreaterThan, 2)
	test.That(t, out.Length(), test.ShouldBeLessThan, raw.Length())
	for _, seg := range out.Segments() {
		test.That(t, f.SegmentCollides(seg.P1, seg.P2), test.ShouldBeFalse)
	}
}

// stubChecker blocks every segment whose endpoints are more than one index apart along x.
type stubChecker struct{}

func (stubChecker) PointInObstacle(geometry.Point) bool { return false }

func (stubChecker) SegmentCollides(a, b geometry.Point) bool {
	return b.X-a.X > 1
}

func TestCompactNoShortcut(t *testing.T) {
	raw := Path{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}, {X: 3, Y: 1}}
	test.That(t, Compact(raw, stubChecker{}), test.ShouldResemble, raw)
}

func TestCompactFarthestFirst(t *testing.T) {
	// every shortcut is clear, so the first accepted point is the last one
	f, err := field.New(10, 10)
	test.That(t, err, test.ShouldBeNil)
	raw := Path{{X: 1, Y: 1}, {X: 5, Y: 9}, {X: 9, Y: 1}, {X: 5, Y: 5}}
	test.That(t, Compact(raw, f), test.ShouldResemble, Path{{X: 1, Y: 1}, {X: 5, Y: 5}})
}
