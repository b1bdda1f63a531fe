package planner

import (
	"context"
	"math/rand"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"rrtnav/field"
	"rrtnav/geometry"
)

// Test Map:
//   - bounds are from (0, 0) to (100, 100)
//   - wall from (30, 0) to (40, 70)
//   - wall from (60, 30) to (70, 100)
func twoWallField(t *testing.T) *field.Field {
	t.Helper()
	f, err := field.New(100, 100,
		geometry.NewRect(geometry.Point{X: 30, Y: 0}, geometry.Point{X: 40, Y: 70}),
		geometry.NewRect(geometry.Point{X: 60, Y: 30}, geometry.Point{X: 70, Y: 100}),
	)
	test.That(t, err, test.ShouldBeNil)
	return f
}

func courseOptions() Options {
	return Options{StepSize: 5, GoalTolerance: 3, GoalBias: 0.1, MaxIterations: 20000, Seed: 42}
}

func checkTreeInvariants(t *testing.T, f *field.Field, tree *Tree) {
	t.Helper()
	for i := 0; i < tree.Len(); i++ {
		test.That(t, tree.Depth(i), test.ShouldBeLessThan, tree.Len())
		if i == 0 {
			test.That(t, tree.Node(i).Parent, test.ShouldEqual, NoParent)
			continue
		}
		test.That(t, tree.Node(i).Parent, test.ShouldBeLessThan, i)
	}
	for _, edge := range tree.Edges() {
		test.That(t, f.SegmentCollides(edge.P1, edge.P2), test.ShouldBeFalse)
	}
}

func checkPathClear(t *testing.T, f *field.Field, path Path) {
	t.Helper()
	for _, seg := range path.Segments() {
		test.That(t, f.SegmentCollides(seg.P1, seg.P2), test.ShouldBeFalse)
	}
}

func TestPlanStraightLine(t *testing.T) {
	f, err := field.New(100, 100)
	test.That(t, err, test.ShouldBeNil)

	opts := Options{StepSize: 200, GoalTolerance: 1, GoalBias: 1.0, MaxIterations: 1, Seed: 7}
	mp, err := New(f, opts, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	start, goal := geometry.Point{X: 5, Y: 5}, geometry.Point{X: 95, Y: 95}
	res, err := mp.Plan(context.Background(), start, goal)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found(), test.ShouldBeTrue)
	test.That(t, res.Iterations, test.ShouldEqual, 1)
	test.That(t, res.Tree.Len(), test.ShouldEqual, 2)
	test.That(t, res.Raw, test.ShouldResemble, Path{start, goal})
	test.That(t, res.Compacted, test.ShouldResemble, Path{start, goal})
}

func TestPlanGoalBiasSteps(t *testing.T) {
	f, err := field.New(100, 100)
	test.That(t, err, test.ShouldBeNil)

	opts := Options{StepSize: 10, GoalTolerance: 1, GoalBias: 1.0, MaxIterations: 20, Seed: 7}
	mp, err := New(f, opts, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	res, err := mp.Plan(context.Background(), geometry.Point{X: 5, Y: 5}, geometry.Point{X: 95, Y: 95})
	test.That(t, err, test.ShouldBeNil)
	// 90*sqrt(2) ~ 127.3 needs 13 steps of 10
	test.That(t, res.Iterations, test.ShouldEqual, 13)
	test.That(t, res.Raw, test.ShouldHaveLength, 14)
	test.That(t, res.Compacted, test.ShouldHaveLength, 2)
}

func TestPlanBlockedByWall(t *testing.T) {
	f, err := field.New(100, 100, geometry.NewRect(geometry.Point{X: 40, Y: 0}, geometry.Point{X: 60, Y: 100}))
	test.That(t, err, test.ShouldBeNil)

	opts := Options{StepSize: 5, GoalTolerance: 2, GoalBias: 0.05, MaxIterations: 5000, Seed: 3}
	mp, err := New(f, opts, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	res, err := mp.Plan(context.Background(), geometry.Point{X: 5, Y: 50}, geometry.Point{X: 95, Y: 50})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrPlanningNotFound), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeFalse)
	test.That(t, IsRetryable(err), test.ShouldBeTrue)
	test.That(t, res.Found(), test.ShouldBeFalse)
	test.That(t, res.Iterations, test.ShouldEqual, 5000)
	test.That(t, res.Raw, test.ShouldBeNil)
	checkTreeInvariants(t, f, res.Tree)
	for _, n := range res.Tree.Nodes() {
		test.That(t, n.Point.X, test.ShouldBeLessThan, 40.0)
	}
}

func TestPlanClearance(t *testing.T) {
	f, err := field.New(100, 100,
		geometry.NewRect(geometry.Point{X: 40, Y: 0}, geometry.Point{X: 60, Y: 45}),
		geometry.NewRect(geometry.Point{X: 40, Y: 55}, geometry.Point{X: 60, Y: 100}),
	)
	test.That(t, err, test.ShouldBeNil)
	start, goal := geometry.Point{X: 10, Y: 50}, geometry.Point{X: 90, Y: 50}
	opts := Options{StepSize: 5, GoalTolerance: 2, GoalBias: 0.1, MaxIterations: 3000, Seed: 7}

	t.Run("gap wider than twice the clearance", func(t *testing.T) {
		padded, err := f.WithClearance(2)
		test.That(t, err, test.ShouldBeNil)
		opts := opts
		opts.MaxIterations = 20000
		mp, err := New(padded, opts, golog.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		res, err := mp.Plan(context.Background(), start, goal)
		test.That(t, err, test.ShouldBeNil)
		checkPathClear(t, padded, res.Compacted)
	})

	t.Run("gap narrower than twice the clearance", func(t *testing.T) {
		padded, err := f.WithClearance(6)
		test.That(t, err, test.ShouldBeNil)
		mp, err := New(padded, opts, golog.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		res, err := mp.Plan(context.Background(), start, goal)
		test.That(t, errors.Is(err, ErrPlanningNotFound), test.ShouldBeTrue)
		test.That(t, res.Found(), test.ShouldBeFalse)
		for _, n := range res.Tree.Nodes() {
			test.That(t, n.Point.X, test.ShouldBeLessThan, 40.0)
		}
	})
}

func TestPlanAroundWalls(t *testing.T) {
	f := twoWallField(t)
	start, goal := geometry.Point{X: 10, Y: 10}, geometry.Point{X: 90, Y: 90}

	for _, useIndex := range []bool{false, true} {
		opts := courseOptions()
		opts.NearestIndex = useIndex
		mp, err := New(f, opts, golog.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)

		res, err := mp.Plan(context.Background(), start, goal)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Found(), test.ShouldBeTrue)
		checkTreeInvariants(t, f, res.Tree)

		raw := res.Raw
		test.That(t, raw[0], test.ShouldResemble, start)
		test.That(t, raw[len(raw)-1].Distance(goal), test.ShouldBeLessThanOrEqualTo, opts.GoalTolerance)
		test.That(t, raw[len(raw)-1], test.ShouldResemble, res.Tree.Node(res.GoalIndex).Point)
		checkPathClear(t, f, raw)

		compacted := res.Compacted
		test.That(t, compacted[0], test.ShouldResemble, raw[0])
		test.That(t, compacted[len(compacted)-1], test.ShouldResemble, raw[len(raw)-1])
		test.That(t, len(compacted), test.ShouldBeLessThanOrEqualTo, len(raw))
		test.That(t, compacted.Length(), test.ShouldBeLessThanOrEqualTo, raw.Length()+geometry.Epsilon)
		checkPathClear(t, f, compacted)
		// the walls force at least one turn
		test.That(t, len(compacted), test.ShouldBeGreaterThan, 2)
	}
}

func TestPlanDeterminism(t *testing.T) {
	f := twoWallField(t)
	start, goal := geometry.Point{X: 10, Y: 10}, geometry.Point{X: 90, Y: 90}

	plan := func() *Result {
		mp, err := New(f, courseOptions(), golog.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		res, err := mp.Plan(context.Background(), start, goal)
		test.That(t, err, test.ShouldBeNil)
		return res
	}
	a, b := plan(), plan()
	test.That(t, a.Tree.Nodes(), test.ShouldResemble, b.Tree.Nodes())
	test.That(t, a.Raw, test.ShouldResemble, b.Raw)
	test.That(t, a.Compacted, test.ShouldResemble, b.Compacted)

	t.Run("injected source", func(t *testing.T) {
		run := func() *Result {
			mp, err := New(f, courseOptions(), golog.NewTestLogger(t))
			test.That(t, err, test.ShouldBeNil)
			mp.SetRand(rand.New(rand.NewSource(99)))
			res, err := mp.Plan(context.Background(), start, goal)
			test.That(t, err, test.ShouldBeNil)
			return res
		}
		test.That(t, run().Tree.Nodes(), test.ShouldResemble, run().Tree.Nodes())
	})
}

func TestPlanCancelled(t *testing.T) {
	f := twoWallField(t)
	mp, err := New(f, courseOptions(), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := mp.Plan(ctx, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 90, Y: 90})
	test.That(t, errors.Is(err, ErrPlanningCancelled), test.ShouldBeTrue)
	test.That(t, IsRetryable(err), test.ShouldBeFalse)
	test.That(t, res.Iterations, test.ShouldEqual, 0)
	test.That(t, res.Tree.Len(), test.ShouldEqual, 1)
}

func TestPlanInvalidConfiguration(t *testing.T) {
	f := twoWallField(t)

	t.Run("start inside obstacle", func(t *testing.T) {
		mp, err := New(f, courseOptions(), golog.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		_, err = mp.Plan(context.Background(), geometry.Point{X: 35, Y: 10}, geometry.Point{X: 90, Y: 90})
		test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
		test.That(t, errors.Is(err, ErrPlanningNotFound), test.ShouldBeFalse)
	})

	t.Run("goal outside workspace", func(t *testing.T) {
		mp, err := New(f, courseOptions(), golog.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		_, err = mp.Plan(context.Background(), geometry.Point{X: 10, Y: 10}, geometry.Point{X: 100, Y: 50})
		test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
	})

	t.Run("bad options", func(t *testing.T) {
		_, err := New(f, Options{StepSize: 0, GoalTolerance: -1, GoalBias: 2, MaxIterations: 0}, golog.NewTestLogger(t))
		test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
		for _, name := range []string{"stepSize", "goalTolerance", "goalBias", "maxIterations"} {
			test.That(t, err.Error(), test.ShouldContainSubstring, name)
		}
	})

	t.Run("nil field", func(t *testing.T) {
		_, err := New(nil, courseOptions(), nil)
		test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
	})
}

func TestPlanStartWithinTolerance(t *testing.T) {
	f := twoWallField(t)
	mp, err := New(f, courseOptions(), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	res, err := mp.Plan(context.Background(), geometry.Point{X: 10, Y: 10}, geometry.Point{X: 11, Y: 11})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.GoalIndex, test.ShouldEqual, 0)
	test.That(t, res.Iterations, test.ShouldEqual, 0)
	test.That(t, res.Raw, test.ShouldResemble, Path{{X: 10, Y: 10}})
}

func TestSteer(t *testing.T) {
	from := geometry.Point{X: 0, Y: 0}
	test.That(t, steer(from, geometry.Point{X: 3, Y: 4}, 10), test.ShouldResemble, geometry.Point{X: 3, Y: 4})
	p := steer(from, geometry.Point{X: 30, Y: 40}, 10)
	test.That(t, p.X, test.ShouldAlmostEqual, 6.0)
	test.That(t, p.Y, test.ShouldAlmostEqual, 8.0)
}

func TestNeighborIndexAgree(t *testing.T) {
	tree := NewTree(geometry.Point{X: 0, Y: 0})
	linear := newNeighborIndex(tree, false)
	indexed := newNeighborIndex(tree, true)

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		p := geometry.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
		idx := tree.Add(p, linear.nearest(p))
		linear.insert(idx, p)
		indexed.insert(idx, p)
	}
	for i := 0; i < 50; i++ {
		q := geometry.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
		a, b := linear.nearest(q), indexed.nearest(q)
		test.That(t, tree.Node(a).Point.Distance(q), test.ShouldAlmostEqual, tree.Node(b).Point.Distance(q), 1e-5)
	}
}
