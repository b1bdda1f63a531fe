// Package planner grows a Rapidly-exploring Random Tree from a start point to a goal, extracts
// the raw path from the tree and shortens it by shortcutting.
package planner

import (
	"context"
	"math/rand"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"rrtnav/field"
	"rrtnav/geometry"
)

// Result is the outcome of one planning attempt.
type Result struct {
	// Tree is the explored tree; set for both found and not-found outcomes.
	Tree *Tree
	// GoalIndex is the goal-adjacent node, or NoParent when no path was found.
	GoalIndex int
	// Raw is the tree path from start to the goal-adjacent node.
	Raw Path
	// Compacted is Raw after shortcutting.
	Compacted  Path
	Iterations int
	Rejected   int
	Elapsed    time.Duration
}

// Found reports whether the tree reached the goal.
func (r *Result) Found() bool {
	return r != nil && r.GoalIndex != NoParent
}

// Planner runs RRT searches over one field.
type Planner struct {
	field  *field.Field
	bounds r2.Rect
	opts   Options
	rng    *rand.Rand
	logger golog.Logger
}

// New creates a planner after validating opts.
func New(f *field.Field, opts Options, logger golog.Logger) (*Planner, error) {
	if f == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "field is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = golog.Global()
	}
	return &Planner{field: f, bounds: f.Bounds(), opts: opts, logger: logger}, nil
}

// Options returns the planner's options.
func (mp *Planner) Options() Options {
	return mp.opts
}

// SetRand injects the random source used by subsequent Plan calls. Without one, every Plan
// call draws from a fresh source seeded with Options.Seed.
func (mp *Planner) SetRand(rng *rand.Rand) {
	mp.rng = rng
}

// Plan grows a tree from start until a node lands within GoalTolerance of goal, then extracts
// and compacts the path. It returns ErrInvalidConfiguration, ErrPlanningNotFound or
// ErrPlanningCancelled (wrapped) on failure; the returned result still carries the tree for the
// latter two.
func (mp *Planner) Plan(ctx context.Context, start, goal geometry.Point) (*Result, error) {
	if err := mp.field.ValidateEndpoints(start, goal); err != nil {
		return nil, err
	}

	startTime := time.Now()
	rng := mp.rng
	if rng == nil {
		//nolint:gosec
		rng = rand.New(rand.NewSource(mp.opts.Seed))
	}

	tree := NewTree(start)
	nn := newNeighborIndex(tree, mp.opts.NearestIndex)
	res := &Result{Tree: tree, GoalIndex: NoParent}

	if start.Distance(goal) <= mp.opts.GoalTolerance {
		return mp.finish(res, 0, startTime), nil
	}

	for i := 0; i < mp.opts.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			res.Elapsed = time.Since(startTime)
			mp.logger.Debugf("rrt: cancelled after %d iterations", res.Iterations)
			return res, errors.Wrap(ErrPlanningCancelled, ctx.Err().Error())
		default:
		}
		res.Iterations++

		target := mp.sample(rng, goal)
		nearest := nn.nearest(target)
		from := tree.nodes[nearest].Point
		next := steer(from, target, mp.opts.StepSize)

		if next.ApproxEqual(from, geometry.Epsilon) || mp.field.SegmentCollides(from, next) {
			res.Rejected++
			continue
		}

		added := tree.Add(next, nearest)
		nn.insert(added, next)

		if next.Distance(goal) <= mp.opts.GoalTolerance {
			return mp.finish(res, added, startTime), nil
		}
	}

	res.Elapsed = time.Since(startTime)
	mp.logger.Debugf("rrt: no path after %d iterations (%d nodes, %d rejected) in %v",
		res.Iterations, tree.Len(), res.Rejected, res.Elapsed)
	return res, errors.Wrapf(ErrPlanningNotFound, "goal %v not reached after %d iterations", goal, res.Iterations)
}

func (mp *Planner) finish(res *Result, goalIndex int, startTime time.Time) *Result {
	res.GoalIndex = goalIndex
	res.Raw = ExtractPath(res.Tree, goalIndex)
	res.Compacted = Compact(res.Raw, mp.field)
	res.Elapsed = time.Since(startTime)
	mp.logger.Debugf("rrt: found goal after %d iterations (%d nodes, %d rejected), path %d -> %d waypoints in %v",
		res.Iterations, res.Tree.Len(), res.Rejected, len(res.Raw), len(res.Compacted), res.Elapsed)
	return res
}

// sample returns the goal with probability GoalBias, otherwise a uniform point in the workspace.
func (mp *Planner) sample(rng *rand.Rand, goal geometry.Point) geometry.Point {
	if rng.Float64() < mp.opts.GoalBias {
		return goal
	}
	lo := mp.bounds.Lo()
	return geometry.Point{
		X: lo.X + rng.Float64()*mp.bounds.X.Length(),
		Y: lo.Y + rng.Float64()*mp.bounds.Y.Length(),
	}
}

// steer moves from towards to by at most step.
func steer(from, to geometry.Point, step float64) geometry.Point {
	dist := from.Distance(to)
	if dist <= step {
		return to
	}
	return from.Lerp(to, step/dist)
}
