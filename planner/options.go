package planner

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	// Number of planner iterations before giving up.
	defaultPlanIter = 20000

	defaultStepSize      = 10.0
	defaultGoalTolerance = 5.0
	defaultGoalBias      = 0.05
)

// Options configures a single RRT planning attempt.
type Options struct {
	// StepSize is the furthest a new node may be from its parent.
	StepSize float64 `json:"stepSize"`
	// GoalTolerance is how close a node must get to the goal to end the search.
	GoalTolerance float64 `json:"goalTolerance"`
	// GoalBias is the probability of sampling the goal instead of a uniform point.
	GoalBias float64 `json:"goalBias"`
	// MaxIterations bounds the number of samples drawn.
	MaxIterations int `json:"maxIterations"`
	// Seed seeds the random source when none is injected.
	Seed int64 `json:"seed"`
	// NearestIndex keeps tree nodes in an R-tree for nearest-neighbour lookups instead of
	// scanning every node.
	NearestIndex bool `json:"nearestIndex,omitempty"`
}

// NewDefaultOptions returns options suitable for a few-hundred-unit workspace.
func NewDefaultOptions() Options {
	return Options{
		StepSize:      defaultStepSize,
		GoalTolerance: defaultGoalTolerance,
		GoalBias:      defaultGoalBias,
		MaxIterations: defaultPlanIter,
		Seed:          1,
	}
}

// Validate checks every numeric parameter is in range.
func (o Options) Validate() error {
	var errs error
	if !(o.StepSize > 0) {
		errs = multierr.Append(errs, errors.Errorf("stepSize must be > 0, got %g", o.StepSize))
	}
	if !(o.GoalTolerance > 0) {
		errs = multierr.Append(errs, errors.Errorf("goalTolerance must be > 0, got %g", o.GoalTolerance))
	}
	if !(o.GoalBias >= 0 && o.GoalBias <= 1) {
		errs = multierr.Append(errs, errors.Errorf("goalBias must be in [0,1], got %g", o.GoalBias))
	}
	if o.MaxIterations <= 0 {
		errs = multierr.Append(errs, errors.Errorf("maxIterations must be > 0, got %d", o.MaxIterations))
	}
	if errs != nil {
		return errors.Wrap(ErrInvalidConfiguration, errs.Error())
	}
	return nil
}
