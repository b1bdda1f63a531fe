package planner

import (
	"github.com/pkg/errors"

	"rrtnav/field"
)

var (
	// ErrInvalidConfiguration marks bad input: endpoints outside the workspace or inside an
	// obstacle, or out-of-range parameters. The caller has to fix the input.
	ErrInvalidConfiguration = field.ErrInvalidConfiguration

	// ErrPlanningNotFound means the iteration budget ran out before the tree reached the goal.
	// It is a normal outcome; retrying with another seed or a larger budget may succeed.
	ErrPlanningNotFound = errors.New("motion planner failed to find path")

	// ErrPlanningCancelled means the caller's context was done before planning finished.
	ErrPlanningCancelled = errors.New("motion planning cancelled")
)

// IsRetryable reports whether err is an outcome worth retrying with new planner inputs.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPlanningNotFound)
}
