// Package sim runs a scenario end to end without a display: plan once, then tick the follower
// along the compacted path until it reaches the goal.
package sim

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"rrtnav/field"
	"rrtnav/follower"
	"rrtnav/geometry"
	"rrtnav/planner"
	"rrtnav/scenario"
)

const defaultMaxTicks = 100000

// ErrTickLimit means the follower was still moving when the tick budget ran out.
var ErrTickLimit = errors.New("follower did not reach the goal within the tick limit")

// Config bounds a simulation run.
type Config struct {
	// MaxTicks caps the number of follower ticks. Zero means a large default.
	MaxTicks int `json:"maxTicks,omitempty"`
	// Retries is how many extra planning attempts, each with the next seed, follow a
	// not-found outcome.
	Retries int `json:"retries,omitempty"`
	// Realtime paces ticks to the tick duration instead of running as fast as possible.
	Realtime bool `json:"realtime,omitempty"`
}

// Frame is the robot pose reported after one follower tick.
type Frame struct {
	Tick     int                 `json:"tick"`
	Time     float64             `json:"time"` // simulated seconds
	State    follower.RobotState `json:"state"`
	Waypoint int                 `json:"waypoint"`
	Target   geometry.Point      `json:"target"`
	Status   string              `json:"status"`
}

// Outcome summarizes a run.
type Outcome struct {
	Plan     *planner.Result
	Attempts int
	Ticks    int
	Final    follower.RobotState
	Status   follower.Status
}

// Driver owns the robot state of one scenario.
type Driver struct {
	scenario *scenario.Scenario
	field    *field.Field
	cfg      Config
	clock    clock.Clock
	logger   golog.Logger
}

// NewDriver validates the scenario and prepares a driver for it.
func NewDriver(s *scenario.Scenario, cfg Config, logger golog.Logger) (*Driver, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	f, err := s.Field()
	if err != nil {
		return nil, err
	}
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = defaultMaxTicks
	}
	if cfg.Retries < 0 {
		return nil, errors.Wrapf(field.ErrInvalidConfiguration, "retries must be >= 0, got %d", cfg.Retries)
	}
	if logger == nil {
		logger = golog.Global()
	}
	return &Driver{scenario: s, field: f, cfg: cfg, clock: clock.New(), logger: logger}, nil
}

// SetClock replaces the wall clock used for realtime pacing.
func (d *Driver) SetClock(c clock.Clock) {
	d.clock = c
}

// Field returns the workspace being simulated.
func (d *Driver) Field() *field.Field {
	return d.field
}

// Plan runs the planner, retrying not-found outcomes with successive seeds. The last attempt's
// result is returned alongside its error so the explored tree can still be shown.
func (d *Driver) Plan(ctx context.Context) (*planner.Result, int, error) {
	opts := d.scenario.Planner
	var (
		res *planner.Result
		err error
	)
	attempt := 0
	for attempt <= d.cfg.Retries {
		attempt++
		mp, perr := planner.New(d.field, opts, d.logger)
		if perr != nil {
			return nil, attempt, perr
		}
		res, err = mp.Plan(ctx, d.scenario.Start, d.scenario.Goal)
		if err == nil {
			d.logger.Infow("path found", "attempt", attempt, "seed", opts.Seed,
				"iterations", res.Iterations, "nodes", res.Tree.Len(),
				"raw", len(res.Raw), "compacted", len(res.Compacted))
			return res, attempt, nil
		}
		if !planner.IsRetryable(err) {
			return res, attempt, err
		}
		d.logger.Warnw("no path found", "attempt", attempt, "seed", opts.Seed, "error", err)
		opts.Seed++
	}
	return res, attempt, err
}

// Follow drives the robot from the scenario start along path, calling onFrame after every tick.
// A non-nil error from onFrame stops the run and is returned.
func (d *Driver) Follow(ctx context.Context, path planner.Path, onFrame func(Frame) error) (*Outcome, error) {
	params := d.scenario.Follower
	fol, err := follower.New(path, params)
	if err != nil {
		return nil, err
	}

	state := follower.RobotState{X: d.scenario.Start.X, Y: d.scenario.Start.Y, Heading: d.scenario.StartHeading}
	out := &Outcome{Status: follower.StillFollowing}

	var ticker *clock.Ticker
	if d.cfg.Realtime {
		ticker = d.clock.Ticker(tickInterval(params.TickDuration))
		defer ticker.Stop()
	}

	for out.Ticks < d.cfg.MaxTicks {
		if err := ctx.Err(); err != nil {
			out.Final = state
			return out, errors.Wrap(err, "simulation cancelled")
		}

		out.Status = fol.Tick(&state)
		out.Ticks++
		out.Final = state
		if onFrame != nil {
			frame := Frame{
				Tick:     out.Ticks,
				Time:     float64(out.Ticks) * params.TickDuration,
				State:    state,
				Waypoint: fol.Index(),
				Target:   fol.Target(),
				Status:   out.Status.String(),
			}
			if err := onFrame(frame); err != nil {
				return out, err
			}
		}
		if out.Status == follower.ReachedGoal {
			d.logger.Debugw("goal reached", "ticks", out.Ticks, "x", state.X, "y", state.Y)
			return out, nil
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return out, errors.Wrap(ctx.Err(), "simulation cancelled")
			case <-ticker.C:
			}
		}
	}
	return out, errors.Wrapf(ErrTickLimit, "after %d ticks", out.Ticks)
}

// tickInterval converts a tick duration in seconds to a ticker period, clamped to what a ticker
// accepts and a Duration can hold.
func tickInterval(seconds float64) time.Duration {
	ns := seconds * float64(time.Second)
	switch {
	case !(ns >= 1):
		return time.Nanosecond
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	default:
		return time.Duration(ns)
	}
}

// Run plans and then follows the compacted path.
func (d *Driver) Run(ctx context.Context, onFrame func(Frame) error) (*Outcome, error) {
	res, attempts, err := d.Plan(ctx)
	if err != nil {
		return &Outcome{Plan: res, Attempts: attempts, Status: follower.StillFollowing}, err
	}
	out, err := d.Follow(ctx, res.Compacted, onFrame)
	if out != nil {
		out.Plan = res
		out.Attempts = attempts
	}
	return out, err
}
