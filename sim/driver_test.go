package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"rrtnav/field"
	"rrtnav/follower"
	"rrtnav/geometry"
	"rrtnav/planner"
	"rrtnav/scenario"
)

func wallScenario() *scenario.Scenario {
	s := scenario.New(100, 100)
	s.Start = geometry.Point{X: 10, Y: 10}
	s.Goal = geometry.Point{X: 90, Y: 90}
	s.Obstacles = []scenario.ObstacleSpec{
		scenario.RectSpec(geometry.Point{X: 30, Y: 0}, geometry.Point{X: 40, Y: 70}),
		scenario.RectSpec(geometry.Point{X: 60, Y: 30}, geometry.Point{X: 70, Y: 100}),
	}
	s.Planner.StepSize = 5
	s.Planner.GoalTolerance = 3
	s.Planner.GoalBias = 0.1
	s.Planner.Seed = 7
	return s
}

func TestRun(t *testing.T) {
	logger := golog.NewTestLogger(t)
	s := wallScenario()
	d, err := NewDriver(s, Config{}, logger)
	test.That(t, err, test.ShouldBeNil)

	var frames []Frame
	out, err := d.Run(context.Background(), func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Status, test.ShouldEqual, follower.ReachedGoal)
	test.That(t, out.Attempts, test.ShouldEqual, 1)
	test.That(t, out.Plan.Found(), test.ShouldBeTrue)
	test.That(t, frames, test.ShouldHaveLength, out.Ticks)
	test.That(t, frames[len(frames)-1].Status, test.ShouldEqual, "reachedGoal")
	test.That(t, frames[0].Time, test.ShouldAlmostEqual, s.Follower.TickDuration)

	// the robot ends within follower tolerance of the last compacted waypoint, which is itself
	// within planner tolerance of the goal
	last := out.Plan.Compacted[len(out.Plan.Compacted)-1]
	test.That(t, out.Final.Position().Distance(last), test.ShouldBeLessThanOrEqualTo, s.Follower.WaypointTolerance)
	test.That(t, last.Distance(s.Goal), test.ShouldBeLessThanOrEqualTo, s.Planner.GoalTolerance)
}

func TestPlanRetries(t *testing.T) {
	logger := golog.NewTestLogger(t)
	s := scenario.New(100, 100)
	s.Start = geometry.Point{X: 5, Y: 50}
	s.Goal = geometry.Point{X: 95, Y: 50}
	s.Obstacles = []scenario.ObstacleSpec{
		scenario.RectSpec(geometry.Point{X: 40, Y: 0}, geometry.Point{X: 60, Y: 100}),
	}
	s.Planner.MaxIterations = 300

	d, err := NewDriver(s, Config{Retries: 2}, logger)
	test.That(t, err, test.ShouldBeNil)
	res, attempts, err := d.Plan(context.Background())
	test.That(t, errors.Is(err, planner.ErrPlanningNotFound), test.ShouldBeTrue)
	test.That(t, attempts, test.ShouldEqual, 3)
	test.That(t, res, test.ShouldNotBeNil)
	test.That(t, res.Tree.Len(), test.ShouldBeGreaterThan, 1)

	out, err := d.Run(context.Background(), nil)
	test.That(t, errors.Is(err, planner.ErrPlanningNotFound), test.ShouldBeTrue)
	test.That(t, out.Attempts, test.ShouldEqual, 3)
	test.That(t, out.Ticks, test.ShouldEqual, 0)
}

func TestNewDriverInvalid(t *testing.T) {
	s := wallScenario()
	s.Start = geometry.Point{X: 35, Y: 10}
	_, err := NewDriver(s, Config{}, golog.NewTestLogger(t))
	test.That(t, errors.Is(err, field.ErrInvalidConfiguration), test.ShouldBeTrue)

	_, err = NewDriver(wallScenario(), Config{Retries: -1}, golog.NewTestLogger(t))
	test.That(t, errors.Is(err, field.ErrInvalidConfiguration), test.ShouldBeTrue)
}

func TestFollowTickLimit(t *testing.T) {
	d, err := NewDriver(wallScenario(), Config{MaxTicks: 5}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	out, err := d.Follow(context.Background(), planner.Path{{X: 10, Y: 10}, {X: 20, Y: 20}}, nil)
	test.That(t, errors.Is(err, ErrTickLimit), test.ShouldBeTrue)
	test.That(t, out.Ticks, test.ShouldEqual, 5)
	test.That(t, out.Status, test.ShouldEqual, follower.StillFollowing)
}

func TestFollowStopsOnFrameError(t *testing.T) {
	d, err := NewDriver(wallScenario(), Config{}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	stop := errors.New("stop")
	out, err := d.Follow(context.Background(), planner.Path{{X: 10, Y: 10}, {X: 20, Y: 20}}, func(f Frame) error {
		if f.Tick == 3 {
			return stop
		}
		return nil
	})
	test.That(t, err, test.ShouldEqual, stop)
	test.That(t, out.Ticks, test.ShouldEqual, 3)
}

func TestFollowRealtime(t *testing.T) {
	mock := clock.NewMock()
	s := wallScenario()
	d, err := NewDriver(s, Config{Realtime: true}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	d.SetClock(mock)

	dt := time.Duration(s.Follower.TickDuration * float64(time.Second))
	start := mock.Now()
	out, err := d.Follow(context.Background(), planner.Path{{X: 10, Y: 10}, {X: 20, Y: 10}}, func(Frame) error {
		mock.Add(dt)
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Status, test.ShouldEqual, follower.ReachedGoal)
	test.That(t, mock.Now().Sub(start), test.ShouldEqual, time.Duration(out.Ticks)*dt)
}

func TestFollowRealtimeCancelled(t *testing.T) {
	mock := clock.NewMock()
	d, err := NewDriver(wallScenario(), Config{Realtime: true}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	d.SetClock(mock)

	ctx, cancel := context.WithCancel(context.Background())
	out, err := d.Follow(ctx, planner.Path{{X: 10, Y: 10}, {X: 20, Y: 10}}, func(Frame) error {
		// the clock never advances, so the driver is left waiting for the next tick
		cancel()
		return nil
	})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, out.Ticks, test.ShouldEqual, 1)
}

func TestFollowRealtimeTinyTick(t *testing.T) {
	mock := clock.NewMock()
	s := wallScenario()
	s.Follower.TickDuration = 1e-10
	test.That(t, s.Validate(), test.ShouldBeNil)

	d, err := NewDriver(s, Config{Realtime: true, MaxTicks: 3}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	d.SetClock(mock)

	out, err := d.Follow(context.Background(), planner.Path{{X: 10, Y: 10}, {X: 20, Y: 10}}, func(Frame) error {
		mock.Add(time.Nanosecond)
		return nil
	})
	test.That(t, errors.Is(err, ErrTickLimit), test.ShouldBeTrue)
	test.That(t, out.Ticks, test.ShouldEqual, 3)
}

func TestTickInterval(t *testing.T) {
	test.That(t, tickInterval(1.0/30), test.ShouldEqual, 33333333*time.Nanosecond)
	test.That(t, tickInterval(1e-10), test.ShouldEqual, time.Nanosecond)
	test.That(t, tickInterval(1e300), test.ShouldEqual, time.Duration(math.MaxInt64))
}
