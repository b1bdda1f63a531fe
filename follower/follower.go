package follower

import (
	"rrtnav/geometry"
)

// Status is the follower's report after a tick.
type Status int

const (
	// StillFollowing means waypoints remain.
	StillFollowing Status = iota
	// ReachedGoal means the robot is within tolerance of the final waypoint.
	ReachedGoal
)

func (s Status) String() string {
	switch s {
	case ReachedGoal:
		return "reachedGoal"
	default:
		return "stillFollowing"
	}
}

// Follower tracks which waypoint of a path the robot is heading for. The path is trusted to be
// collision free; nothing is re-checked while following.
type Follower struct {
	path   []geometry.Point
	index  int
	params Params
	done   bool
}

// New creates a follower for path. An empty path is a programming error and panics.
func New(path []geometry.Point, params Params) (*Follower, error) {
	if len(path) == 0 {
		panic("follower: empty path")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	owned := make([]geometry.Point, len(path))
	copy(owned, path)
	return &Follower{path: owned, params: params}, nil
}

// Params returns the controller parameters.
func (f *Follower) Params() Params {
	return f.params
}

// Index returns the index of the waypoint currently targeted.
func (f *Follower) Index() int {
	return f.index
}

// Target returns the waypoint currently targeted.
func (f *Follower) Target() geometry.Point {
	return f.path[f.index]
}

// Done reports whether the final waypoint has been reached.
func (f *Follower) Done() bool {
	return f.done
}

// Tick runs one control step along the follower's path. Once the goal is reached every further
// tick only holds the robot still.
func (f *Follower) Tick(s *RobotState) Status {
	if f.done {
		return stop(s)
	}
	var status Status
	f.index, status = Step(s, f.path, f.index, f.params)
	f.done = status == ReachedGoal
	return status
}

// Step is one control step for callers that keep the waypoint index themselves: skip waypoints
// already within tolerance, command velocities towards the current one, integrate the pose over
// the tick, then check for arrival again. It returns the index to pass on the next tick.
// path must be non-empty and index within it; params are not validated here.
func Step(s *RobotState, path []geometry.Point, index int, params Params) (int, Status) {
	index, arrived := advance(s.Position(), path, index, params.WaypointTolerance)
	if arrived {
		return index, stop(s)
	}

	linear, angular := Command(*s, path[index], params)
	Integrate(s, linear, angular, params.TickDuration)

	if index, arrived = advance(s.Position(), path, index, params.WaypointTolerance); arrived {
		return index, stop(s)
	}
	return index, StillFollowing
}

// advance moves past every waypoint pos is already within tolerance of and reports whether that
// included the last one.
func advance(pos geometry.Point, path []geometry.Point, index int, tolerance float64) (int, bool) {
	for pos.Distance(path[index]) <= tolerance {
		if index == len(path)-1 {
			return index, true
		}
		index++
	}
	return index, false
}

func stop(s *RobotState) Status {
	s.LinearVelocity = 0
	s.AngularVelocity = 0
	return ReachedGoal
}
