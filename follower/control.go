// Package follower drives a unicycle robot along a compacted path one fixed tick at a time.
package follower

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"rrtnav/field"
	"rrtnav/geometry"
)

// Falloff selects how forward speed is reduced as heading error grows.
type Falloff string

const (
	// FalloffStep drives at full commanded speed while the heading error is within the
	// threshold and turns in place beyond it.
	FalloffStep Falloff = "step"
	// FalloffLinear scales speed by 1-|err|/threshold, reaching zero at the threshold.
	FalloffLinear Falloff = "linear"
)

// RobotState is the robot pose and the velocities applied during the last tick.
type RobotState struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Heading         float64 `json:"heading"` // radians, counter-clockwise from +x
	LinearVelocity  float64 `json:"linearVelocity"`
	AngularVelocity float64 `json:"angularVelocity"`
}

// Position returns the robot position.
func (s RobotState) Position() geometry.Point {
	return geometry.Point{X: s.X, Y: s.Y}
}

// Params tunes the controller.
type Params struct {
	TickDuration       float64 `json:"tickDuration"` // seconds
	MaxLinearVelocity  float64 `json:"maxLinearVelocity"`
	MaxAngularVelocity float64 `json:"maxAngularVelocity"`
	LinearGain         float64 `json:"linearGain"`
	AngularGain        float64 `json:"angularGain"`
	HeadingThreshold   float64 `json:"headingThreshold"` // radians
	WaypointTolerance  float64 `json:"waypointTolerance"`
	Falloff            Falloff `json:"falloff,omitempty"`
}

// NewDefaultParams returns parameters matching the original playground speeds: 24 units/s
// forward and a tick of 1/30 s.
func NewDefaultParams() Params {
	return Params{
		TickDuration:       1.0 / 30,
		MaxLinearVelocity:  24,
		MaxAngularVelocity: math.Pi / 2,
		LinearGain:         1,
		AngularGain:        3,
		HeadingThreshold:   math.Pi / 6,
		WaypointTolerance:  2,
		Falloff:            FalloffStep,
	}
}

// Validate checks every parameter is in range.
func (p Params) Validate() error {
	var errs error
	for _, param := range []struct {
		name  string
		value float64
	}{
		{"tickDuration", p.TickDuration},
		{"maxLinearVelocity", p.MaxLinearVelocity},
		{"maxAngularVelocity", p.MaxAngularVelocity},
		{"linearGain", p.LinearGain},
		{"angularGain", p.AngularGain},
		{"waypointTolerance", p.WaypointTolerance},
	} {
		if !(param.value > 0) {
			errs = multierr.Append(errs, errors.Errorf("%s must be > 0, got %g", param.name, param.value))
		}
	}
	if !(p.HeadingThreshold > 0 && p.HeadingThreshold <= math.Pi) {
		errs = multierr.Append(errs, errors.Errorf("headingThreshold must be in (0, pi], got %g", p.HeadingThreshold))
	}
	switch p.Falloff {
	case "", FalloffStep, FalloffLinear:
	default:
		errs = multierr.Append(errs, errors.Errorf("unknown falloff %q", p.Falloff))
	}
	if errs != nil {
		return errors.Wrap(field.ErrInvalidConfiguration, errs.Error())
	}
	return nil
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	a -= math.Pi
	if a == -math.Pi {
		return math.Pi
	}
	return a
}

// HeadingError is the signed turn from the robot heading to the bearing of target, in (-pi, pi].
// Positive means the target is counter-clockwise of the heading.
func HeadingError(s RobotState, target geometry.Point) float64 {
	bearing := math.Atan2(target.Y-s.Y, target.X-s.X)
	return NormalizeAngle(bearing - s.Heading)
}

// Command computes the linear and angular velocity for one tick towards target. Neither command
// carries the robot past the target bearing or distance within one tick, whatever the gains.
func Command(s RobotState, target geometry.Point, p Params) (linear, angular float64) {
	headingErr := HeadingError(s, target)
	angular = clamp(p.AngularGain*headingErr, math.Min(p.MaxAngularVelocity, math.Abs(headingErr)/p.TickDuration))

	dist := s.Position().Distance(target)
	linear = math.Min(p.LinearGain*dist, math.Min(p.MaxLinearVelocity, dist/p.TickDuration))
	linear *= falloffScale(math.Abs(headingErr), p)
	return linear, angular
}

// Integrate advances the pose by one tick of unicycle motion: position moves along the current
// heading, then the heading turns.
func Integrate(s *RobotState, linear, angular, dt float64) {
	s.X += linear * math.Cos(s.Heading) * dt
	s.Y += linear * math.Sin(s.Heading) * dt
	s.Heading = NormalizeAngle(s.Heading + angular*dt)
	s.LinearVelocity = linear
	s.AngularVelocity = angular
}

func falloffScale(absErr float64, p Params) float64 {
	switch p.Falloff {
	case FalloffLinear:
		return math.Max(0, 1-absErr/p.HeadingThreshold)
	default:
		if absErr > p.HeadingThreshold {
			return 0
		}
		return 1
	}
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
