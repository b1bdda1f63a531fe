// Package field describes the static workspace the robot moves in and answers collision
// queries against it.
package field

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"rrtnav/geometry"
)

// ErrInvalidConfiguration is returned for any input that must be corrected before planning or
// following can start.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Checker answers collision queries. *Field is the production implementation.
type Checker interface {
	PointInObstacle(p geometry.Point) bool
	SegmentCollides(a, b geometry.Point) bool
}

// Field is the rectangular workspace [0,width]x[0,height] and the obstacles inside it.
// A Field is immutable once built.
type Field struct {
	bounds    r2.Rect
	obstacles []geometry.Obstacle
	index     *SpatialIndex
	clearance float64
}

// New builds a field. Obstacles may overlap each other or extend past the bounds.
func New(width, height float64, obstacles ...geometry.Obstacle) (*Field, error) {
	var errs error
	if width <= 0 || height <= 0 {
		errs = multierr.Append(errs, errors.Errorf("workspace must have positive size, got %gx%g", width, height))
	}
	for i, o := range obstacles {
		if o == nil {
			errs = multierr.Append(errs, errors.Errorf("obstacle %d is nil", i))
			continue
		}
		if err := o.Validate(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "obstacle %d", i))
		}
	}
	if errs != nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, errs.Error())
	}

	owned := make([]geometry.Obstacle, len(obstacles))
	copy(owned, obstacles)
	return &Field{
		bounds: r2.Rect{
			X: r1.Interval{Lo: 0, Hi: width},
			Y: r1.Interval{Lo: 0, Hi: height},
		},
		obstacles: owned,
		index:     NewSpatialIndex(owned),
	}, nil
}

// WithClearance returns a copy of the field whose obstacles are grown by clearance: a point
// closer than clearance to any obstacle collides. The workspace bounds are not shrunk.
func (f *Field) WithClearance(clearance float64) (*Field, error) {
	if !(clearance >= 0) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "clearance must be >= 0, got %g", clearance)
	}
	out := *f
	out.clearance = clearance
	return &out, nil
}

// Clearance is the distance the robot keeps from every obstacle.
func (f *Field) Clearance() float64 { return f.clearance }

// margin is the distance below which a point counts as touching an obstacle.
func (f *Field) margin() float64 { return geometry.Epsilon + f.clearance }

// Width of the workspace.
func (f *Field) Width() float64 { return f.bounds.X.Hi }

// Height of the workspace.
func (f *Field) Height() float64 { return f.bounds.Y.Hi }

// Bounds returns the workspace rectangle.
func (f *Field) Bounds() r2.Rect { return f.bounds }

// Obstacles returns a copy of the obstacle list in insertion order.
func (f *Field) Obstacles() []geometry.Obstacle {
	out := make([]geometry.Obstacle, len(f.obstacles))
	copy(out, f.obstacles)
	return out
}

// InBounds reports whether p is inside the workspace or within Epsilon of its edge.
func (f *Field) InBounds(p geometry.Point) bool {
	return f.bounds.ExpandedByMargin(geometry.Epsilon).ContainsPoint(p.R2())
}

// ValidateEndpoints checks that start and goal are strictly inside the bounds and clear of every
// obstacle.
func (f *Field) ValidateEndpoints(start, goal geometry.Point) error {
	var errs error
	check := func(name string, p geometry.Point) {
		if !f.bounds.InteriorContainsPoint(p.R2()) {
			errs = multierr.Append(errs, errors.Errorf("%s %v is not strictly inside the %gx%g workspace",
				name, p, f.Width(), f.Height()))
			return
		}
		if f.PointInObstacle(p) {
			errs = multierr.Append(errs, errors.Errorf("%s %v lies on, inside or within %g of an obstacle",
				name, p, f.clearance))
		}
	}
	check("start", start)
	check("goal", goal)
	if errs != nil {
		return errors.Wrap(ErrInvalidConfiguration, errs.Error())
	}
	return nil
}
