// Package scenario loads and saves the inputs of a planning run: workspace, obstacles, start and
// goal, and the planner and follower parameters.
package scenario

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"rrtnav/field"
	"rrtnav/follower"
	"rrtnav/geometry"
	"rrtnav/planner"
)

// Obstacle kinds accepted in scenario files.
const (
	KindRect    = "rect"
	KindPolygon = "polygon"
)

// ObstacleSpec is the file form of one obstacle. Rectangles use Min and Max, polygons use
// Vertices.
type ObstacleSpec struct {
	Type     string           `json:"type"`
	Min      *geometry.Point  `json:"min,omitempty"`
	Max      *geometry.Point  `json:"max,omitempty"`
	Vertices []geometry.Point `json:"vertices,omitempty"`
}

// RectSpec describes an axis-aligned rectangle.
func RectSpec(min, max geometry.Point) ObstacleSpec {
	return ObstacleSpec{Type: KindRect, Min: &min, Max: &max}
}

// PolygonSpec describes a polygon.
func PolygonSpec(vertices ...geometry.Point) ObstacleSpec {
	return ObstacleSpec{Type: KindPolygon, Vertices: vertices}
}

// SpecFor converts a built obstacle back to its file form.
func SpecFor(o geometry.Obstacle) ObstacleSpec {
	switch shape := o.(type) {
	case geometry.Rect:
		return RectSpec(shape.Min(), shape.Max())
	case geometry.Polygon:
		vertices := make([]geometry.Point, len(shape.Vertices))
		copy(vertices, shape.Vertices)
		return PolygonSpec(vertices...)
	default:
		panic(errors.Errorf("unknown obstacle type %T", o))
	}
}

// Build turns the description into an obstacle.
func (o ObstacleSpec) Build() (geometry.Obstacle, error) {
	switch o.Type {
	case KindRect:
		if o.Min == nil || o.Max == nil {
			return nil, errors.New("rect needs min and max")
		}
		return geometry.NewRect(*o.Min, *o.Max), nil
	case KindPolygon:
		vertices := make([]geometry.Point, len(o.Vertices))
		copy(vertices, o.Vertices)
		return geometry.Polygon{Vertices: vertices}, nil
	default:
		return nil, errors.Errorf("unknown obstacle type %q", o.Type)
	}
}

// Scenario is everything needed to plan and follow one route.
type Scenario struct {
	Name         string          `json:"name,omitempty"`
	Width        float64         `json:"width"`
	Height       float64         `json:"height"`
	Obstacles    []ObstacleSpec  `json:"obstacles"`
	Clearance    float64         `json:"clearance,omitempty"` // kept from every obstacle
	Start        geometry.Point  `json:"start"`
	Goal         geometry.Point  `json:"goal"`
	StartHeading float64         `json:"startHeading,omitempty"` // radians
	Planner      planner.Options `json:"planner"`
	Follower     follower.Params `json:"follower"`
}

// New returns an empty scenario with default planner and follower parameters.
func New(width, height float64) *Scenario {
	return &Scenario{
		Width:    width,
		Height:   height,
		Planner:  planner.NewDefaultOptions(),
		Follower: follower.NewDefaultParams(),
	}
}

// Shapes builds every obstacle, reporting all malformed entries at once.
func (s *Scenario) Shapes() ([]geometry.Obstacle, error) {
	var errs error
	shapes := make([]geometry.Obstacle, 0, len(s.Obstacles))
	for i, spec := range s.Obstacles {
		o, err := spec.Build()
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "obstacle %d", i))
			continue
		}
		shapes = append(shapes, o)
	}
	if errs != nil {
		return nil, errors.Wrap(field.ErrInvalidConfiguration, errs.Error())
	}
	return shapes, nil
}

// Field builds the workspace described by the scenario, with obstacles grown by the clearance.
func (s *Scenario) Field() (*field.Field, error) {
	shapes, err := s.Shapes()
	if err != nil {
		return nil, err
	}
	f, err := field.New(s.Width, s.Height, shapes...)
	if err != nil {
		return nil, err
	}
	if s.Clearance == 0 {
		return f, nil
	}
	return f.WithClearance(s.Clearance)
}

// Validate checks the workspace, the endpoints and both parameter sets. The returned error wraps
// field.ErrInvalidConfiguration.
func (s *Scenario) Validate() error {
	f, err := s.Field()
	if err != nil {
		return err
	}
	return multierr.Combine(
		f.ValidateEndpoints(s.Start, s.Goal),
		s.Planner.Validate(),
		s.Follower.Validate(),
	)
}

// Decode reads a scenario from JSON. Parameters missing from the input keep their defaults.
func Decode(r io.Reader) (*Scenario, error) {
	s := New(0, 0)
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrapf(field.ErrInvalidConfiguration, "failed to decode scenario: %v", err)
	}
	return s, nil
}

// Encode writes the scenario as indented JSON.
func (s *Scenario) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(s), "failed to encode scenario")
}

// Save writes the scenario to filename.
func Save(s *Scenario, filename string, logger golog.Logger) error {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}
	//nolint:gosec
	if err := os.WriteFile(filename, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "failed to write scenario")
	}
	logger.Debugw("scenario saved", "file", filename, "bytes", buf.Len())
	return nil
}

// Load reads a scenario from filename.
func Load(filename string, logger golog.Logger) (*Scenario, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario")
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warnw("failed to close scenario file", "file", filename, "error", err)
		}
	}()

	s, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}
	logger.Debugw("scenario loaded", "file", filename, "obstacles", len(s.Obstacles))
	return s, nil
}
