package scenario

import (
	"github.com/edaniels/golog"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"rrtnav/geometry"
)

// ImportGeoJSON reads the outer ring of every Polygon and MultiPolygon feature as a polygon
// obstacle. Other geometry types are skipped. Coordinates are used as workspace units as-is.
func ImportGeoJSON(data []byte, logger golog.Logger) ([]geometry.Polygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse feature collection")
	}

	var polygons []geometry.Polygon
	for i, feature := range fc.Features {
		if feature.Geometry == nil {
			continue
		}
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			if poly, ok := outerRing(g); ok {
				polygons = append(polygons, poly)
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if poly, ok := outerRing(p); ok {
					polygons = append(polygons, poly)
				}
			}
		default:
			logger.Debugw("skipping feature", "index", i, "type", feature.Geometry.GeoJSONType())
		}
	}
	logger.Debugw("geojson imported", "features", len(fc.Features), "polygons", len(polygons))
	return polygons, nil
}

// ExportGeoJSON writes every obstacle of the scenario as a polygon feature, plus the start and
// goal as point features.
func ExportGeoJSON(s *Scenario) ([]byte, error) {
	shapes, err := s.Shapes()
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for i, o := range shapes {
		spec := SpecFor(o)
		ring := make(orb.Ring, 0, len(outline(o))+1)
		for _, v := range outline(o) {
			ring = append(ring, orb.Point{v.X, v.Y})
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["kind"] = spec.Type
		f.Properties["index"] = i
		fc.Append(f)
	}
	for _, endpoint := range []struct {
		kind string
		p    geometry.Point
	}{{"start", s.Start}, {"goal", s.Goal}} {
		f := geojson.NewFeature(orb.Point{endpoint.p.X, endpoint.p.Y})
		f.Properties["kind"] = endpoint.kind
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal feature collection")
	}
	return data, nil
}

func outerRing(p orb.Polygon) (geometry.Polygon, bool) {
	if len(p) == 0 || len(p[0]) == 0 {
		return geometry.Polygon{}, false
	}
	ring := p[0]
	if ring.Closed() {
		ring = ring[:len(ring)-1]
	}
	poly := geometry.Polygon{Vertices: make([]geometry.Point, 0, len(ring))}
	for _, pt := range ring {
		poly.Vertices = append(poly.Vertices, geometry.Point{X: pt.X(), Y: pt.Y()})
	}
	return poly, true
}
