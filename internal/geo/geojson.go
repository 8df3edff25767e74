package geo

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ReadGeoJSON decodes a GeoJSON FeatureCollection of state polygons.
// Features whose geometry is not polygonal are skipped with a debug log;
// the basemap only draws outlines.
func ReadGeoJSON(r io.Reader) (*Boundary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "geo: read geojson source")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "geo: decode geojson")
	}

	features := make([]Feature, 0, len(fc.Features))
	skipped := 0
	for _, f := range fc.Features {
		rings := ringsFromGeom(f.Geometry)
		if rings == nil {
			skipped++
			continue
		}
		features = append(features, Feature{
			Name:  featureName(f),
			Rings: rings,
		})
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygonal geojson features", zap.Int("skipped", skipped))
	}
	if len(features) == 0 {
		return nil, eris.New("geo: geojson source has no polygonal features")
	}

	return NewBoundary(features), nil
}

// featureName prefers the conventional name property, falling back to the
// feature id.
func featureName(f *geojson.Feature) string {
	for _, key := range []string{"name", "NAME"} {
		if v, ok := f.Properties[key].(string); ok && v != "" {
			return v
		}
	}
	return f.ID
}

// ringsFromGeom flattens a polygonal go-geom geometry into ring lists.
// Returns nil for non-polygonal or nil geometry.
func ringsFromGeom(g geom.T) []Ring {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonRings(t)
	case *geom.MultiPolygon:
		var rings []Ring
		for i := range t.NumPolygons() {
			rings = append(rings, polygonRings(t.Polygon(i))...)
		}
		return rings
	default:
		return nil
	}
}

func polygonRings(p *geom.Polygon) []Ring {
	rings := make([]Ring, 0, p.NumLinearRings())
	for i := range p.NumLinearRings() {
		coords := p.LinearRing(i).Coords()
		ring := make(Ring, 0, len(coords))
		for _, c := range coords {
			if len(c) < 2 {
				continue
			}
			ring = append(ring, [2]float64{c[0], c[1]})
		}
		if len(ring) >= 3 {
			rings = append(rings, ring)
		}
	}
	return rings
}
