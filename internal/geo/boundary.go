// Package geo decodes the state boundary file into the fixed in-memory
// representation the basemap is drawn from. GeoJSON and shapefile sources
// both normalize to the same ring lists; the renderer never sees the source
// format.
package geo

// Ring is a closed sequence of (longitude, latitude) vertices.
type Ring [][2]float64

// Feature is one named state outline. Multipolygon states (islands,
// peninsulas) carry one ring per part; holes are kept as separate rings
// since only outlines are drawn.
type Feature struct {
	Name  string
	Rings []Ring
}

// Boundary is the opaque, immutable collection of state features. Consumed
// only by the basemap renderer.
type Boundary struct {
	features []Feature
}

// NewBoundary wraps the given features. Features without rings are kept;
// they simply draw nothing.
func NewBoundary(features []Feature) *Boundary {
	return &Boundary{features: features}
}

// Len returns the number of features.
func (b *Boundary) Len() int { return len(b.features) }

// Features returns the feature list. Callers must not mutate it.
func (b *Boundary) Features() []Feature { return b.features }
