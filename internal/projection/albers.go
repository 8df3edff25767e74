// Package projection maps geographic coordinates to screen coordinates and
// victim counts to circle radii. One fixed projection, configured once at
// startup, is shared by basemap rendering and incident-point placement so
// the two layers always align.
package projection

import "math"

// Albers projects (longitude, latitude) to (x, y) canvas coordinates with
// an equal-area conic projection fitted to the conterminous US: standard
// parallels 29.5°/45.5°, reference point 96°W 37.5°N. The scale and
// translation are fixed at construction from the canvas dimensions; there
// is no resize handling.
type Albers struct {
	n    float64
	c    float64
	rho0 float64

	scale      float64
	translateX float64
	translateY float64
}

const (
	parallel1 = 29.5
	parallel2 = 45.5
	centerLon = -96.0
	centerLat = 37.5

	// scalePerPixel reproduces the conventional US-map scale of 1070
	// projection units for a 960px-wide canvas.
	scalePerPixel = 1070.0 / 960.0
)

// offCanvas is where invalid coordinates land. Far enough outside any
// plausible canvas that the shape is never visible, finite so SVG output
// stays well-formed.
const offCanvas = -9999.0

// NewAlbers builds the projection for a canvas of the given dimensions.
func NewAlbers(width, height int) *Albers {
	phi1 := radians(parallel1)
	phi2 := radians(parallel2)
	phi0 := radians(centerLat)

	n := (math.Sin(phi1) + math.Sin(phi2)) / 2
	c := math.Cos(phi1)*math.Cos(phi1) + 2*n*math.Sin(phi1)

	return &Albers{
		n:          n,
		c:          c,
		rho0:       math.Sqrt(c-2*n*math.Sin(phi0)) / n,
		scale:      float64(width) * scalePerPixel,
		translateX: float64(width) / 2,
		translateY: float64(height) / 2,
	}
}

// Project maps (longitude, latitude) to (x, y). Pure and deterministic.
// NaN or out-of-range input projects off-canvas rather than failing.
func (a *Albers) Project(lon, lat float64) (x, y float64) {
	if math.IsNaN(lon) || math.IsNaN(lat) ||
		lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return offCanvas, offCanvas
	}

	lambda := radians(lon - centerLon)
	phi := radians(lat)

	rho := math.Sqrt(a.c-2*a.n*math.Sin(phi)) / a.n
	theta := a.n * lambda

	px := rho * math.Sin(theta)
	py := a.rho0 - rho*math.Cos(theta)

	// py grows northward; screen y grows downward.
	return a.scale*px + a.translateX, a.translateY - a.scale*py
}

// OffCanvas reports whether a projected point is the invalid-input sentinel.
func OffCanvas(x, y float64) bool {
	return x == offCanvas && y == offCanvas
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
