package projection

import "math"

// RadiusScale maps a victim count to a circle radius with a square-root
// relationship: drawn area, not radius, grows linearly with the count, so
// small-incident differences are not overstated.
//
// Counts above DomainMax are clamped to RangeMax rather than extrapolated.
// The source data has a handful of outliers far past the domain ceiling;
// clamping keeps the drawn area bounded and the legend honest.
type RadiusScale struct {
	DomainMax float64
	RangeMax  float64
}

// NewRadiusScale builds the fixed scale. Non-positive bounds fall back to
// the standard [0,50] → [0,25] px mapping.
func NewRadiusScale(domainMax, rangeMax float64) RadiusScale {
	if domainMax <= 0 {
		domainMax = 50
	}
	if rangeMax <= 0 {
		rangeMax = 25
	}
	return RadiusScale{DomainMax: domainMax, RangeMax: rangeMax}
}

// Of returns the radius for a victim count. Monotonic on the domain;
// Of(0) == 0 and Of(DomainMax) == RangeMax exactly.
func (s RadiusScale) Of(victims int) float64 {
	v := float64(victims)
	if v <= 0 {
		return 0
	}
	if v >= s.DomainMax {
		return s.RangeMax
	}
	return s.RangeMax * math.Sqrt(v/s.DomainMax)
}
