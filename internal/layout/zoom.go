package layout

import "math"

// ZoomLimits bounds the horizontal magnification of the timeline.
type ZoomLimits struct {
	Min  float64
	Max  float64
	Step float64
}

// DefaultZoomLimits allows 0.3x to 5x in steps of 1.5x.
var DefaultZoomLimits = ZoomLimits{Min: 0.3, Max: 5, Step: 1.5}

// In multiplies z by one step, capped at Max.
func (l ZoomLimits) In(z float64) float64 {
	return math.Min(z*l.Step, l.Max)
}

// Out divides z by one step, floored at Min.
func (l ZoomLimits) Out(z float64) float64 {
	return math.Max(z/l.Step, l.Min)
}

// Clamp forces z into [Min, Max].
func (l ZoomLimits) Clamp(z float64) float64 {
	return math.Max(l.Min, math.Min(z, l.Max))
}
