package forcify

import (
	"math"
	"time"
)

// Ramp computes the emulated force for a press held for elapsed.
//
// Force is 0 until delay has passed, rises linearly to 1 over duration, and
// saturates at 1 afterwards.
func Ramp(elapsed, delay, duration time.Duration) float64 {
	if elapsed < delay {
		return 0
	}
	into := elapsed - delay
	if duration <= 0 || into >= duration {
		return 1
	}
	return Clamp(float64(into) / float64(duration))
}

// Clamp limits v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Normalize maps a raw hardware reading from [min,max] onto [0,1].
func Normalize(raw, min, max float64) float64 {
	if max <= min {
		return Clamp(raw)
	}
	return Clamp((raw - min) / (max - min))
}
