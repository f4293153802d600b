// Package utils contains small helpers shared across depthfusion packages.
package utils

import "math"

// Clamp returns min if value is less than min or max if value is greater than max.
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	return math.Min(math.Max(value, min), max)
}

// ClampInt is Clamp for ints.
func ClampInt(value, min, max int) int {
	if min > max {
		min, max = max, min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
