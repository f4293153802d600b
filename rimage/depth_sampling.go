package rimage

import (
	"math"

	"go.viam.com/depthfusion/utils"
)

// DefaultSampleRadius gives a 3x3 neighbourhood.
const DefaultSampleRadius = 1

// DepthRange is the extent of the samples observed on one surface.
type DepthRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Samples int     `json:"samples"`
}

// Degenerate reports whether the range cannot be used as a normalization reference.
func (r DepthRange) Degenerate() bool {
	span := r.Max - r.Min
	return r.Samples == 0 || !utils.IsFinite(span) || span <= 0
}

// OutputRange is the real-world interval calibrated depth is mapped into.
type OutputRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint is the value reported for every detection when the surface is flat.
func (o OutputRange) Midpoint() float64 {
	return (o.Min + o.Max) / 2
}

// ObserveRange scans every sample once and returns the smallest and largest values.
func ObserveRange(ds *DepthSurface) (DepthRange, error) {
	if !ds.HasData() {
		return DepthRange{}, ErrEmptySurface
	}
	r := DepthRange{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range ds.data {
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
		r.Samples++
	}
	return r, nil
}

// SampleDepth averages the in-bounds samples of the (2*radius+1)^2 square centered on (x, y).
// Samples outside the surface are excluded from the average. If none are in bounds it returns 0.
func SampleDepth(ds *DepthSurface, x, y, radius int) float64 {
	if !ds.HasData() {
		return 0
	}
	if radius < 0 {
		radius = 0
	}
	total := 0.0
	num := 0
	for b := y - radius; b <= y+radius; b++ {
		for a := x - radius; a <= x+radius; a++ {
			if !ds.Contains(a, b) {
				continue
			}
			total += ds.Get(a, b)
			num++
		}
	}
	if num == 0 {
		return 0
	}
	return total / float64(num)
}

// Normalize linearly maps raw from the observed range into out. A degenerate range maps to
// out.Midpoint().
func Normalize(raw float64, r DepthRange, out OutputRange) float64 {
	return NormalizeWithFallback(raw, r, out, out.Midpoint())
}

// NormalizeWithFallback is Normalize with an explicit value for degenerate ranges and
// non-finite input. Results are clamped into out.
func NormalizeWithFallback(raw float64, r DepthRange, out OutputRange, fallback float64) float64 {
	if r.Degenerate() || !utils.IsFinite(raw) {
		return fallback
	}
	scaled := ((raw-r.Min)/(r.Max-r.Min))*(out.Max-out.Min) + out.Min
	return utils.Clamp(scaled, out.Min, out.Max)
}
