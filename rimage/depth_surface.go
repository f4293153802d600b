// Package rimage holds the depth surface produced by a depth provider and the routines that
// read calibrated depth out of it.
package rimage

import (
	"image"

	"github.com/pkg/errors"
)

// ErrEmptySurface is returned when a depth surface has no samples.
var ErrEmptySurface = errors.New("depth surface has no samples")

// DepthSurface is a fixed size grid of scalar depth intensities stored row-major.
// A surface is not safe for concurrent mutation; once handed to the fusion pipeline it is
// treated as read-only.
type DepthSurface struct {
	width  int
	height int

	data []float64
}

// NewEmptyDepthSurface returns a zeroed surface of the given size.
func NewEmptyDepthSurface(width, height int) *DepthSurface {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &DepthSurface{
		width:  width,
		height: height,
		data:   make([]float64, width*height),
	}
}

// NewDepthSurface wraps row-major samples. The slice is used as-is, not copied.
func NewDepthSurface(width, height int, data []float64) (*DepthSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrEmptySurface, "invalid dimensions %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("depth surface %dx%d needs %d samples, got %d", width, height, width*height, len(data))
	}
	return &DepthSurface{width: width, height: height, data: data}, nil
}

// HasData reports whether the surface holds at least one sample.
func (ds *DepthSurface) HasData() bool {
	return ds != nil && ds.width > 0 && ds.height > 0 && len(ds.data) > 0
}

// Width returns the number of columns.
func (ds *DepthSurface) Width() int {
	return ds.width
}

// Height returns the number of rows.
func (ds *DepthSurface) Height() int {
	return ds.height
}

// Bounds returns the surface extent as a rectangle anchored at the origin.
func (ds *DepthSurface) Bounds() image.Rectangle {
	return image.Rect(0, 0, ds.width, ds.height)
}

// Contains reports whether (x, y) addresses a sample.
func (ds *DepthSurface) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < ds.width && y < ds.height
}

// Get returns the sample at (x, y). It panics when out of bounds, like a slice index.
func (ds *DepthSurface) Get(x, y int) float64 {
	return ds.data[y*ds.width+x]
}

// Set writes the sample at (x, y).
func (ds *DepthSurface) Set(x, y int, val float64) {
	ds.data[y*ds.width+x] = val
}

// Len is the number of samples.
func (ds *DepthSurface) Len() int {
	return len(ds.data)
}
