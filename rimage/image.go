package rimage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// NewDepthSurfaceFromImage resamples img to width x height and stores each pixel's luminance
// (0-255) as its depth intensity. 16-bit grayscale input of the target size is copied without
// resampling so full precision is kept.
func NewDepthSurfaceFromImage(img image.Image, width, height int) (*DepthSurface, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("cannot build a depth surface from an empty image")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrEmptySurface, "invalid dimensions %dx%d", width, height)
	}

	ds := NewEmptyDepthSurface(width, height)
	if g16, ok := img.(*image.Gray16); ok && g16.Bounds().Dx() == width && g16.Bounds().Dy() == height {
		min := g16.Bounds().Min
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				ds.Set(x, y, float64(g16.Gray16At(min.X+x, min.Y+y).Y))
			}
		}
		return ds, nil
	}

	resized := imaging.Resize(img, width, height, imaging.Linear)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := color.GrayModel.Convert(resized.NRGBAAt(x, y)).(color.Gray)
			ds.Set(x, y, float64(gray.Y))
		}
	}
	return ds, nil
}
