// Package fake implements fusion providers that need no model, for demos and tests.
package fake

import (
	"context"
	"image"

	"go.viam.com/depthfusion/rimage"
	"go.viam.com/depthfusion/vision/objectdetection"
)

// DepthProvider reports each pixel's luminance as its depth intensity, resampled to a fixed
// surface size.
type DepthProvider struct {
	Width  int
	Height int
}

// Estimate builds the luminance surface.
func (p *DepthProvider) Estimate(ctx context.Context, img image.Image) (*rimage.DepthSurface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rimage.NewDepthSurfaceFromImage(img, p.Width, p.Height)
}

// ObjectProvider finds dark regions in a frame resized to its native detector space.
type ObjectProvider struct {
	detector objectdetection.Detector
}

// NewObjectProvider returns a provider whose boxes are in a width x height native space.
// Regions darker than threshold (0-256) are reported with the given label.
func NewObjectProvider(width, height uint, threshold float64, label string) (*ObjectProvider, error) {
	det, err := objectdetection.NewNativeSpaceDetector(objectdetection.NewSimpleDetector(threshold, label), width, height)
	if err != nil {
		return nil, err
	}
	return &ObjectProvider{detector: det}, nil
}

// Detect runs the detector.
func (p *ObjectProvider) Detect(ctx context.Context, img image.Image) ([]objectdetection.Detection, error) {
	return p.detector(ctx, img)
}
