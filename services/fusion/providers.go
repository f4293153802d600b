package fusion

import (
	"context"
	"image"

	"go.viam.com/depthfusion/rimage"
	"go.viam.com/depthfusion/vision/objectdetection"
)

// DepthProvider estimates a dense depth surface of fixed size for an image. It must not modify
// the image.
type DepthProvider interface {
	Estimate(ctx context.Context, img image.Image) (*rimage.DepthSurface, error)
}

// ObjectProvider detects objects in an image, reporting boxes in its fixed native coordinate
// space.
type ObjectProvider interface {
	Detect(ctx context.Context, img image.Image) ([]objectdetection.Detection, error)
}

// DepthProviderFunc adapts a function to a DepthProvider.
type DepthProviderFunc func(ctx context.Context, img image.Image) (*rimage.DepthSurface, error)

// Estimate calls f.
func (f DepthProviderFunc) Estimate(ctx context.Context, img image.Image) (*rimage.DepthSurface, error) {
	return f(ctx, img)
}

// ObjectProviderFunc adapts an objectdetection.Detector to an ObjectProvider.
type ObjectProviderFunc objectdetection.Detector

// Detect calls f.
func (f ObjectProviderFunc) Detect(ctx context.Context, img image.Image) ([]objectdetection.Detection, error) {
	return f(ctx, img)
}
