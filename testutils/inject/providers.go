// Package inject provides injectable implementations of the fusion interfaces for tests.
package inject

import (
	"context"
	"image"

	"go.viam.com/depthfusion/rimage"
	"go.viam.com/depthfusion/services/fusion"
	"go.viam.com/depthfusion/vision/objectdetection"
)

// DepthProvider is an injected depth provider.
type DepthProvider struct {
	fusion.DepthProvider
	EstimateFunc func(ctx context.Context, img image.Image) (*rimage.DepthSurface, error)
}

// Estimate calls the injected Estimate or the real version.
func (p *DepthProvider) Estimate(ctx context.Context, img image.Image) (*rimage.DepthSurface, error) {
	if p.EstimateFunc == nil {
		return p.DepthProvider.Estimate(ctx, img)
	}
	return p.EstimateFunc(ctx, img)
}

// ObjectProvider is an injected object provider.
type ObjectProvider struct {
	fusion.ObjectProvider
	DetectFunc func(ctx context.Context, img image.Image) ([]objectdetection.Detection, error)
}

// Detect calls the injected Detect or the real version.
func (p *ObjectProvider) Detect(ctx context.Context, img image.Image) ([]objectdetection.Detection, error) {
	if p.DetectFunc == nil {
		return p.ObjectProvider.Detect(ctx, img)
	}
	return p.DetectFunc(ctx, img)
}

// Sink is an injected result sink.
type Sink struct {
	fusion.Sink
	PublishFunc func(res *fusion.Result)
}

// Publish calls the injected Publish or the real version.
func (s *Sink) Publish(res *fusion.Result) {
	if s.PublishFunc == nil {
		s.Sink.Publish(res)
		return
	}
	s.PublishFunc(res)
}
