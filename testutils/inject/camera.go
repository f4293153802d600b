package inject

import (
	"context"
	"image"

	"go.viam.com/depthfusion/components/camera"
)

// Source is an injected camera source.
type Source struct {
	camera.Source
	ReadFunc  func(ctx context.Context) (image.Image, func(), error)
	CloseFunc func(ctx context.Context) error
}

// Read calls the injected Read or the real version.
func (s *Source) Read(ctx context.Context) (image.Image, func(), error) {
	if s.ReadFunc == nil {
		return s.Source.Read(ctx)
	}
	return s.ReadFunc(ctx)
}

// Close calls the injected Close or the real version.
func (s *Source) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		if s.Source == nil {
			return nil
		}
		return s.Source.Close(ctx)
	}
	return s.CloseFunc(ctx)
}
