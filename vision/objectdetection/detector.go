package objectdetection

import (
	"context"
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Detector returns the detections found in an image.
type Detector func(context.Context, image.Image) ([]Detection, error)

// Preprocessor prepares an image before it is handed to a Detector.
type Preprocessor func(image.Image) image.Image

// Build zips up a preprocessor, detector and postprocessor into one Detector. Only the
// detector is required.
func Build(prep Preprocessor, det Detector, post Postprocessor) (Detector, error) {
	if det == nil {
		return nil, errors.New("object detection pipeline must have a Detector")
	}
	if prep == nil {
		prep = func(img image.Image) image.Image { return img }
	}
	if post == nil {
		post = func(inp []Detection) []Detection { return inp }
	}
	return func(ctx context.Context, img image.Image) ([]Detection, error) {
		detections, err := det(ctx, prep(img))
		if err != nil {
			return nil, err
		}
		return post(detections), nil
	}, nil
}

// NewNativeSpaceDetector wraps a model that only understands one input size. Each image is
// resized to width x height before inference, so the returned boxes are in that native space
// regardless of the camera resolution.
func NewNativeSpaceDetector(det Detector, width, height uint) (Detector, error) {
	if det == nil {
		return nil, errors.New("native space detector needs a Detector")
	}
	if width == 0 || height == 0 {
		return nil, errors.Errorf("native space must be non-empty, got %dx%d", width, height)
	}
	return func(ctx context.Context, img image.Image) ([]Detection, error) {
		if img == nil || img.Bounds().Empty() {
			return nil, errors.New("cannot detect objects in an empty image")
		}
		if uint(img.Bounds().Dx()) != width || uint(img.Bounds().Dy()) != height {
			img = resize.Resize(width, height, img, resize.Bilinear)
		}
		return det(ctx, img)
	}, nil
}
