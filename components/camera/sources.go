package camera

import (
	"context"
	"image"
	// register decoders for FileSource.
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// StaticSource is a fixed, stored image. Used primarily for testing.
type StaticSource struct {
	Img image.Image
}

// Read returns the stored image.
func (ss *StaticSource) Read(ctx context.Context) (image.Image, func(), error) {
	return ss.Img, func() {}, nil
}

// Close does nothing.
func (ss *StaticSource) Close(ctx context.Context) error {
	return nil
}

// FileSource decodes an image file from disk on every read. Supported formats are png, jpeg,
// bmp, tiff and webp.
type FileSource struct {
	Path string
}

// NewImageFromFile decodes the image stored at path.
func NewImageFromFile(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		//nolint:errcheck
		f.Close()
	}()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %q", path)
	}
	return img, nil
}

// Read decodes the file.
func (fs *FileSource) Read(ctx context.Context) (image.Image, func(), error) {
	img, err := NewImageFromFile(fs.Path)
	if err != nil {
		return nil, nil, err
	}
	return img, func() {}, nil
}

// Close does nothing.
func (fs *FileSource) Close(ctx context.Context) error {
	return nil
}
