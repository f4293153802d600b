package fake

import (
	"context"
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestDepthProvider(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 32))
	for x := 0; x < 64; x++ {
		for y := 0; y < 32; y++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 4)})
		}
	}
	p := &DepthProvider{Width: 16, Height: 16}
	ds, err := p.Estimate(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ds.Width(), test.ShouldEqual, 16)
	test.That(t, ds.Height(), test.ShouldEqual, 16)
	test.That(t, ds.Get(15, 8), test.ShouldBeGreaterThan, ds.Get(0, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Estimate(ctx, img)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestObjectProvider(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	for x := 0; x < 200; x++ {
		for y := 0; y < 100; y++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for x := 100; x < 140; x++ {
		for y := 40; y < 80; y++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	p, err := NewObjectProvider(100, 100, 64, "blob")
	test.That(t, err, test.ShouldBeNil)
	dets, err := p.Detect(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets, test.ShouldHaveLength, 1)
	test.That(t, dets[0].Label(), test.ShouldEqual, "blob")

	// boxes are reported in the 100x100 native space
	box := *dets[0].BoundingBox()
	test.That(t, box.In(image.Rect(0, 0, 100, 100)), test.ShouldBeTrue)
	test.That(t, box.Min.X, test.ShouldBeBetweenOrEqual, 48, 52)
	test.That(t, box.Max.X, test.ShouldBeBetweenOrEqual, 68, 72)
	test.That(t, box.Min.Y, test.ShouldBeBetweenOrEqual, 38, 42)
	test.That(t, box.Max.Y, test.ShouldBeBetweenOrEqual, 78, 82)

	_, err = NewObjectProvider(0, 100, 64, "blob")
	test.That(t, err, test.ShouldNotBeNil)
}
