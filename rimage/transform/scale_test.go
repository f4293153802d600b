package transform

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

var (
	detectorDims = image.Pt(300, 300)
	viewDims     = image.Pt(640, 480)
	depthDims    = image.Pt(256, 256)
)

func TestNewScaleFactors(t *testing.T) {
	sf, err := NewScaleFactors(detectorDims, viewDims, depthDims)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sf.DetectorToViewX, test.ShouldAlmostEqual, 640.0/300.0)
	test.That(t, sf.DetectorToViewY, test.ShouldAlmostEqual, 1.6)
	test.That(t, sf.ViewToDepthX, test.ShouldAlmostEqual, 0.4)
	test.That(t, sf.ViewToDepthY, test.ShouldAlmostEqual, 256.0/480.0)

	for _, tc := range []struct {
		detector, view, depth image.Point
		msg                   string
	}{
		{image.Pt(0, 300), viewDims, depthDims, "detector space is 0x300"},
		{detectorDims, image.Pt(640, 0), depthDims, "view space is 640x0"},
		{detectorDims, viewDims, image.Pt(-1, 256), "depth space is -1x256"},
	} {
		_, err := NewScaleFactors(tc.detector, tc.view, tc.depth)
		test.That(t, errors.Is(err, ErrDegenerateDimensions), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
	}
}

func TestToViewSpace(t *testing.T) {
	box := image.Rect(30, 30, 90, 90)

	t.Run("identity calibration", func(t *testing.T) {
		out, err := ToViewSpace(box, detectorDims, viewDims, ViewCalibration{Correction: 1})
		test.That(t, err, test.ShouldBeNil)
		// 30*640/300 = 64, 90*640/300 = 192, 30*1.6 = 48, 90*1.6 = 144
		test.That(t, out, test.ShouldResemble, image.Rect(64, 48, 192, 144))
	})

	t.Run("correction truncates", func(t *testing.T) {
		out, err := ToViewSpace(box, detectorDims, viewDims, ViewCalibration{Correction: 0.7})
		test.That(t, err, test.ShouldBeNil)
		// 44.8 -> 44, 134.4 -> 134, 33.6 -> 33, 100.8 -> 100
		test.That(t, out, test.ShouldResemble, image.Rect(44, 33, 134, 100))
	})

	t.Run("offsets applied after scaling", func(t *testing.T) {
		out, err := ToViewSpace(box, detectorDims, viewDims, ViewCalibration{Correction: 0.7, OffsetX: 20, OffsetY: -10})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldResemble, image.Rect(64, 23, 154, 90))
	})

	t.Run("off-frame boxes are clamped", func(t *testing.T) {
		out, err := ToViewSpace(image.Rect(-20, 250, 400, 330), detectorDims, viewDims, ViewCalibration{Correction: 1, OffsetY: 40})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out.Min.X, test.ShouldEqual, 0)
		test.That(t, out.Max.X, test.ShouldEqual, 640)
		test.That(t, out.Max.Y, test.ShouldEqual, 480)
		test.That(t, out.In(image.Rect(0, 0, 640, 480)), test.ShouldBeTrue)
	})

	t.Run("zero view is rejected", func(t *testing.T) {
		_, err := ToViewSpace(box, detectorDims, image.Point{}, ViewCalibration{Correction: 1})
		test.That(t, errors.Is(err, ErrDegenerateDimensions), test.ShouldBeTrue)
		_, err = ToViewSpace(box, image.Point{}, viewDims, ViewCalibration{Correction: 1})
		test.That(t, errors.Is(err, ErrDegenerateDimensions), test.ShouldBeTrue)
	})
}

func TestToDepthSpace(t *testing.T) {
	pt, err := ToDepthSpace(image.Rect(64, 48, 192, 144), viewDims, depthDims, DepthCalibration{Correction: 1})
	test.That(t, err, test.ShouldBeNil)
	// centre (128, 96) -> (51.2, 51.2)
	test.That(t, pt, test.ShouldResemble, image.Pt(51, 51))

	// the far corner of the view stays on the surface
	pt, err = ToDepthSpace(image.Rect(640, 480, 640, 480), viewDims, depthDims, DepthCalibration{Correction: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt, test.ShouldResemble, image.Pt(255, 255))

	_, err = ToDepthSpace(image.Rect(0, 0, 1, 1), image.Pt(0, 0), depthDims, DepthCalibration{Correction: 1})
	test.That(t, errors.Is(err, ErrDegenerateDimensions), test.ShouldBeTrue)
	_, err = ToDepthSpace(image.Rect(0, 0, 1, 1), viewDims, image.Pt(256, 0), DepthCalibration{Correction: 1})
	test.That(t, errors.Is(err, ErrDegenerateDimensions), test.ShouldBeTrue)
}

func TestTransformsAreDeterministic(t *testing.T) {
	cal := ViewCalibration{Correction: 0.7, OffsetX: 20, OffsetY: 10}
	depthCal := DepthCalibration{Correction: 1}
	boxes := []image.Rectangle{
		image.Rect(30, 30, 90, 90),
		image.Rect(0, 0, 300, 300),
		image.Rect(151, 7, 152, 299),
	}
	for _, box := range boxes {
		view1, err := ToViewSpace(box, detectorDims, viewDims, cal)
		test.That(t, err, test.ShouldBeNil)
		pt1, err := ToDepthSpace(view1, viewDims, depthDims, depthCal)
		test.That(t, err, test.ShouldBeNil)
		for i := 0; i < 5; i++ {
			view2, err := ToViewSpace(box, detectorDims, viewDims, cal)
			test.That(t, err, test.ShouldBeNil)
			pt2, err := ToDepthSpace(view2, viewDims, depthDims, depthCal)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, view2, test.ShouldResemble, view1)
			test.That(t, pt2, test.ShouldResemble, pt1)
		}

		// The method form agrees with the free functions.
		sf, err := NewScaleFactors(detectorDims, viewDims, depthDims)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sf.ToView(box, viewDims, cal), test.ShouldResemble, view1)
		test.That(t, sf.ToDepth(view1, depthDims, depthCal), test.ShouldResemble, pt1)
	}
}
