// Package transform maps bounding boxes between the three coordinate spaces used by the fusion
// pipeline: detector-native space, camera view space and depth-surface space.
//
// The two mappings point in opposite directions (detector to view scales by view/detector, view
// to depth scales by depth/view) and are tuned separately, so they are kept as two functions with
// their own calibration values rather than folded into one formula.
package transform

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/depthfusion/utils"
)

// ErrDegenerateDimensions is returned when any reference frame has a zero or negative side.
var ErrDegenerateDimensions = errors.New("coordinate space dimensions must be positive")

// ViewCalibration corrects systematic error between the detector's reference frame and the
// camera view. These values are empirical calibration parameters meant to be tuned per device.
type ViewCalibration struct {
	// Correction multiplies both axis scale factors. Expected in (0, 1].
	Correction float64 `json:"correction"`
	// OffsetX and OffsetY are added after scaling, in view pixels. They may be negative.
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`
}

// DepthCalibration corrects the view to depth-surface mapping.
type DepthCalibration struct {
	Correction float64 `json:"correction"`
}

// ScaleFactors are the per-axis ratios for one frame. They depend on the frame size, which can
// change between frames, so they are rebuilt every cycle.
type ScaleFactors struct {
	DetectorToViewX float64 `json:"detector_to_view_x"`
	DetectorToViewY float64 `json:"detector_to_view_y"`
	ViewToDepthX    float64 `json:"view_to_depth_x"`
	ViewToDepthY    float64 `json:"view_to_depth_y"`
}

func checkDims(name string, dims image.Point) error {
	if dims.X <= 0 || dims.Y <= 0 {
		return errors.Wrapf(ErrDegenerateDimensions, "%s space is %dx%d", name, dims.X, dims.Y)
	}
	return nil
}

// NewScaleFactors computes the detector to view and view to depth ratios.
func NewScaleFactors(detector, view, depth image.Point) (ScaleFactors, error) {
	for _, check := range []struct {
		name string
		dims image.Point
	}{{"detector", detector}, {"view", view}, {"depth", depth}} {
		if err := checkDims(check.name, check.dims); err != nil {
			return ScaleFactors{}, err
		}
	}
	return ScaleFactors{
		DetectorToViewX: float64(view.X) / float64(detector.X),
		DetectorToViewY: float64(view.Y) / float64(detector.Y),
		ViewToDepthX:    float64(depth.X) / float64(view.X),
		ViewToDepthY:    float64(depth.Y) / float64(view.Y),
	}, nil
}

// ToView maps a detector-space box into a view of the given size. Coordinates are truncated
// toward zero and then clamped to [0, view.X] x [0, view.Y].
func (sf ScaleFactors) ToView(box image.Rectangle, view image.Point, cal ViewCalibration) image.Rectangle {
	sx := sf.DetectorToViewX * cal.Correction
	sy := sf.DetectorToViewY * cal.Correction
	mapX := func(x int) int {
		return utils.ClampInt(int(float64(x)*sx+float64(cal.OffsetX)), 0, view.X)
	}
	mapY := func(y int) int {
		return utils.ClampInt(int(float64(y)*sy+float64(cal.OffsetY)), 0, view.Y)
	}
	return image.Rectangle{
		Min: image.Point{mapX(box.Min.X), mapY(box.Min.Y)},
		Max: image.Point{mapX(box.Max.X), mapY(box.Max.Y)},
	}.Canon()
}

// ToDepth maps the centre of a view-space box onto a depth surface of the given size. The
// result is truncated and clamped onto the surface.
func (sf ScaleFactors) ToDepth(box image.Rectangle, depth image.Point, cal DepthCalibration) image.Point {
	cx := float64(box.Min.X+box.Max.X) / 2
	cy := float64(box.Min.Y+box.Max.Y) / 2
	return image.Point{
		X: utils.ClampInt(int(cx*sf.ViewToDepthX*cal.Correction), 0, depth.X-1),
		Y: utils.ClampInt(int(cy*sf.ViewToDepthY*cal.Correction), 0, depth.Y-1),
	}
}

// ToViewSpace maps a box reported in detector-native space into view space.
func ToViewSpace(box image.Rectangle, detector, view image.Point, cal ViewCalibration) (image.Rectangle, error) {
	if err := checkDims("detector", detector); err != nil {
		return image.Rectangle{}, err
	}
	if err := checkDims("view", view); err != nil {
		return image.Rectangle{}, err
	}
	sf := ScaleFactors{
		DetectorToViewX: float64(view.X) / float64(detector.X),
		DetectorToViewY: float64(view.Y) / float64(detector.Y),
	}
	return sf.ToView(box, view, cal), nil
}

// ToDepthSpace maps the centre of a view-space box into depth-surface space.
func ToDepthSpace(box image.Rectangle, view, depth image.Point, cal DepthCalibration) (image.Point, error) {
	if err := checkDims("view", view); err != nil {
		return image.Point{}, err
	}
	if err := checkDims("depth", depth); err != nil {
		return image.Point{}, err
	}
	sf := ScaleFactors{
		ViewToDepthX: float64(depth.X) / float64(view.X),
		ViewToDepthY: float64(depth.Y) / float64(view.Y),
	}
	return sf.ToDepth(box, depth, cal), nil
}
