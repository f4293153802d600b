// Package config holds the configuration of the frame fusion pipeline.
package config

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/depthfusion/logging"
	"go.viam.com/depthfusion/rimage"
	"go.viam.com/depthfusion/rimage/transform"
	"go.viam.com/depthfusion/utils"
	"go.viam.com/depthfusion/vision/objectdetection"
)

// Defaults for the fusion pipeline. The scale correction and offsets are empirical calibration
// parameters for the detector/camera pair and are expected to be retuned per device.
const (
	DefaultDetectorWidth        = 300
	DefaultDetectorHeight       = 300
	DefaultDepthWidth           = 256
	DefaultDepthHeight          = 256
	DefaultScaleCorrection      = 0.7
	DefaultOffsetX              = 20
	DefaultOffsetY              = 10
	DefaultDepthScaleCorrection = 1.0
	DefaultOutputMin            = 0.0
	DefaultOutputMax            = 20.0
	DefaultSampleRadius         = rimage.DefaultSampleRadius
	DefaultConfidenceThreshold  = 0.5
	DefaultMaxResults           = 10
)

// FusionConfig describes the fixed geometry and calibration of one fusion pipeline.
type FusionConfig struct {
	DetectorWidth  int `json:"detector_width"`
	DetectorHeight int `json:"detector_height"`
	DepthWidth     int `json:"depth_width"`
	DepthHeight    int `json:"depth_height"`

	ScaleCorrection      float64 `json:"scale_correction"`
	OffsetX              int     `json:"offset_x"`
	OffsetY              int     `json:"offset_y"`
	DepthScaleCorrection float64 `json:"depth_scale_correction"`

	OutputMin    float64 `json:"output_min"`
	OutputMax    float64 `json:"output_max"`
	SampleRadius int     `json:"sample_radius"`
	// DegenerateDepth is reported for every detection when the depth surface is flat.
	// When unset the midpoint of the output range is used.
	DegenerateDepth *float64 `json:"degenerate_depth,omitempty"`

	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// Labels is the allow-list of detector labels. Empty allows every label.
	Labels     []string `json:"labels,omitempty"`
	MaxResults int      `json:"max_results"`

	LogLevel string `json:"log_level,omitempty"`
}

// Defaults returns a config populated with the default constants.
func Defaults() *FusionConfig {
	return &FusionConfig{
		DetectorWidth:        DefaultDetectorWidth,
		DetectorHeight:       DefaultDetectorHeight,
		DepthWidth:           DefaultDepthWidth,
		DepthHeight:          DefaultDepthHeight,
		ScaleCorrection:      DefaultScaleCorrection,
		OffsetX:              DefaultOffsetX,
		OffsetY:              DefaultOffsetY,
		DepthScaleCorrection: DefaultDepthScaleCorrection,
		OutputMin:            DefaultOutputMin,
		OutputMax:            DefaultOutputMax,
		SampleRadius:         DefaultSampleRadius,
		ConfidenceThreshold:  DefaultConfidenceThreshold,
		MaxResults:           DefaultMaxResults,
	}
}

// Validate ensures all parts of the config are valid.
func (conf *FusionConfig) Validate(path string) error {
	for _, dim := range []struct {
		name  string
		value int
	}{
		{"detector_width", conf.DetectorWidth},
		{"detector_height", conf.DetectorHeight},
		{"depth_width", conf.DepthWidth},
		{"depth_height", conf.DepthHeight},
	} {
		if dim.value == 0 {
			return goutils.NewConfigValidationFieldRequiredError(path, dim.name)
		}
		if dim.value < 0 {
			return goutils.NewConfigValidationError(path, errors.Errorf("%s must be positive, got %d", dim.name, dim.value))
		}
	}
	if conf.ScaleCorrection <= 0 || conf.ScaleCorrection > 1 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("scale_correction must be in (0, 1], got %v", conf.ScaleCorrection))
	}
	if conf.DepthScaleCorrection <= 0 || !utils.IsFinite(conf.DepthScaleCorrection) {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("depth_scale_correction must be positive, got %v", conf.DepthScaleCorrection))
	}
	if !utils.IsFinite(conf.OutputMin) || !utils.IsFinite(conf.OutputMax) || conf.OutputMax <= conf.OutputMin {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("output_max (%v) must be greater than output_min (%v)", conf.OutputMax, conf.OutputMin))
	}
	if conf.DegenerateDepth != nil && !utils.IsFinite(*conf.DegenerateDepth) {
		return goutils.NewConfigValidationError(path, errors.New("degenerate_depth must be finite"))
	}
	if conf.SampleRadius < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("sample_radius cannot be negative, got %d", conf.SampleRadius))
	}
	if conf.ConfidenceThreshold < 0 || conf.ConfidenceThreshold > 1 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("confidence_threshold must be in [0, 1], got %v", conf.ConfidenceThreshold))
	}
	if conf.MaxResults < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("max_results cannot be negative, got %d", conf.MaxResults))
	}
	if conf.LogLevel != "" {
		if _, err := logging.LevelFromString(conf.LogLevel); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	return nil
}

// DetectorDims is the detector-native coordinate space.
func (conf *FusionConfig) DetectorDims() image.Point {
	return image.Pt(conf.DetectorWidth, conf.DetectorHeight)
}

// DepthDims is the depth-surface coordinate space.
func (conf *FusionConfig) DepthDims() image.Point {
	return image.Pt(conf.DepthWidth, conf.DepthHeight)
}

// ViewCalibration returns the detector to view correction.
func (conf *FusionConfig) ViewCalibration() transform.ViewCalibration {
	return transform.ViewCalibration{
		Correction: conf.ScaleCorrection,
		OffsetX:    conf.OffsetX,
		OffsetY:    conf.OffsetY,
	}
}

// DepthCalibration returns the view to depth correction.
func (conf *FusionConfig) DepthCalibration() transform.DepthCalibration {
	return transform.DepthCalibration{Correction: conf.DepthScaleCorrection}
}

// OutputRange is the range calibrated depth is reported in.
func (conf *FusionConfig) OutputRange() rimage.OutputRange {
	return rimage.OutputRange{Min: conf.OutputMin, Max: conf.OutputMax}
}

// DegenerateValue is the depth reported when the depth surface is flat.
func (conf *FusionConfig) DegenerateValue() float64 {
	if conf.DegenerateDepth != nil {
		return *conf.DegenerateDepth
	}
	return conf.OutputRange().Midpoint()
}

// Postprocessor applies the confidence threshold, label allow-list and result cap, in that order.
func (conf *FusionConfig) Postprocessor() objectdetection.Postprocessor {
	return objectdetection.Chain(
		objectdetection.NewScoreFilter(conf.ConfidenceThreshold),
		objectdetection.NewLabelFilter(conf.Labels),
		objectdetection.NewMaxCountFilter(conf.MaxResults),
	)
}

// Read loads a JSON config file on top of the defaults and validates it.
func Read(path string) (*FusionConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read fusion config %q", path)
	}
	conf := Defaults()
	if err := json.Unmarshal(data, conf); err != nil {
		return nil, errors.Wrapf(err, "cannot parse fusion config %q", path)
	}
	if err := conf.Validate("fusion"); err != nil {
		return nil, err
	}
	return conf, nil
}

// FromAttributes decodes an attribute map, keyed by the json field names, on top of the
// defaults and validates the result.
func FromAttributes(attributes map[string]interface{}) (*FusionConfig, error) {
	conf := Defaults()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: conf})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "cannot decode fusion attributes")
	}
	if err := conf.Validate("fusion"); err != nil {
		return nil, err
	}
	return conf, nil
}
