package fusion

import (
	"image"
	"time"

	"go.viam.com/depthfusion/rimage"
	"go.viam.com/depthfusion/rimage/transform"
)

// AnnotatedDetection is a detection mapped into view space and annotated with calibrated depth.
type AnnotatedDetection struct {
	Box        image.Rectangle `json:"box"`
	Label      string          `json:"label"`
	Confidence float64         `json:"confidence"`
	// Depth is in the configured output range.
	Depth float64 `json:"depth"`
	// DepthPoint is where the depth surface was sampled.
	DepthPoint image.Point `json:"depth_point"`
}

// Result is everything published for one cycle. It is never modified after publication.
type Result struct {
	CycleID    string                 `json:"cycle_id"`
	FrameSeq   uint64                 `json:"frame_seq"`
	CapturedAt time.Time              `json:"captured_at"`
	View       image.Point            `json:"view"`
	Range      rimage.DepthRange      `json:"range"`
	Scale      transform.ScaleFactors `json:"scale"`
	Detections []AnnotatedDetection   `json:"detections"`

	DepthLatency  time.Duration `json:"depth_latency"`
	DetectLatency time.Duration `json:"detect_latency"`
	PublishedAt   time.Time     `json:"published_at"`
}
