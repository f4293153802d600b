package fusion

import (
	"math"
	"sync"
	"time"

	"go.uber.org/atomic"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const latencyWindowSize = 64

// LatencySummary describes recent provider call durations. Timings are an observability signal
// only; nothing in the pipeline branches on them.
type LatencySummary struct {
	Samples int           `json:"samples"`
	Mean    time.Duration `json:"mean"`
	Max     time.Duration `json:"max"`
	Last    time.Duration `json:"last"`
}

// Stats is a point-in-time snapshot of the orchestrator.
type Stats struct {
	State           State  `json:"state"`
	Busy            bool   `json:"busy"`
	Admitted        uint64 `json:"admitted"`
	Dropped         uint64 `json:"dropped"`
	CaptureFailures uint64 `json:"capture_failures"`
	// ProviderFailures counts cycles where a provider returned an error, panicked or broke its
	// contract (an empty depth surface or one of the wrong size).
	ProviderFailures uint64 `json:"provider_failures"`
	// CalibrationFailures counts cycles that failed after both providers succeeded, while mapping
	// coordinates or annotating detections.
	CalibrationFailures uint64         `json:"calibration_failures"`
	Published           uint64         `json:"published"`
	DepthLatency        LatencySummary `json:"depth_latency"`
	DetectLatency       LatencySummary `json:"detect_latency"`
}

// latencyWindow is a ring of the most recent durations, in seconds.
type latencyWindow struct {
	mu      sync.Mutex
	samples []float64
	next    int
	last    time.Duration
}

func newLatencyWindow() *latencyWindow {
	return &latencyWindow{samples: make([]float64, 0, latencyWindowSize)}
}

func (w *latencyWindow) add(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = d
	if len(w.samples) < latencyWindowSize {
		w.samples = append(w.samples, d.Seconds())
		return
	}
	w.samples[w.next] = d.Seconds()
	w.next = (w.next + 1) % latencyWindowSize
}

func (w *latencyWindow) summary() LatencySummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) == 0 {
		return LatencySummary{}
	}
	return LatencySummary{
		Samples: len(w.samples),
		Mean:    secondsToDuration(stat.Mean(w.samples, nil)),
		Max:     secondsToDuration(floats.Max(w.samples)),
		Last:    w.last,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

type statsTracker struct {
	admitted            atomic.Uint64
	dropped             atomic.Uint64
	captureFailures     atomic.Uint64
	providerFailures    atomic.Uint64
	calibrationFailures atomic.Uint64
	published           atomic.Uint64
	depthLatency        *latencyWindow
	detectLatency       *latencyWindow
}

func newStatsTracker() *statsTracker {
	return &statsTracker{
		depthLatency:  newLatencyWindow(),
		detectLatency: newLatencyWindow(),
	}
}
