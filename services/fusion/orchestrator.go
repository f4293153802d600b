// Package fusion runs the frame fusion pipeline: it admits one frame at a time, runs the depth
// and object providers on it, annotates every detection with calibrated depth and publishes
// the full set to a sink.
package fusion

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/depthfusion/components/camera"
	"go.viam.com/depthfusion/config"
	"go.viam.com/depthfusion/logging"
	"go.viam.com/depthfusion/rimage"
	"go.viam.com/depthfusion/rimage/transform"
	"go.viam.com/depthfusion/utils"
	"go.viam.com/depthfusion/vision/objectdetection"
)

// Orchestrator sequences one fusion cycle per admitted frame. Submit is the delivery-side entry
// point; the cycle itself runs on a worker goroutine.
//
// No timeout is applied to provider calls. A provider that never returns keeps the gate held
// and every later frame is dropped.
type Orchestrator struct {
	conf    *config.FusionConfig
	depth   DepthProvider
	objects ObjectProvider
	sink    Sink
	logger  logging.Logger
	post    objectdetection.Postprocessor

	gate    Gate
	state   atomic.Int32
	closed  atomic.Bool
	workers utils.StoppableWorkers
	stats   *statsTracker

	// cycleDone is signalled whenever a cycle releases the gate.
	cycleDone chan struct{}
}

// New validates conf and returns an idle orchestrator. A nil logger falls back to the global logger.
func New(
	conf *config.FusionConfig,
	depth DepthProvider,
	objects ObjectProvider,
	sink Sink,
	logger logging.Logger,
) (*Orchestrator, error) {
	if conf == nil {
		return nil, errors.New("fusion orchestrator needs a config")
	}
	if err := conf.Validate("fusion"); err != nil {
		return nil, err
	}
	if depth == nil {
		return nil, errors.New("fusion orchestrator needs a depth provider")
	}
	if objects == nil {
		return nil, errors.New("fusion orchestrator needs an object provider")
	}
	if sink == nil {
		return nil, errors.New("fusion orchestrator needs a result sink")
	}
	if logger == nil {
		logger = logging.Global().Sublogger("fusion")
	}
	return &Orchestrator{
		conf:      conf,
		depth:     depth,
		objects:   objects,
		sink:      sink,
		logger:    logger,
		post:      conf.Postprocessor(),
		workers:   utils.NewStoppableWorkers(),
		stats:     newStatsTracker(),
		cycleDone: make(chan struct{}, 1),
	}, nil
}

// Submit offers a frame to the pipeline and reports whether it was admitted. The orchestrator
// owns the frame from this call on: rejected frames are released immediately, admitted frames
// once their cycle ends. Frames without image data are rejected without touching the gate.
func (o *Orchestrator) Submit(frame *camera.Frame) bool {
	if o.closed.Load() {
		o.logger.Debugw("rejecting frame", "error", ErrClosed)
		frame.Release()
		return false
	}
	if !frame.HasData() {
		o.stats.captureFailures.Inc()
		o.logger.Debugw("skipping frame", "error", ErrNoImageData)
		frame.Release()
		return false
	}
	if !o.gate.TryAcquire() {
		o.stats.dropped.Inc()
		o.logger.Debugw("dropping frame, cycle in flight", "frame", frame.Seq)
		frame.Release()
		return false
	}

	o.setState(StateAdmitted)
	o.stats.admitted.Inc()
	if !o.workers.AddWorkers(func(ctx context.Context) { o.runCycle(ctx, frame) }) {
		// closed between the check above and here
		o.finishCycle(frame)
		return false
	}
	return true
}

// State returns where the current cycle is, or StateIdle.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Stats returns a snapshot of counters and provider timings.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		State:               o.State(),
		Busy:                o.gate.Busy(),
		Admitted:            o.stats.admitted.Load(),
		Dropped:             o.stats.dropped.Load(),
		CaptureFailures:     o.stats.captureFailures.Load(),
		ProviderFailures:    o.stats.providerFailures.Load(),
		CalibrationFailures: o.stats.calibrationFailures.Load(),
		Published:           o.stats.published.Load(),
		DepthLatency:        o.stats.depthLatency.summary(),
		DetectLatency:       o.stats.detectLatency.summary(),
	}
}

// Close stops admitting frames and waits for an in-flight cycle to run to completion, including
// its publication. ctx bounds the wait: once it is done the providers' context is cancelled,
// Close waits for the cycle to unwind and returns ctx's error.
func (o *Orchestrator) Close(ctx context.Context) error {
	if o.closed.Swap(true) {
		return nil
	}
	// Holding the gate guarantees no cycle is running and none can start.
	var err error
	for err == nil && !o.gate.TryAcquire() {
		select {
		case <-o.cycleDone:
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "fusion cycle still running at close")
		}
	}
	o.workers.Stop()
	if err == nil {
		o.gate.Release()
	}
	return err
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

func (o *Orchestrator) finishCycle(frame *camera.Frame) {
	frame.Release()
	o.setState(StateIdle)
	o.gate.Release()
	select {
	case o.cycleDone <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) runCycle(ctx context.Context, frame *camera.Frame) {
	defer o.finishCycle(frame)

	cycleID := uuid.NewString()
	res, err := o.fuse(ctx, cycleID, frame)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			o.stats.providerFailures.Inc()
		} else {
			o.stats.calibrationFailures.Inc()
		}
		o.logger.Warnw("fusion cycle failed, skipping publication", "cycle", cycleID, "frame", frame.Seq, "error", err)
		return
	}

	o.setState(StatePublished)
	if err := o.publish(res); err != nil {
		o.logger.Errorw("result sink failed", "cycle", cycleID, "error", err)
		return
	}
	o.stats.published.Inc()
	o.logger.Debugw("published fusion result",
		"cycle", cycleID,
		"frame", frame.Seq,
		"detections", len(res.Detections),
		"depth_latency", res.DepthLatency,
		"detect_latency", res.DetectLatency)
}

func (o *Orchestrator) publish(res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	res.PublishedAt = time.Now()
	o.sink.Publish(res)
	return nil
}

// fuse runs inference and calibration for one frame.
func (o *Orchestrator) fuse(ctx context.Context, cycleID string, frame *camera.Frame) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, recoveredError(r)
		}
	}()
	o.setState(StateInferring)

	var (
		surface                     *rimage.DepthSurface
		detections                  []objectdetection.Detection
		depthLatency, detectLatency time.Duration
		depthErr, detectErr         error
	)
	var group errgroup.Group
	group.Go(func() error {
		surface, depthLatency, depthErr = o.estimateDepth(ctx, frame.Image)
		return depthErr
	})
	group.Go(func() error {
		detections, detectLatency, detectErr = o.detectObjects(ctx, frame.Image)
		return detectErr
	})
	if err := group.Wait(); err != nil {
		return nil, multierr.Combine(depthErr, detectErr)
	}
	o.stats.depthLatency.add(depthLatency)
	o.stats.detectLatency.add(detectLatency)
	o.logger.Debugw("providers finished", "cycle", cycleID, "depth_latency", depthLatency, "detect_latency", detectLatency)

	o.setState(StateCalibrating)
	if !surface.HasData() {
		return nil, newProviderError(DepthProviderName, rimage.ErrEmptySurface)
	}
	depthDims := o.conf.DepthDims()
	if surface.Width() != depthDims.X || surface.Height() != depthDims.Y {
		return nil, newProviderError(DepthProviderName, errors.Errorf(
			"depth surface is %dx%d, expected %dx%d", surface.Width(), surface.Height(), depthDims.X, depthDims.Y))
	}
	view := frame.Dims()
	scale, err := transform.NewScaleFactors(o.conf.DetectorDims(), view, depthDims)
	if err != nil {
		return nil, err
	}
	depthRange, err := rimage.ObserveRange(surface)
	if err != nil {
		return nil, newProviderError(DepthProviderName, err)
	}
	if depthRange.Degenerate() {
		o.logger.Debugw("flat depth surface, reporting fallback depth",
			"cycle", cycleID, "value", depthRange.Min, "fallback", o.conf.DegenerateValue())
	}

	return &Result{
		CycleID:       cycleID,
		FrameSeq:      frame.Seq,
		CapturedAt:    frame.CapturedAt,
		View:          view,
		Range:         depthRange,
		Scale:         scale,
		Detections:    o.annotate(detections, surface, depthRange, scale, view),
		DepthLatency:  depthLatency,
		DetectLatency: detectLatency,
	}, nil
}

// annotate calibrates each detection independently. Output order follows input order.
func (o *Orchestrator) annotate(
	detections []objectdetection.Detection,
	surface *rimage.DepthSurface,
	depthRange rimage.DepthRange,
	scale transform.ScaleFactors,
	view image.Point,
) []AnnotatedDetection {
	kept := o.post(nonNil(detections))
	annotated := make([]AnnotatedDetection, 0, len(kept))
	viewCal := o.conf.ViewCalibration()
	depthCal := o.conf.DepthCalibration()
	depthDims := o.conf.DepthDims()
	out := o.conf.OutputRange()
	fallback := o.conf.DegenerateValue()
	for _, d := range kept {
		box := scale.ToView(*d.BoundingBox(), view, viewCal)
		pt := scale.ToDepth(box, depthDims, depthCal)
		raw := rimage.SampleDepth(surface, pt.X, pt.Y, o.conf.SampleRadius)
		annotated = append(annotated, AnnotatedDetection{
			Box:        box,
			Label:      d.Label(),
			Confidence: d.Score(),
			Depth:      rimage.NormalizeWithFallback(raw, depthRange, out, fallback),
			DepthPoint: pt,
		})
	}
	return annotated
}

func nonNil(detections []objectdetection.Detection) []objectdetection.Detection {
	out := make([]objectdetection.Detection, 0, len(detections))
	for _, d := range detections {
		if d != nil && d.BoundingBox() != nil {
			out = append(out, d)
		}
	}
	return out
}

func (o *Orchestrator) estimateDepth(ctx context.Context, img image.Image) (
	surface *rimage.DepthSurface, latency time.Duration, err error,
) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
		latency = time.Since(start)
		if err != nil {
			err = newProviderError(DepthProviderName, err)
		}
	}()
	surface, err = o.depth.Estimate(ctx, img)
	return surface, latency, err
}

func (o *Orchestrator) detectObjects(ctx context.Context, img image.Image) (
	detections []objectdetection.Detection, latency time.Duration, err error,
) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
		latency = time.Since(start)
		if err != nil {
			err = newProviderError(ObjectProviderName, err)
		}
	}()
	detections, err = o.objects.Detect(ctx, img)
	return detections, latency, err
}
