// Package camera defines the frames that feed the fusion pipeline and the delivery loop that
// pulls them from a source.
package camera

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/depthfusion/logging"
)

// Source produces images. The returned release function must be called once the image is no
// longer needed.
type Source interface {
	Read(ctx context.Context) (image.Image, func(), error)
	Close(ctx context.Context) error
}

// Frame is one captured image. A frame is immutable once captured; whoever holds it last calls
// Release.
type Frame struct {
	Image      image.Image
	Seq        uint64
	CapturedAt time.Time

	releaseOnce sync.Once
	release     func()
}

// NewFrame wraps a captured image. release may be nil.
func NewFrame(img image.Image, seq uint64, capturedAt time.Time, release func()) *Frame {
	return &Frame{Image: img, Seq: seq, CapturedAt: capturedAt, release: release}
}

// HasData reports whether the frame carries a non-empty image.
func (f *Frame) HasData() bool {
	return f != nil && f.Image != nil && !f.Image.Bounds().Empty()
}

// Width of the frame in pixels.
func (f *Frame) Width() int {
	if !f.HasData() {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height of the frame in pixels.
func (f *Frame) Height() int {
	if !f.HasData() {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Dims is the view space for this frame.
func (f *Frame) Dims() image.Point {
	return image.Pt(f.Width(), f.Height())
}

// Release frees the underlying image resource. Safe to call more than once.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	f.releaseOnce.Do(func() {
		if f.release != nil {
			f.release()
		}
	})
}

// FrameHandler receives each captured frame and takes ownership of it. It reports whether the
// frame was accepted for processing.
type FrameHandler func(*Frame) bool

// StreamOptions configures Stream.
type StreamOptions struct {
	// Interval between reads.
	Interval time.Duration
	// MaxFrames stops the stream after that many frames were handed over. 0 means unlimited.
	MaxFrames int
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// StreamStats counts what happened to each tick of a stream.
type StreamStats struct {
	Delivered       int
	Accepted        int
	CaptureFailures int
}

// Stream reads one frame per tick from src and hands it to handler until ctx is done or
// MaxFrames frames were delivered. Read errors and empty images are logged and skipped without
// calling handler. Frames are delivered strictly one after another.
func Stream(
	ctx context.Context,
	src Source,
	opts StreamOptions,
	logger logging.Logger,
	handler FrameHandler,
) (StreamStats, error) {
	var stats StreamStats
	if src == nil {
		return stats, errors.New("stream needs a source")
	}
	if handler == nil {
		return stats, errors.New("stream needs a frame handler")
	}
	if opts.Interval <= 0 {
		return stats, errors.Errorf("stream interval must be positive, got %v", opts.Interval)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	ticker := clk.Ticker(opts.Interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return stats, nil
		case <-ticker.C:
		}

		img, release, err := src.Read(ctx)
		if err != nil || img == nil || img.Bounds().Empty() {
			stats.CaptureFailures++
			if release != nil {
				release()
			}
			if err == nil {
				err = errors.New("no image data")
			}
			logger.Debugw("skipping frame", "error", err)
			continue
		}

		seq++
		stats.Delivered++
		if handler(NewFrame(img, seq, clk.Now(), release)) {
			stats.Accepted++
		}
		if opts.MaxFrames > 0 && stats.Delivered >= opts.MaxFrames {
			return stats, nil
		}
	}
}
