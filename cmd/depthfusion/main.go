// Package main runs the frame fusion pipeline against an image file, using model-free providers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/depthfusion/components/camera"
	"go.viam.com/depthfusion/config"
	"go.viam.com/depthfusion/logging"
	"go.viam.com/depthfusion/services/fusion"
	"go.viam.com/depthfusion/services/fusion/fake"
	"go.viam.com/depthfusion/utils"
)

const (
	flagImage     = "image"
	flagConfig    = "config"
	flagInterval  = "interval"
	flagFrames    = "frames"
	flagDebug     = "debug"
	flagJSON      = "json"
	flagThreshold = "dark-threshold"
	flagLabel     = "label"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(w io.Writer) *cli.App {
	return &cli.App{
		Name:   "depthfusion",
		Usage:  "annotate object detections with calibrated depth",
		Writer: w,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "stream an image file through the fusion pipeline",
				UsageText: "depthfusion run --image <file> [--config <file>] [--interval 100ms] [--frames N]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagImage,
						Required: true,
						Usage:    "image `FILE` to read every tick (png, jpeg, bmp, tiff, webp)",
					},
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load fusion configuration from JSON `FILE`",
					},
					&cli.DurationFlag{
						Name:  flagInterval,
						Value: 100 * time.Millisecond,
						Usage: "time between frames",
					},
					&cli.IntFlag{
						Name:  flagFrames,
						Value: 1,
						Usage: "number of frames to deliver, 0 runs until interrupted",
					},
					&cli.Float64Flag{
						Name:  flagThreshold,
						Value: 64,
						Usage: "luminance (0-256) below which pixels count as an object",
					},
					&cli.StringFlag{
						Name:  flagLabel,
						Value: "object",
						Usage: "label given to every detection",
					},
					&cli.BoolFlag{
						Name:  flagDebug,
						Usage: "enable debug logging",
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "write each result as a JSON line instead of a table",
					},
				},
				Action: runAction,
			},
			{
				Name:  "defaults",
				Usage: "print the default fusion configuration",
				Action: func(c *cli.Context) error {
					enc := json.NewEncoder(c.App.Writer)
					enc.SetIndent("", "  ")
					return enc.Encode(config.Defaults())
				},
			},
		},
	}
}

func runAction(c *cli.Context) error {
	conf := config.Defaults()
	if path := c.String(flagConfig); path != "" {
		var err error
		if conf, err = config.Read(path); err != nil {
			return err
		}
	}

	logger := logging.NewLogger("depthfusion")
	if conf.LogLevel != "" {
		level, err := logging.LevelFromString(conf.LogLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()

	// fail fast on an unreadable file instead of logging a capture failure every tick
	if _, err := camera.NewImageFromFile(c.String(flagImage)); err != nil {
		return err
	}

	depth := &fake.DepthProvider{Width: conf.DepthWidth, Height: conf.DepthHeight}
	objects, err := fake.NewObjectProvider(
		uint(conf.DetectorWidth), uint(conf.DetectorHeight), c.Float64(flagThreshold), c.String(flagLabel))
	if err != nil {
		return err
	}

	var (
		sink    fusion.Sink
		mailbox *fusion.MailboxSink
	)
	if c.Bool(flagJSON) {
		sink = fusion.NewWriterSink(c.App.Writer, logger.Sublogger("sink"))
	} else {
		mailbox = fusion.NewMailboxSink()
		sink = mailbox
	}

	orch, err := fusion.New(conf, depth, objects, sink, logger.Sublogger("fusion"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	render := utils.NewStoppableWorkers()
	if mailbox != nil {
		render.AddWorkers(func(ctx context.Context) {
			for {
				select {
				case <-ctx.Done():
					return
				case res := <-mailbox.Updates():
					fmt.Fprintln(c.App.Writer, renderResult(res))
				}
			}
		})
	}

	src := &camera.FileSource{Path: c.String(flagImage)}
	streamStats, streamErr := camera.Stream(ctx, src, camera.StreamOptions{
		Interval:  c.Duration(flagInterval),
		MaxFrames: c.Int(flagFrames),
	}, logger.Sublogger("camera"), orch.Submit)

	// Close waits for the in-flight cycle, so its result is already in the mailbox.
	closeErr := orch.Close(c.Context)
	render.Stop()
	if mailbox != nil {
		select {
		case res := <-mailbox.Updates():
			fmt.Fprintln(c.App.Writer, renderResult(res))
		default:
		}
	}

	stats := orch.Stats()
	logger.Infow("fusion finished",
		"delivered", streamStats.Delivered,
		"accepted", streamStats.Accepted,
		"capture_failures", streamStats.CaptureFailures,
		"dropped", stats.Dropped,
		"provider_failures", stats.ProviderFailures,
		"calibration_failures", stats.CalibrationFailures,
		"published", stats.Published)

	if streamErr != nil {
		return errors.Wrap(streamErr, "frame stream failed")
	}
	return closeErr
}

func renderResult(res *fusion.Result) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("frame %d  %dx%d  depth range [%.2f, %.2f]",
		res.FrameSeq, res.View.X, res.View.Y, res.Range.Min, res.Range.Max))
	t.AppendHeader(table.Row{"#", "Label", "Confidence", "Box", "Depth"})
	for i, d := range res.Detections {
		t.AppendRow(table.Row{
			i,
			d.Label,
			fmt.Sprintf("%.2f", d.Confidence),
			d.Box.String(),
			fmt.Sprintf("%.2f", d.Depth),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "detections", len(res.Detections)})
	return t.Render()
}
