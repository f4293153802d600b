package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthfusion/services/fusion"
)

// writeTestImage writes a white 320x240 png with one black square.
func writeTestImage(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			c := color.RGBA{R: uint8(x % 256), G: 255, B: 255, A: 255}
			if x >= 100 && x < 160 && y >= 80 && y < 140 {
				c = color.RGBA{A: 255}
			}
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "scene.png")
	f, err := os.Create(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, png.Encode(f, img), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)
	return path
}

func TestRunJSON(t *testing.T) {
	path := writeTestImage(t)
	var out bytes.Buffer
	err := newApp(&out).Run([]string{
		"depthfusion", "run", "--image", path, "--frames", "1", "--interval", "1ms", "--json", "--label", "box",
	})
	test.That(t, err, test.ShouldBeNil)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	test.That(t, lines, test.ShouldHaveLength, 1)
	var res fusion.Result
	test.That(t, json.Unmarshal([]byte(lines[0]), &res), test.ShouldBeNil)
	test.That(t, res.CycleID, test.ShouldNotBeEmpty)
	test.That(t, res.View, test.ShouldResemble, image.Pt(320, 240))
	test.That(t, res.Detections, test.ShouldHaveLength, 1)
	det := res.Detections[0]
	test.That(t, det.Label, test.ShouldEqual, "box")
	test.That(t, det.Box.In(image.Rect(0, 0, 320, 240)), test.ShouldBeTrue)
	test.That(t, det.Depth, test.ShouldBeBetweenOrEqual, 0.0, 20.0)
}

func TestRunTable(t *testing.T) {
	path := writeTestImage(t)
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"depthfusion", "run", "--image", path, "--interval", "1ms"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "LABEL")
	test.That(t, out.String(), test.ShouldContainSubstring, "object")
	test.That(t, out.String(), test.ShouldContainSubstring, "320x240")
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out).Run([]string{
		"depthfusion", "run", "--image", filepath.Join(t.TempDir(), "missing.png"), "--frames", "1", "--interval", "1ms",
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing.png")

	badConf := filepath.Join(t.TempDir(), "fusion.json")
	test.That(t, os.WriteFile(badConf, []byte(`{"output_min": 5, "output_max": 1}`), 0o600), test.ShouldBeNil)
	err = newApp(&out).Run([]string{"depthfusion", "run", "--image", writeTestImage(t), "--config", badConf})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "output_max")
}

func TestDefaults(t *testing.T) {
	var out bytes.Buffer
	test.That(t, newApp(&out).Run([]string{"depthfusion", "defaults"}), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, `"scale_correction": 0.7`)
}

func TestRenderResult(t *testing.T) {
	res := &fusion.Result{
		FrameSeq: 3,
		View:     image.Pt(640, 480),
		Detections: []fusion.AnnotatedDetection{
			{Box: image.Rect(64, 43, 154, 110), Label: "person", Confidence: 0.9, Depth: 3.25},
		},
	}
	out := renderResult(res)
	test.That(t, out, test.ShouldContainSubstring, "person")
	test.That(t, out, test.ShouldContainSubstring, "(64,43)-(154,110)")
	test.That(t, out, test.ShouldContainSubstring, "3.25")
	test.That(t, out, test.ShouldContainSubstring, "frame 3  640x480")
}
