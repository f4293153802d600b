package objectdetection

import (
	"context"
	"image"
	"image/color"
)

// simpleDetector converts an image to gray and then finds the connected components with values
// below a certain luminance threshold. threshold is between 0.0 and 256.0, with 256.0 being
// white, and 0.0 being black.
type simpleDetector struct {
	threshold float64
	label     string
}

// NewSimpleDetector creates a detector useful for local testing. It finds pixels below the set
// threshold and returns the bounding box around each 4-connected component, labelled label.
func NewSimpleDetector(threshold float64, label string) Detector {
	sd := &simpleDetector{threshold: threshold, label: label}
	return sd.Inference
}

// Inference takes in an image frame and returns the detection bounding boxes found in the image.
func (sd *simpleDetector) Inference(ctx context.Context, img image.Image) ([]Detection, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	seen := make([]bool, width*height)
	index := func(p image.Point) int {
		return (p.Y-bounds.Min.Y)*width + (p.X - bounds.Min.X)
	}
	detections := []Detection{}
	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			pt := image.Point{i, j}
			if seen[index(pt)] {
				continue
			}
			seen[index(pt)] = true
			if !sd.pass(img.At(i, j)) {
				continue
			}
			queue := []image.Point{pt}
			x0, y0, x1, y1 := pt.X, pt.Y, pt.X, pt.Y
			for len(queue) != 0 {
				newPt := queue[0]
				queue = queue[1:]
				x0, y0 = min(x0, newPt.X), min(y0, newPt.Y)
				x1, y1 = max(x1, newPt.X), max(y1, newPt.Y)
				for _, p := range []image.Point{
					{newPt.X, newPt.Y - 1}, {newPt.X, newPt.Y + 1}, {newPt.X - 1, newPt.Y}, {newPt.X + 1, newPt.Y},
				} {
					if !p.In(bounds) || seen[index(p)] {
						continue
					}
					seen[index(p)] = true
					if sd.pass(img.At(p.X, p.Y)) {
						queue = append(queue, p)
					}
				}
			}
			detections = append(detections, NewDetection(image.Rect(x0, y0, x1+1, y1+1), 1.0, sd.label))
		}
	}
	return detections, nil
}

func (sd *simpleDetector) pass(c color.Color) bool {
	return float64(color.GrayModel.Convert(c).(color.Gray).Y) < sd.threshold
}
