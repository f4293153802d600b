package objectdetection

import (
	"sort"
	"strings"
)

// Postprocessor defines a function that filters/modifies on an incoming array of Detections.
type Postprocessor func([]Detection) []Detection

// NewAreaFilter returns a function that filters out detections below a certain area.
func NewAreaFilter(area int) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.BoundingBox().Dx()*d.BoundingBox().Dy() >= area {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewScoreFilter returns a function that filters out detections below a certain confidence.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Score() >= conf {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewLabelFilter keeps detections whose label is in the allow-list, ignoring case.
// An empty list keeps everything.
func NewLabelFilter(labels []string) Postprocessor {
	if len(labels) == 0 {
		return func(in []Detection) []Detection { return in }
	}
	allowed := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		allowed[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if _, ok := allowed[strings.ToLower(d.Label())]; ok {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewMaxCountFilter keeps the n highest scoring detections, in their original order.
// Ties go to the earlier detection. n <= 0 keeps everything.
func NewMaxCountFilter(n int) Postprocessor {
	return func(in []Detection) []Detection {
		if n <= 0 || len(in) <= n {
			return in
		}
		idx := make([]int, len(in))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return in[idx[a]].Score() > in[idx[b]].Score()
		})
		keep := idx[:n]
		sort.Ints(keep)
		out := make([]Detection, 0, n)
		for _, i := range keep {
			out = append(out, in[i])
		}
		return out
	}
}

// Chain runs the postprocessors in order. Nil entries are skipped.
func Chain(posts ...Postprocessor) Postprocessor {
	return func(in []Detection) []Detection {
		for _, p := range posts {
			if p != nil {
				in = p(in)
			}
		}
		return in
	}
}
