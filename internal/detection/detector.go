package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/organoid-tracker/internal/imaging"
)

// Box is a predicted bounding box in pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"` // Left edge
	Y1 float64 `json:"y1"` // Top edge
	X2 float64 `json:"x2"` // Right edge
	Y2 float64 `json:"y2"` // Bottom edge
}

// Rect truncates the box to an image.Rectangle for drawing.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// Prediction is the output of one forward pass.
type Prediction struct {
	// Boxes, Scores and Labels are parallel and sorted by descending score.
	Boxes  []Box
	Scores []float32
	Labels []int
}

// Len returns the number of candidate detections.
func (p *Prediction) Len() int { return len(p.Boxes) }

// Validate checks that the parallel slices have the same length.
func (p *Prediction) Validate() error {
	if len(p.Scores) != len(p.Boxes) || len(p.Labels) != len(p.Boxes) {
		return fmt.Errorf("prediction length mismatch: %d boxes, %d scores, %d labels",
			len(p.Boxes), len(p.Scores), len(p.Labels))
	}
	return nil
}

// Sort orders the detections by descending score. Equal scores keep their
// original order.
func (p *Prediction) Sort() {
	idx := make([]int, p.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.Scores[idx[a]] > p.Scores[idx[b]]
	})

	boxes := make([]Box, len(idx))
	scores := make([]float32, len(idx))
	labels := make([]int, len(idx))
	for i, j := range idx {
		boxes[i], scores[i], labels[i] = p.Boxes[j], p.Scores[j], p.Labels[j]
	}
	p.Boxes, p.Scores, p.Labels = boxes, scores, labels
}

// Rescale divides every coordinate by scale, mapping boxes predicted on a
// resized tensor back to the original image.
func (p *Prediction) Rescale(scale float64) {
	if scale == 0 || scale == 1 {
		return
	}
	for i := range p.Boxes {
		b := &p.Boxes[i]
		b.X1 /= scale
		b.Y1 /= scale
		b.X2 /= scale
		b.Y2 /= scale
	}
}

// Above returns the leading detections whose score is >= threshold. Because
// scores are sorted, it stops at the first score below the threshold.
func (p *Prediction) Above(threshold float64) ([]Box, []float32) {
	n := 0
	for n < len(p.Scores) && float64(p.Scores[n]) >= threshold {
		n++
	}
	return p.Boxes[:n], p.Scores[:n]
}

// Clean removes padding entries (negative label or score, NaN coordinates).
func (p *Prediction) Clean() {
	keep := 0
	for i := range p.Boxes {
		b := p.Boxes[i]
		if p.Labels[i] < 0 || p.Scores[i] < 0 ||
			math.IsNaN(b.X1) || math.IsNaN(b.Y1) || math.IsNaN(b.X2) || math.IsNaN(b.Y2) {
			continue
		}
		p.Boxes[keep], p.Scores[keep], p.Labels[keep] = p.Boxes[i], p.Scores[i], p.Labels[i]
		keep++
	}
	p.Boxes, p.Scores, p.Labels = p.Boxes[:keep], p.Scores[:keep], p.Labels[:keep]
}

// Detector runs an object-detection network.
type Detector interface {
	// Detect runs one forward pass. The returned Prediction is sorted by
	// descending score and free of padding entries.
	Detect(ctx context.Context, t *imaging.Tensor) (*Prediction, error)

	// Close releases the network and its compute backend.
	Close() error
}

// Func adapts a function to the Detector interface.
type Func func(ctx context.Context, t *imaging.Tensor) (*Prediction, error)

// Detect calls f.
func (f Func) Detect(ctx context.Context, t *imaging.Tensor) (*Prediction, error) {
	return f(ctx, t)
}

// Close does nothing.
func (f Func) Close() error { return nil }
