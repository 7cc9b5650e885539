package detection

import (
	"context"
	"fmt"
	"math"

	"github.com/ironsheep/organoid-tracker/internal/imaging"
)

// Default BlobDetector parameters.
const (
	DefaultBlobThreshold = 30.0
	DefaultBlobMinArea   = 25
)

// point is a pixel coordinate within a tensor.
type point struct {
	X, Y int
}

// BlobDetector finds organoids as connected regions that differ from the
// background by more than Threshold grey levels. It needs no model file and
// serves as the fallback when no OpenCV backend is compiled in.
type BlobDetector struct {
	// MeanPixel is the B, G, R mean the tensor was normalized with.
	MeanPixel [3]float64

	// Threshold is the minimum absolute grey-level difference from the
	// image mean for a pixel to count as foreground.
	Threshold float64

	// MinArea discards components smaller than this many pixels.
	MinArea int
}

// NewBlobDetector returns a BlobDetector with default parameters.
func NewBlobDetector(meanPixel [3]float64) *BlobDetector {
	return &BlobDetector{
		MeanPixel: meanPixel,
		Threshold: DefaultBlobThreshold,
		MinArea:   DefaultBlobMinArea,
	}
}

// Detect implements Detector.
//
// # Algorithm
//
//  1. Grey Conversion: Undo the mean subtraction and apply BT.601 weights
//  2. Foreground Mask: Mark pixels whose grey level differs from the image
//     mean by more than Threshold
//  3. Components: Group foreground pixels with an 8-connected flood fill
//  4. Scoring: Score = component area / area of the ellipse inscribed in its
//     bounding box, capped at 1
//
// Components touching fewer than MinArea pixels are discarded.
func (d *BlobDetector) Detect(ctx context.Context, t *imaging.Tensor) (*Prediction, error) {
	if t.Width == 0 || t.Height == 0 {
		return nil, fmt.Errorf("cannot detect on an empty tensor")
	}

	gray := d.grayLevels(t)
	mask := d.foreground(gray, t.Width, t.Height)

	visited := make([][]bool, t.Height)
	for y := range visited {
		visited[y] = make([]bool, t.Width)
	}

	pred := &Prediction{}
	for y := 0; y < t.Height; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < t.Width; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			component := make([]point, 0)
			floodFill(mask, visited, x, y, t.Width, t.Height, &component)
			if len(component) < d.MinArea {
				continue
			}
			box, score := scoreComponent(component)
			pred.Boxes = append(pred.Boxes, box)
			pred.Scores = append(pred.Scores, score)
			pred.Labels = append(pred.Labels, 0)
		}
	}

	pred.Sort()
	return pred, nil
}

// Close implements Detector.
func (d *BlobDetector) Close() error { return nil }

// grayLevels converts the tensor back to 8-bit grey levels.
func (d *BlobDetector) grayLevels(t *imaging.Tensor) []float64 {
	gray := make([]float64, t.Width*t.Height)
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			b, g, r := t.At(x, y)
			gray[y*t.Width+x] = 0.299*(float64(r)+d.MeanPixel[2]) +
				0.587*(float64(g)+d.MeanPixel[1]) +
				0.114*(float64(b)+d.MeanPixel[0])
		}
	}
	return gray
}

// foreground thresholds grey levels against their mean.
func (d *BlobDetector) foreground(gray []float64, width, height int) [][]bool {
	var sum float64
	for _, v := range gray {
		sum += v
	}
	mean := sum / float64(len(gray))

	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			mask[y][x] = math.Abs(gray[y*width+x]-mean) > d.Threshold
		}
	}
	return mask
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses an explicit stack so large components cannot overflow the goroutine
// stack. Marks visited pixels and appends them to component. Uses
// 8-connectivity.
func floodFill(mask, visited [][]bool, startX, startY, width, height int, component *[]point) {
	stack := []point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		*component = append(*component, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

// scoreComponent returns the bounding box of a component and how closely it
// fills the ellipse inscribed in that box.
func scoreComponent(component []point) (Box, float32) {
	minX, minY := component[0].X, component[0].Y
	maxX, maxY := minX, minY
	for _, p := range component[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}

	// Box edges are exclusive on the right and bottom.
	box := Box{
		X1: float64(minX),
		Y1: float64(minY),
		X2: float64(maxX + 1),
		Y2: float64(maxY + 1),
	}

	ellipse := math.Pi / 4 * (box.X2 - box.X1) * (box.Y2 - box.Y1)
	score := math.Min(float64(len(component))/ellipse, 1.0)
	return box, float32(score)
}
