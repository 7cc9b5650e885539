package dnn

import (
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/organoid-tracker/internal/detection"
)

// ErrUnavailable is returned by Open when the binary was built without the
// OpenCV backend.
var ErrUnavailable = errors.New("opencv dnn backend not compiled in (build with -tags opencv)")

// checkModel fails when the model file cannot be read.
func checkModel(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open model: %w", err)
	}
	return nil
}

// DefaultOutputNames are the output layers of a RetinaNet inference export.
var DefaultOutputNames = []string{"boxes", "scores", "labels"}

// Options configures Open.
type Options struct {
	// Model is the path to the network file.
	Model string

	// GPU selects the CUDA backend.
	GPU bool

	// OutputNames overrides DefaultOutputNames. Order is boxes, scores, labels.
	OutputNames []string
}

func (o Options) outputNames() []string {
	if len(o.OutputNames) == 3 {
		return o.OutputNames
	}
	return DefaultOutputNames
}

// decode turns flat network outputs into a cleaned, sorted Prediction.
// labels may be nil when the export has no label output.
func decode(boxes, scores, labels []float32) (*detection.Prediction, error) {
	if len(boxes) != 4*len(scores) {
		return nil, fmt.Errorf("output shape mismatch: %d box values for %d scores", len(boxes), len(scores))
	}
	if labels != nil && len(labels) != len(scores) {
		return nil, fmt.Errorf("output shape mismatch: %d labels for %d scores", len(labels), len(scores))
	}

	n := len(scores)
	pred := &detection.Prediction{
		Boxes:  make([]detection.Box, n),
		Scores: make([]float32, n),
		Labels: make([]int, n),
	}
	for i := 0; i < n; i++ {
		pred.Boxes[i] = detection.Box{
			X1: float64(boxes[4*i]),
			Y1: float64(boxes[4*i+1]),
			X2: float64(boxes[4*i+2]),
			Y2: float64(boxes[4*i+3]),
		}
		pred.Scores[i] = scores[i]
		if labels != nil {
			pred.Labels[i] = int(labels[i])
		}
	}

	pred.Clean()
	pred.Sort()
	return pred, nil
}
