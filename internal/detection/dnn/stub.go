//go:build !cgo || !opencv

package dnn

import (
	"context"

	"github.com/ironsheep/organoid-tracker/internal/detection"
	"github.com/ironsheep/organoid-tracker/internal/imaging"
)

// Net is unavailable in this build.
type Net struct{}

// Open fails on a missing model and otherwise returns ErrUnavailable.
func Open(opts Options) (*Net, error) {
	if err := checkModel(opts.Model); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}

// Detect always returns ErrUnavailable.
func (n *Net) Detect(ctx context.Context, t *imaging.Tensor) (*detection.Prediction, error) {
	return nil, ErrUnavailable
}

// Close does nothing.
func (n *Net) Close() error { return nil }
