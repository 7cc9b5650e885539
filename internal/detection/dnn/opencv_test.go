//go:build cgo && opencv

package dnn

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/organoid-tracker/internal/imaging"
)

func TestOpen_MissingModel(t *testing.T) {
	_, err := Open(Options{Model: filepath.Join(t.TempDir(), "missing.onnx")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetect_EmptyTensor(t *testing.T) {
	n := &Net{outputs: DefaultOutputNames}
	_, err := n.Detect(context.Background(), &imaging.Tensor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty tensor")
}

func TestDetect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := &Net{outputs: DefaultOutputNames}
	_, err := n.Detect(ctx, &imaging.Tensor{Data: make([]float32, 3), Width: 1, Height: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
