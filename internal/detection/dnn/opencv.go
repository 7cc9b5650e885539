//go:build cgo && opencv

package dnn

import (
	"context"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"gocv.io/x/gocv"

	"github.com/ironsheep/organoid-tracker/internal/detection"
	"github.com/ironsheep/organoid-tracker/internal/imaging"
)

// Net is a detection.Detector backed by a gocv.Net.
type Net struct {
	mu      sync.Mutex
	net     gocv.Net
	outputs []string
}

// Open loads the model and selects the compute backend.
func Open(opts Options) (*Net, error) {
	if err := checkModel(opts.Model); err != nil {
		return nil, err
	}

	net := gocv.ReadNet(opts.Model, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", opts.Model)
	}

	backend, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	if opts.GPU {
		backend, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set dnn backend: %w", err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set dnn target: %w", err)
	}

	return &Net{net: net, outputs: opts.outputNames()}, nil
}

// Detect implements detection.Detector.
func (n *Net) Detect(ctx context.Context, t *imaging.Tensor) (*detection.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(t.Data) == 0 {
		return nil, fmt.Errorf("cannot detect on an empty tensor")
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&t.Data[0])), len(t.Data)*4)
	mat, err := gocv.NewMatFromBytes(t.Height, t.Width, gocv.MatTypeCV32FC3, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap tensor: %w", err)
	}
	defer mat.Close()

	// Preprocessing already applied; only reshape HWC to NCHW.
	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(t.Width, t.Height), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.net.SetInput(blob, ""); err != nil {
		return nil, fmt.Errorf("failed to set network input: %w", err)
	}
	outs := n.net.ForwardLayers(n.outputs)
	defer func() {
		for i := range outs {
			outs[i].Close()
		}
	}()
	if len(outs) != 3 {
		return nil, fmt.Errorf("expected 3 outputs, got %d", len(outs))
	}

	boxes, err := outs[0].DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read boxes: %w", err)
	}
	scores, err := outs[1].DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}
	labels, err := outs[2].DataPtrFloat32()
	if err != nil {
		labels = nil
	}

	return decode(boxes, scores, labels)
}

// Close releases the network.
func (n *Net) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.net.Close()
}
