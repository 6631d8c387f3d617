//go:build rknn

// Package rknn runs plate detection models compiled for the Rockchip NPU
package rknn

import (
	"fmt"

	"github.com/swdee/go-rknnlite"
	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit/model"
)

// Model is a model.Model backed by the RKNN runtime.  RKNN models have a
// fixed input size, predicting on any other size returns
// model.ErrScaleMismatch.
type Model struct {
	core rknnlite.CoreMask
	rt   *rknnlite.Runtime
	// width and height of the model input
	width, height int
}

// New returns a Model running on the NPU cores of the mask
func New(core rknnlite.CoreMask) *Model {
	return &Model{core: core}
}

// Load creates a runtime for the compiled model, closing the runtime of
// previously loaded weights
func (m *Model) Load(weightFile string) error {

	if err := m.Close(); err != nil {
		return err
	}

	rt, err := rknnlite.NewRuntime(weightFile, m.core)

	if err != nil {
		return fmt.Errorf("error initializing RKNN runtime for %s: %w", weightFile, err)
	}

	// inputs are normalized float32 Mats, the runtime quantizes them
	rt.SetInputTypeFloat32(true)

	in := rt.InputAttrs()

	if len(in) == 0 || len(rt.OutputAttrs()) == 0 {
		rt.Close()
		return fmt.Errorf("model %s has no inputs or outputs", weightFile)
	}

	// RKNN reports input dimensions in NHWC order
	m.height, m.width = int(in[0].Dims[1]), int(in[0].Dims[2])
	m.rt = rt

	return nil
}

// Predict runs the network on a float32 3 channel Mat of the model input size
func (m *Model) Predict(input gocv.Mat) (model.FeatureMap, error) {

	if m.rt == nil {
		return model.FeatureMap{}, model.ErrNotLoaded
	}

	if input.Cols() != m.width || input.Rows() != m.height {
		return model.FeatureMap{}, fmt.Errorf("%w: model %dx%d, input %dx%d",
			model.ErrScaleMismatch, m.width, m.height, input.Cols(), input.Rows())
	}

	outputs, err := m.rt.Inference([]gocv.Mat{input})

	if err != nil {
		return model.FeatureMap{}, fmt.Errorf("inference failed: %w", err)
	}

	defer outputs.Free()

	// BufFloat points to C memory released by Free
	data := append([]float32(nil), outputs.Output[0].BufFloat...)
	attr := m.rt.OutputAttrs()[0]

	if attr.NDims != 4 {
		return model.FeatureMap{}, fmt.Errorf("expected 4 dimensional output, got %d", attr.NDims)
	}

	if attr.Fmt == rknnlite.TensorNHWC {
		return model.NewFeatureMap(data, int(attr.Dims[1]), int(attr.Dims[2]), int(attr.Dims[3]))
	}

	return model.NewFeatureMapCHW(data, int(attr.Dims[1]), int(attr.Dims[2]), int(attr.Dims[3]))
}

// Close releases the runtime of the loaded weights
func (m *Model) Close() error {

	if m.rt == nil {
		return nil
	}

	err := m.rt.Close()
	m.rt = nil

	if err != nil {
		return fmt.Errorf("error closing RKNN runtime: %w", err)
	}

	return nil
}
