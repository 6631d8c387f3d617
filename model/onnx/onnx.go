// Package onnx runs plate detection models exported to ONNX using the
// onnxruntime shared library
package onnx

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/swdee/go-lpkit/model"
)

var (
	envMu   sync.Mutex
	envRefs int
)

// initEnvironment loads the onnxruntime library once per process, the
// environment is shared by every Model
func initEnvironment(library string) error {

	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}

		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("error initializing onnxruntime: %w", err)
		}
	}

	envRefs++
	return nil
}

func releaseEnvironment() error {

	envMu.Lock()
	defer envMu.Unlock()

	envRefs--

	if envRefs > 0 {
		return nil
	}

	return ort.DestroyEnvironment()
}

// Model is an onnxruntime backed model.Model.  The session uses dynamic
// shapes so a single Model serves every input scale.
type Model struct {
	session *ort.DynamicAdvancedSession
	input   ort.InputOutputInfo
	output  ort.InputOutputInfo
	// nchw is set when the network expects channels first input, its output
	// is then channels first too
	nchw   bool
	closed bool
}

// New initializes the onnxruntime environment from the shared library at
// path, an empty path uses the platform default library name
func New(library string) (*Model, error) {

	if err := initEnvironment(library); err != nil {
		return nil, err
	}

	return &Model{}, nil
}

// Load creates an inference session for the weights file, replacing the
// session of previously loaded weights
func (m *Model) Load(weightFile string) error {

	if err := m.release(); err != nil {
		return err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(weightFile)

	if err != nil {
		return fmt.Errorf("error reading model info of %s: %w", weightFile, err)
	}

	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("model %s has no inputs or outputs", weightFile)
	}

	in := inputs[0]

	if len(in.Dimensions) != 4 {
		return fmt.Errorf("model %s input %s has %d dimensions, expected 4",
			weightFile, in.Name, len(in.Dimensions))
	}

	switch in.DataType {
	case ort.TensorElementDataTypeFloat, ort.TensorElementDataTypeFloat16:
	default:
		return fmt.Errorf("model %s input type %s not supported", weightFile, in.DataType)
	}

	session, err := ort.NewDynamicAdvancedSession(weightFile,
		[]string{in.Name}, []string{outputs[0].Name}, nil)

	if err != nil {
		return fmt.Errorf("error creating session for %s: %w", weightFile, err)
	}

	m.session = session
	m.input = in
	m.output = outputs[0]
	m.nchw = in.Dimensions[1] == 3 && in.Dimensions[3] != 3

	return nil
}

// Predict runs the network on a float32 3 channel Mat
func (m *Model) Predict(input gocv.Mat) (model.FeatureMap, error) {

	if m.session == nil {
		return model.FeatureMap{}, model.ErrNotLoaded
	}

	if input.Type() != gocv.MatTypeCV32FC3 {
		return model.FeatureMap{}, fmt.Errorf("expected CV32FC3 input, got %s", input.Type())
	}

	pixels, err := input.DataPtrFloat32()

	if err != nil {
		return model.FeatureMap{}, fmt.Errorf("error accessing input data: %w", err)
	}

	h, w := int64(input.Rows()), int64(input.Cols())
	data := pixels
	shape := ort.NewShape(1, h, w, 3)

	if m.nchw {
		data = hwcToCHW(pixels, int(h), int(w), 3)
		shape = ort.NewShape(1, 3, h, w)
	}

	tensor, err := m.newInput(shape, data)

	if err != nil {
		return model.FeatureMap{}, err
	}
	defer tensor.Destroy()

	outputs := []ort.Value{nil}

	if err := m.session.Run([]ort.Value{tensor}, outputs); err != nil {
		return model.FeatureMap{}, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	return m.featureMap(outputs[0])
}

// newInput creates the input tensor in the data type the network expects
func (m *Model) newInput(shape ort.Shape, data []float32) (ort.Value, error) {

	if m.input.DataType == ort.TensorElementDataTypeFloat16 {
		buf := make([]byte, 2*len(data))
		encodeFloat16(buf, data)

		t, err := ort.NewCustomDataTensor(shape, buf, ort.TensorElementDataTypeFloat16)

		if err != nil {
			return nil, fmt.Errorf("error creating float16 input tensor: %w", err)
		}

		return t, nil
	}

	// the tensor is destroyed before the Mat so the data can be shared
	t, err := ort.NewTensor(shape, data)

	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	return t, nil
}

// featureMap converts the first network output into a FeatureMap
func (m *Model) featureMap(out ort.Value) (model.FeatureMap, error) {

	var data []float32

	switch t := out.(type) {
	case *ort.Tensor[float32]:
		data = append([]float32(nil), t.GetData()...)
	case *ort.CustomDataTensor:
		data = decodeFloat16(t.GetData())
	default:
		return model.FeatureMap{}, fmt.Errorf("unsupported output tensor type %T", out)
	}

	shape := out.GetShape()

	if len(shape) != 4 || shape[0] != 1 {
		return model.FeatureMap{}, fmt.Errorf("expected output of shape [1 h w c], got %v", shape)
	}

	if m.nchw {
		return model.NewFeatureMapCHW(data, int(shape[1]), int(shape[2]), int(shape[3]))
	}

	return model.NewFeatureMap(data, int(shape[1]), int(shape[2]), int(shape[3]))
}

func (m *Model) release() error {

	if m.session == nil {
		return nil
	}

	err := m.session.Destroy()
	m.session = nil

	if err != nil {
		return fmt.Errorf("error destroying session: %w", err)
	}

	return nil
}

// Close destroys the session and releases the onnxruntime environment
func (m *Model) Close() error {

	if m.closed {
		return nil
	}

	m.closed = true

	return errors.Join(m.release(), releaseEnvironment())
}

// hwcToCHW transposes interleaved pixels into planar layout
func hwcToCHW(src []float32, height, width, channels int) []float32 {

	dst := make([]float32, len(src))
	plane := height * width

	for i := 0; i < plane; i++ {
		for c := 0; c < channels; c++ {
			dst[c*plane+i] = src[i*channels+c]
		}
	}

	return dst
}
