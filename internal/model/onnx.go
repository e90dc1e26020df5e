package model

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXOptions configures the ONNX Runtime backed loader.
type ONNXOptions struct {
	// LibraryPath points at the onnxruntime shared library. Empty uses the platform default.
	LibraryPath string
}

// NewONNXLoader returns a Loader that opens models with ONNX Runtime.
func NewONNXLoader(opts ONNXOptions) Loader {
	return func(ctx context.Context, path string) (Session, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return OpenONNX(path, opts)
	}
}

type onnxSession struct {
	// mu is held shared for the duration of every Run so Close cannot
	// destroy the engine underneath one.
	mu      sync.RWMutex
	closed  bool
	session *ort.DynamicAdvancedSession
	inputs  []ort.InputOutputInfo
	outputs []ort.InputOutputInfo
}

// OpenONNX initializes the ONNX environment and opens the model at path.
// Input and output names are taken from the model itself.
func OpenONNX(path string, opts ONNXOptions) (Session, error) {
	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to read model signature: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("model %s declares %d inputs and %d outputs", path, len(inputs), len(outputs))
	}

	session, err := ort.NewDynamicAdvancedSession(path, infoNames(inputs), infoNames(outputs), nil)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxSession{
		session: session,
		inputs:  inputs,
		outputs: outputs,
	}, nil
}

func (s *onnxSession) InputNames() []string  { return infoNames(s.inputs) }
func (s *onnxSession) OutputNames() []string { return infoNames(s.outputs) }

func (s *onnxSession) Run(ctx context.Context, feeds map[string]Tensor) (map[string]Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	inputs := make([]ort.ArbitraryTensor, 0, len(s.inputs))
	defer func() { destroyValues(inputs) }()
	for _, info := range s.inputs {
		feed, ok := feeds[info.Name]
		if !ok {
			return nil, fmt.Errorf("missing feed for input %q", info.Name)
		}
		tensor, err := ort.NewTensor(ort.NewShape(feed.Shape...), feed.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to create input tensor %q: %w", info.Name, err)
		}
		inputs = append(inputs, tensor)
	}

	outputs := make([]ort.ArbitraryTensor, 0, len(s.outputs))
	defer func() { destroyValues(outputs) }()
	for _, info := range s.outputs {
		tensor, err := newOutputTensor(info)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, tensor)
	}

	if err := s.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	result := make(map[string]Value, len(outputs))
	for i, info := range s.outputs {
		result[info.Name] = Value{
			Shape: []int64(outputs[i].GetShape()),
			Data:  tensorData(outputs[i]),
		}
	}
	return result, nil
}

func (s *onnxSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.session != nil {
		err = s.session.Destroy()
	}
	if envErr := ort.DestroyEnvironment(); err == nil {
		err = envErr
	}
	return err
}

func newOutputTensor(info ort.InputOutputInfo) (ort.ArbitraryTensor, error) {
	// Dynamic dimensions (batch) are reported as -1; this pipeline always runs a batch of one.
	dims := make([]int64, len(info.Dimensions))
	for i, d := range info.Dimensions {
		if d <= 0 {
			d = 1
		}
		dims[i] = d
	}
	shape := ort.NewShape(dims...)

	switch info.DataType {
	case ort.TensorElementDataTypeFloat:
		return ort.NewEmptyTensor[float32](shape)
	case ort.TensorElementDataTypeDouble:
		return ort.NewEmptyTensor[float64](shape)
	case ort.TensorElementDataTypeInt64:
		return ort.NewEmptyTensor[int64](shape)
	case ort.TensorElementDataTypeInt32:
		return ort.NewEmptyTensor[int32](shape)
	default:
		return nil, fmt.Errorf("output %q has unsupported element type %v", info.Name, info.DataType)
	}
}

// tensorData copies the output out of engine-owned memory.
func tensorData(v ort.ArbitraryTensor) any {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		return append([]float32(nil), t.GetData()...)
	case *ort.Tensor[float64]:
		return append([]float64(nil), t.GetData()...)
	case *ort.Tensor[int64]:
		return append([]int64(nil), t.GetData()...)
	case *ort.Tensor[int32]:
		return append([]int32(nil), t.GetData()...)
	default:
		return nil
	}
}

func destroyValues(values []ort.ArbitraryTensor) {
	for _, v := range values {
		v.Destroy()
	}
}

func infoNames(infos []ort.InputOutputInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}
