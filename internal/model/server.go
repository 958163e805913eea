package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

type Options struct {
	ModelPath         string
	SharedLibraryPath string
	// InputName and OutputName select the graph endpoints; empty means the
	// first input and output declared by the model.
	InputName  string
	OutputName string
}

// Server is the ONNX Runtime Predictor. The session runs on tensors that
// are allocated once, so Predict calls are serialized.
type Server struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	info         ModelInfo
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// Runtime hooks, replaced in tests.
var (
	ortIsInitialized = ort.IsInitialized
	ortInitialize    = ort.InitializeEnvironment
	ortDestroy       = ort.DestroyEnvironment
	ortInspect       = ort.GetInputOutputInfo
)

func NewServer(opts Options, labels []string) (_ *Server, err error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrInvalidLabels)
	}

	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if !ortIsInitialized() {
		if err := ortInitialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
		// An environment this call created must not outlive a failed load.
		defer func() {
			if err != nil {
				_ = ortDestroy()
			}
		}()
	}

	inputs, outputs, err := ortInspect(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model %s: %w", opts.ModelPath, err)
	}

	in, out, err := selectIO(inputs, outputs, opts.InputName, opts.OutputName, len(labels))
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{in.Name}, []string{out.Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Server{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		info: ModelInfo{
			Path:       opts.ModelPath,
			InputName:  in.Name,
			OutputName: out.Name,
			InputShape: append([]int64(nil), InputShape...),
			Classes:    append([]string(nil), labels...),
		},
	}, nil
}

// selectIO picks the graph endpoints and checks them against the
// preprocessing geometry and the label count. Non-positive dimensions are
// dynamic and accepted.
func selectIO(inputs, outputs []ort.InputOutputInfo, inName, outName string, classes int) (ort.InputOutputInfo, ort.InputOutputInfo, error) {
	var none ort.InputOutputInfo

	in, err := findIO(inputs, inName, "input")
	if err != nil {
		return none, none, err
	}
	out, err := findIO(outputs, outName, "output")
	if err != nil {
		return none, none, err
	}

	dims := in.Dimensions
	if len(dims) != len(InputShape) {
		return none, none, fmt.Errorf("%w: model input %q has shape %v, want %v", ErrShape, in.Name, dims, InputShape)
	}
	for i := 1; i < len(dims); i++ {
		if dims[i] > 0 && dims[i] != InputShape[i] {
			return none, none, fmt.Errorf("%w: model input %q has shape %v, want %v", ErrShape, in.Name, dims, InputShape)
		}
	}

	if len(out.Dimensions) == 0 {
		return none, none, fmt.Errorf("%w: model output %q has no dimensions", ErrShape, out.Name)
	}
	width := out.Dimensions[len(out.Dimensions)-1]
	if width > 0 && int(width) != classes {
		return none, none, fmt.Errorf("%w: model output %q has %d classes, label file has %d", ErrLabelMismatch, out.Name, width, classes)
	}

	return in, out, nil
}

func findIO(infos []ort.InputOutputInfo, name, kind string) (ort.InputOutputInfo, error) {
	if len(infos) == 0 {
		return ort.InputOutputInfo{}, fmt.Errorf("%w: model declares no %s", ErrShape, kind)
	}
	if name == "" {
		return infos[0], nil
	}
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return ort.InputOutputInfo{}, fmt.Errorf("%w: model has no %s named %q", ErrShape, kind, name)
}

func (s *Server) Predict(input Tensor) ([]float32, error) {
	if err := checkShape(input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), input.Data)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return append([]float32(nil), s.outputTensor.GetData()...), nil
}

func (s *Server) Info() ModelInfo {
	return s.info
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	_ = ortDestroy()
}
