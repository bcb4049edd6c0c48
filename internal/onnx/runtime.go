package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var initOnce sync.Once

// systemLibraryPaths lists where the ONNX Runtime shared library is searched
// for, in order. The SIDENUM_ONNX_LIB environment variable wins.
func systemLibraryPaths() []string {
	paths := []string{}
	if env := os.Getenv("SIDENUM_ONNX_LIB"); env != "" {
		paths = append(paths, env)
	}
	paths = append(paths,
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	)
	return paths
}

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func setLibraryPath() error {
	for _, path := range systemLibraryPaths() {
		if _, err := os.Stat(path); err == nil {
			ort.SetSharedLibraryPath(path)
			return nil
		}
	}
	// Fall back to a project-relative location next to the binary.
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	name, err := libraryName()
	if err != nil {
		return err
	}
	path := filepath.Join(filepath.Dir(exe), "onnxruntime", "lib", name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %s", path)
	}
	ort.SetSharedLibraryPath(path)
	return nil
}

// Initialize sets the shared library path and initializes the ONNX Runtime
// environment. Safe to call from multiple components.
func Initialize() error {
	var err error
	initOnce.Do(func() {
		if e := setLibraryPath(); e != nil {
			err = fmt.Errorf("failed to set ONNX Runtime library path: %w", e)
			return
		}
		if !ort.IsInitialized() {
			if e := ort.InitializeEnvironment(); e != nil {
				err = fmt.Errorf("failed to initialize ONNX Runtime: %w", e)
			}
		}
	})
	return err
}

// Session wraps a dynamic-shape ONNX session together with its model I/O
// metadata. Sessions are safe for sequential use; callers serialize access.
type Session struct {
	session *ort.DynamicAdvancedSession
	Input   ort.InputOutputInfo
	Output  ort.InputOutputInfo
}

// NewSession validates the model file, reads its input/output metadata and
// creates a dynamic session with the given intra-op thread count.
func NewSession(modelPath string, numThreads int) (*Session, error) {
	if modelPath == "" {
		return nil, errors.New("model path is empty")
	}
	if info, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not accessible: %w", err)
	} else if info.Size() == 0 {
		return nil, fmt.Errorf("model file is empty: %s", modelPath)
	}

	if err := Initialize(); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has no inputs or outputs", modelPath)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if numThreads > 0 {
		if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Session{session: session, Input: inputs[0], Output: outputs[0]}, nil
}

// Run executes the session on the given tensor and returns a copy of the
// output data together with its shape.
func (s *Session) Run(t Tensor) ([]float32, []int64, error) {
	if s == nil || s.session == nil {
		return nil, nil, errors.New("session is nil")
	}
	if err := t.Verify(); err != nil {
		return nil, nil, fmt.Errorf("invalid tensor: %w", err)
	}

	input, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	out := outputs[0]
	defer func() { _ = out.Destroy() }()

	floatOut, ok := out.(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", out)
	}
	shape := out.GetShape()
	data := make([]float32, len(floatOut.GetData()))
	copy(data, floatOut.GetData())
	outShape := make([]int64, len(shape))
	copy(outShape, shape)
	return data, outShape, nil
}

// Close releases the underlying session.
func (s *Session) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
