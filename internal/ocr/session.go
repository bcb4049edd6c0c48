package ocr

import "github.com/railsight/sidenum/internal/onnx"

// ortSession adapts onnx.Session to the engine's session seam.
type ortSession struct {
	s *onnx.Session
}

func openSession(path string, threads int) (session, error) {
	s, err := onnx.NewSession(path, threads)
	if err != nil {
		return nil, err
	}
	return &ortSession{s: s}, nil
}

func (o *ortSession) Run(data []float32, shape []int64) ([]float32, []int64, error) {
	return o.s.Run(onnx.Tensor{Data: data, Shape: shape})
}

func (o *ortSession) Close() error { return o.s.Close() }
