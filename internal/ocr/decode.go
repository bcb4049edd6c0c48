package ocr

import (
	"fmt"
	"image"
	"sync"

	"github.com/railsight/sidenum/internal/onnx"
	"github.com/railsight/sidenum/internal/utils"
)

// recognizeBatch runs the recognition model on the oriented crops and
// decodes one text per crop.
func (e *Engine) recognizeBatch(crops []*image.NRGBA) ([]string, []float64, error) {
	if e.rec == nil {
		return nil, nil, newError(CodeNotInitialized, "recognition session closed", nil)
	}
	padded, width := prepareRecBatch(crops, e.cfg.RecHeight)

	samples := make([][]float32, len(padded))
	for i, crop := range padded {
		data, _, _, err := utils.NormalizeCHW(crop, utils.MeanCentered, utils.StdCentered)
		if err != nil {
			return nil, nil, newError(CodePreprocess, "normalizing for recognition", err)
		}
		samples[i] = data
	}
	tensor, err := onnx.NewBatchImageTensor(samples, 3, e.cfg.RecHeight, width)
	if err != nil {
		return nil, nil, newError(CodePreprocess, "assembling recognition batch", err)
	}

	out, shape, err := e.rec.Run(tensor.Data, tensor.Shape)
	if err != nil {
		return nil, nil, newError(CodeInference, "recognition inference", err)
	}
	if len(shape) != 3 || int(shape[0]) != len(padded) {
		return nil, nil, newError(CodeDecode,
			fmt.Sprintf("unexpected recognition output shape %v", shape), nil)
	}

	steps, classes := int(shape[1]), int(shape[2])
	texts := make([]string, len(padded))
	scores := make([]float64, len(padded))

	// Each sample's timestep argmax is independent, so fan out one worker
	// per sample.
	var wg sync.WaitGroup
	for n := range padded {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sample := out[n*steps*classes : (n+1)*steps*classes]
			indices, probs := argmaxTimesteps(sample, steps, classes)
			texts[n], scores[n] = e.decodeGreedy(indices, probs)
		}()
	}
	wg.Wait()

	return texts, scores, nil
}

// argmaxTimesteps finds the best class per timestep in a [T, C] slice.
func argmaxTimesteps(data []float32, steps, classes int) ([]int, []float32) {
	indices := make([]int, steps)
	probs := make([]float32, steps)
	for t := range steps {
		row := data[t*classes : (t+1)*classes]
		best := 0
		for c, v := range row {
			if v > row[best] {
				best = c
			}
		}
		indices[t] = best
		probs[t] = row[best]
	}
	return indices, probs
}

// decodeGreedy collapses a timestep argmax sequence into text. Class 0 is
// the CTC blank. A character is emitted only when its probability clears
// the text threshold and, unless repeats are kept, its class differs from
// the previous timestep. Non-alphanumeric tokens are discarded.
func (e *Engine) decodeGreedy(indices []int, probs []float32) (string, float64) {
	var out []byte
	var sum float64
	emitted := 0
	last := 0
	for t, idx := range indices {
		if idx == 0 {
			last = 0
			continue
		}
		repeat := idx == last
		last = idx
		if repeat && !e.cfg.KeepRepeats {
			continue
		}
		if probs[t] < e.cfg.TextThresh {
			continue
		}
		token := e.dict.Token(idx)
		for i := 0; i < len(token); i++ {
			if isAlnum(token[i]) {
				out = append(out, token[i])
			}
		}
		sum += float64(probs[t])
		emitted++
	}
	if emitted == 0 {
		return "", 0
	}
	return string(out), sum / float64(emitted)
}

func isAlnum(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
