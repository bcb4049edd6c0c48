package ocr

import (
	"fmt"
	"image"

	"github.com/railsight/sidenum/internal/onnx"
	"github.com/railsight/sidenum/internal/utils"
)

// classifyOrientation runs the 0/180 degree classifier over the crops and
// flips the ones the model scores as upside down.
func (e *Engine) classifyOrientation(crops []*image.NRGBA) ([]*image.NRGBA, error) {
	if e.cls == nil {
		return nil, newError(CodeNotInitialized, "orientation session closed", nil)
	}
	if len(crops) == 0 {
		return crops, nil
	}

	w, h := e.cfg.ClsWidth, e.cfg.ClsHeight
	batch := make([][]float32, len(crops))
	for i, crop := range crops {
		fitted := utils.PadToSize(utils.ResizeKeepHeight(crop, h, w), w, h)
		data, _, _, err := utils.NormalizeCHW(fitted, utils.MeanCentered, utils.StdCentered)
		if err != nil {
			return nil, newError(CodePreprocess, "normalizing for orientation", err)
		}
		batch[i] = data
	}

	tensor, err := onnx.NewBatchImageTensor(batch, 3, h, w)
	if err != nil {
		return nil, newError(CodePreprocess, "assembling orientation batch", err)
	}
	out, shape, err := e.cls.Run(tensor.Data, tensor.Shape)
	if err != nil {
		return nil, newError(CodeInference, "orientation inference", err)
	}
	if len(shape) != 2 || int(shape[0]) != len(crops) || shape[1] < 2 {
		return nil, newError(CodeInference,
			fmt.Sprintf("unexpected orientation output shape %v", shape), nil)
	}

	classes := int(shape[1])
	for i := range crops {
		score0 := out[i*classes]
		score180 := out[i*classes+1]
		if score180 > score0 {
			crops[i] = utils.Rotate180(crops[i])
		}
	}
	return crops, nil
}
