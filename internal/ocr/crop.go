package ocr

import (
	"image"
	"math"

	"github.com/railsight/sidenum/internal/utils"
)

const (
	minAspectRatio = 1.5
	maxAspectRatio = 8.0
	minBatchWidth  = 160
	maxBatchWidth  = 512
)

// recTargetWidth computes the model input width for a crop of the given
// size: the aspect ratio is clamped, scaled to the recognition height and
// rounded up to a multiple of 32.
func recTargetWidth(w, h, recHeight int) int {
	if w <= 0 || h <= 0 {
		return minBatchWidth
	}
	ratio := float64(w) / float64(h)
	ratio = math.Min(math.Max(ratio, minAspectRatio), maxAspectRatio)
	target := int(math.Ceil(float64(recHeight)*ratio/32)) * 32
	return target
}

// batchWidth picks the shared width for a recognition batch: the widest
// per-crop target, clamped to the supported range.
func batchWidth(crops []*image.NRGBA, recHeight int) int {
	widest := 0
	for _, c := range crops {
		b := c.Bounds()
		if tw := recTargetWidth(b.Dx(), b.Dy(), recHeight); tw > widest {
			widest = tw
		}
	}
	if widest < minBatchWidth {
		widest = minBatchWidth
	}
	if widest > maxBatchWidth {
		widest = maxBatchWidth
	}
	return widest
}

// prepareRecBatch scales every crop to the recognition height and pads it
// onto the shared canvas width. Crops are padded, never stretched.
func prepareRecBatch(crops []*image.NRGBA, recHeight int) ([]*image.NRGBA, int) {
	width := batchWidth(crops, recHeight)
	out := make([]*image.NRGBA, len(crops))
	for i, c := range crops {
		out[i] = utils.PadToSize(utils.ResizeKeepHeight(c, recHeight, width), width, recHeight)
	}
	return out, width
}
