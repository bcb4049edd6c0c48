package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

func TestRecTargetWidthClampsRatio(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want int
	}{
		{"narrow crop uses minimum ratio", 10, 48, 96},       // ratio clamped to 1.5
		{"very wide crop uses maximum ratio", 4800, 48, 384}, // ratio clamped to 8
		{"mid ratio rounds up to 32", 144, 48, 160},
		{"degenerate size falls back", 0, 0, minBatchWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recTargetWidth(tt.w, tt.h, 48))
		})
	}
}

func TestBatchWidthLowerClamp(t *testing.T) {
	narrow := imaging.New(10, 48, color.NRGBA{})
	assert.Equal(t, minBatchWidth, batchWidth([]*image.NRGBA{narrow}, 48))
}

func TestBatchWidthUpperClamp(t *testing.T) {
	wide := imaging.New(4800, 48, color.NRGBA{})
	assert.Equal(t, maxBatchWidth, batchWidth([]*image.NRGBA{wide}, 48))
}

func TestBatchWidthUsesWidestCrop(t *testing.T) {
	a := imaging.New(144, 48, color.NRGBA{})
	b := imaging.New(300, 48, color.NRGBA{})
	// 300/48 = 6.25 -> 300 -> rounds to 320
	assert.Equal(t, 320, batchWidth([]*image.NRGBA{a, b}, 48))
}

func TestPrepareRecBatchPadsWithoutStretching(t *testing.T) {
	crop := imaging.New(100, 50, color.NRGBA{R: 255, A: 255})
	out, width := prepareRecBatch([]*image.NRGBA{crop}, 48)
	assert.Len(t, out, 1)
	b := out[0].Bounds()
	assert.Equal(t, width, b.Dx())
	assert.Equal(t, 48, b.Dy())
	// The scaled content occupies 96px; the canvas to the right stays black.
	assert.Equal(t, uint8(0), out[0].NRGBAAt(width-1, 24).R)
	assert.Equal(t, uint8(255), out[0].NRGBAAt(10, 24).R)
}
