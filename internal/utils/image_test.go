package utils

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeExactStretches(t *testing.T) {
	img := imaging.New(100, 40, color.NRGBA{R: 10, A: 255})
	out, err := ResizeExact(img, 64, 64)
	require.NoError(t, err)
	b := out.Bounds()
	assert.Equal(t, 64, b.Dx())
	assert.Equal(t, 64, b.Dy())

	_, err = ResizeExact(img, 0, 64)
	assert.Error(t, err)
	_, err = ResizeExact(nil, 64, 64)
	assert.Error(t, err)
}

func TestResizeKeepHeight(t *testing.T) {
	img := imaging.New(200, 100, color.NRGBA{A: 255})
	out := ResizeKeepHeight(img, 50, 0)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())

	clamped := ResizeKeepHeight(img, 50, 60)
	assert.Equal(t, 60, clamped.Bounds().Dx())
}

func TestPadToSizeKeepsContentAtOrigin(t *testing.T) {
	img := imaging.New(10, 10, color.NRGBA{R: 200, A: 255})
	out := PadToSize(img, 30, 20)
	assert.Equal(t, 30, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())
	assert.Equal(t, uint8(200), out.NRGBAAt(5, 5).R)
	assert.Equal(t, uint8(0), out.NRGBAAt(25, 5).R)
}

func TestCropBox(t *testing.T) {
	img := imaging.New(50, 50, color.NRGBA{A: 255})
	crop, err := CropBox(img, NewBox(10, 10, 30, 20))
	require.NoError(t, err)
	assert.Equal(t, 20, crop.Bounds().Dx())
	assert.Equal(t, 10, crop.Bounds().Dy())

	_, err = CropBox(img, NewBox(100, 100, 110, 110))
	assert.Error(t, err)
}

func TestCropRotatedRectAxisAligned(t *testing.T) {
	img := imaging.New(60, 60, color.NRGBA{A: 255})
	// Mark a horizontal band so we can verify the extraction.
	for x := 10; x < 50; x++ {
		for y := 25; y < 35; y++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	rr := RotatedRect{Center: Point{X: 30, Y: 30}, Width: 40, Height: 10}
	crop, err := CropRotatedRect(img, rr)
	require.NoError(t, err)
	assert.Equal(t, 40, crop.Bounds().Dx())
	assert.Equal(t, 10, crop.Bounds().Dy())
	assert.Equal(t, uint8(255), crop.NRGBAAt(20, 5).R)
}

func TestCropRotatedRectDegenerate(t *testing.T) {
	img := imaging.New(10, 10, color.NRGBA{A: 255})
	_, err := CropRotatedRect(img, RotatedRect{Width: 0.2, Height: 0.1})
	assert.Error(t, err)
}

func TestSaveAndLoadImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.jpg")
	img := imaging.New(16, 16, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	require.NoError(t, SaveImage(img, path))

	loaded, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 16, loaded.Bounds().Dx())

	_, err = LoadImage(filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)
}

func TestNormalizeCHWCentered(t *testing.T) {
	img := imaging.New(2, 2, color.NRGBA{R: 255, G: 0, B: 127, A: 255})
	data, w, h, err := NormalizeCHW(img, MeanCentered, StdCentered)
	require.NoError(t, err)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	require.Len(t, data, 12)
	assert.InDelta(t, 1.0, data[0], 1e-5)   // R: (1 - 0.5) / 0.5
	assert.InDelta(t, -1.0, data[4], 1e-5)  // G: (0 - 0.5) / 0.5
	assert.InDelta(t, 0.0, data[8], 2e-2)   // B: ~0.498
}

func TestNormalizeCHWIntoBufferLengthChecked(t *testing.T) {
	img := imaging.New(4, 4, color.NRGBA{A: 255})
	err := NormalizeCHWInto(img, MeanCentered, StdCentered, make([]float32, 5))
	assert.Error(t, err)
}

func TestMultipleOf32(t *testing.T) {
	assert.Equal(t, 32, MultipleOf32(1))
	assert.Equal(t, 32, MultipleOf32(32))
	assert.Equal(t, 64, MultipleOf32(33))
	assert.Equal(t, 96, MultipleOf32(96))
}
