package utils

import (
	"errors"
	"fmt"
	"image"
)

// Normalization presets for the recognition models. Detection uses the
// ImageNet statistics, classification and recognition use symmetric 0.5.
var (
	MeanImageNet = [3]float32{0.485, 0.456, 0.406}
	StdImageNet  = [3]float32{0.229, 0.224, 0.225}
	MeanCentered = [3]float32{0.5, 0.5, 0.5}
	StdCentered  = [3]float32{0.5, 0.5, 0.5}
)

// NormalizeCHW converts an image to a float32 tensor in CHW layout, scaling
// each channel to (v/255 - mean) / std.
func NormalizeCHW(img image.Image, mean, std [3]float32) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, errors.New("nil image")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := make([]float32, 3*w*h)
	if err := NormalizeCHWInto(img, mean, std, buf); err != nil {
		return nil, 0, 0, err
	}
	return buf, w, h, nil
}

// NormalizeCHWInto writes the normalized CHW tensor into buf, which must be
// exactly 3*w*h long. This variant lets hot paths reuse pooled buffers.
func NormalizeCHWInto(img image.Image, mean, std [3]float32, buf []float32) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(buf) != 3*w*h {
		return fmt.Errorf("buffer length %d, want %d", len(buf), 3*w*h)
	}
	plane := w * h
	for y := range h {
		for x := range w {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*w + x
			buf[i] = (float32(r>>8)/255 - mean[0]) / std[0]
			buf[plane+i] = (float32(g>>8)/255 - mean[1]) / std[1]
			buf[2*plane+i] = (float32(bb>>8)/255 - mean[2]) / std[2]
		}
	}
	return nil
}

// MultipleOf32 rounds n up to the nearest positive multiple of 32.
func MultipleOf32(n int) int {
	if n < 32 {
		return 32
	}
	return (n + 31) / 32 * 32
}
