package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// LoadImage decodes an image from disk. JPEG, PNG and BMP are supported.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// SaveImage writes an image to disk; the format is derived from the extension.
func SaveImage(img image.Image, path string) error {
	if img == nil {
		return errors.New("nil image")
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// ResizeExact resizes to exactly w x h without preserving aspect ratio.
func ResizeExact(img image.Image, w, h int) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", w, h)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// ResizeKeepHeight scales the image to the given height, preserving aspect
// ratio, then clamps the width to maxW if it overshoots.
func ResizeKeepHeight(img image.Image, height, maxW int) *image.NRGBA {
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * float64(height) / float64(b.Dy())))
	if w < 1 {
		w = 1
	}
	if maxW > 0 && w > maxW {
		w = maxW
	}
	return imaging.Resize(img, w, height, imaging.Lanczos)
}

// PadToSize pastes the image onto a black canvas of w x h at the origin.
// The image is never stretched.
func PadToSize(img image.Image, w, h int) *image.NRGBA {
	canvas := imaging.New(w, h, color.NRGBA{0, 0, 0, 255})
	return imaging.Paste(canvas, img, image.Pt(0, 0))
}

// Rotate180 rotates the image by 180 degrees.
func Rotate180(img image.Image) *image.NRGBA {
	return imaging.Rotate180(img)
}

// CropBox extracts the axis-aligned region described by b.
func CropBox(img image.Image, b Box) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	r := image.Rect(int(b.MinX), int(b.MinY), int(math.Ceil(b.MaxX)), int(math.Ceil(b.MaxY)))
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, errors.New("crop region is empty")
	}
	return imaging.Crop(img, r), nil
}

// CropRotatedRect extracts the contents of a rotated rectangle by sampling
// the source through the inverse rotation, bilinear interpolated.
func CropRotatedRect(img image.Image, rr RotatedRect) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	w := int(math.Round(rr.Width))
	h := int(math.Round(rr.Height))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("degenerate rectangle %fx%f", rr.Width, rr.Height)
	}

	src := imaging.Clone(img)
	rad := rr.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			// Destination pixel relative to the rectangle center, mapped
			// back into source coordinates.
			dx := float64(x) - float64(w-1)/2
			dy := float64(y) - float64(h-1)/2
			sx := rr.Center.X + dx*cos - dy*sin
			sy := rr.Center.Y + dx*sin + dy*cos
			dst.SetNRGBA(x, y, bilinearSample(src, sx, sy))
		}
	}
	return dst, nil
}

func bilinearSample(src *image.NRGBA, x, y float64) color.NRGBA {
	b := src.Bounds()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	sample := func(px, py int) color.NRGBA {
		px = clampInt(px, b.Min.X, b.Max.X-1)
		py = clampInt(py, b.Min.Y, b.Max.Y-1)
		return src.NRGBAAt(px, py)
	}
	c00 := sample(x0, y0)
	c10 := sample(x0+1, y0)
	c01 := sample(x0, y0+1)
	c11 := sample(x0+1, y0+1)

	lerp := func(a, b uint8, t float64) float64 {
		return float64(a)*(1-t) + float64(b)*t
	}
	blend := func(a00, a10, a01, a11 uint8) uint8 {
		top := lerp(a00, a10, fx)
		bot := lerp(a01, a11, fx)
		return uint8(math.Round(top*(1-fy) + bot*fy))
	}
	return color.NRGBA{
		R: blend(c00.R, c10.R, c01.R, c11.R),
		G: blend(c00.G, c10.G, c01.G, c11.G),
		B: blend(c00.B, c10.B, c01.B, c11.B),
		A: 255,
	}
}
