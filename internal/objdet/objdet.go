// Package objdet is the boundary to the external character detector. The
// detector model runs out of process or behind its own runtime; this package
// only defines the exchange types and the box post-processing.
package objdet

import (
	"image"
	"sort"

	"github.com/railsight/sidenum/internal/utils"
)

// Labels maps detector class indices to characters. The alphabet skips "O"
// to avoid confusion with zero.
var Labels = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J",
	"K", "L", "M", "N", "P", "Q", "R", "S", "T", "U",
	"V", "W", "X", "Y", "Z", "0", "1", "2", "3", "4",
	"5", "6", "7", "8", "9",
}

// Detection is one labeled box from the character detector.
type Detection struct {
	Box   utils.Box
	Class int
	Score float64
}

// Detector produces labeled character boxes for a frame.
type Detector interface {
	Predict(img image.Image) ([]Detection, error)
}

// Label returns the character for a class index, or "" when out of range.
func Label(class int) string {
	if class < 0 || class >= len(Labels) {
		return ""
	}
	return Labels[class]
}

// ComposeNumber reads the frame's number directly from the detections:
// boxes touching the frame margin are dropped, the rest are sorted by their
// left edge and their labels concatenated.
func ComposeNumber(dets []Detection, imgW, imgH int, margin float64) string {
	type digit struct {
		left  float64
		class int
	}
	digits := make([]digit, 0, len(dets))
	for _, d := range dets {
		if d.Box.MinX < margin || d.Box.MinY < margin ||
			d.Box.MaxX > float64(imgW)-margin || d.Box.MaxY > float64(imgH)-margin {
			continue
		}
		digits = append(digits, digit{left: d.Box.MinX, class: d.Class})
	}
	sort.Slice(digits, func(i, j int) bool { return digits[i].left < digits[j].left })

	out := ""
	for _, d := range digits {
		out += Label(d.class)
	}
	return out
}

// FilterAndExpand prepares detections for the text recognizer: boxes within
// border pixels of the frame edge are dropped and the survivors grow by
// expand on each side, clipped to the frame.
func FilterAndExpand(dets []Detection, imgW, imgH int, border, expand float64) []utils.Box {
	var out []utils.Box
	for _, d := range dets {
		b := d.Box
		if b.MinX < border || b.MinY < border ||
			b.MaxX > float64(imgW)-border || b.MaxY > float64(imgH)-border {
			continue
		}
		e := b.Expand(expand, imgW, imgH)
		if e.MinX >= e.MaxX || e.MinY >= e.MaxY {
			continue
		}
		out = append(out, e)
	}
	return out
}
