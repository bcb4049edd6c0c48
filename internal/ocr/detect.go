package ocr

import (
	"fmt"
	"image"

	"github.com/railsight/sidenum/internal/mempool"
	"github.com/railsight/sidenum/internal/onnx"
	"github.com/railsight/sidenum/internal/utils"
)

// detect runs DB text detection on img and returns the region crops together
// with their polygons in original image coordinates. Crops and polygons are
// ordered bottom-most region first.
func (e *Engine) detect(img image.Image) ([]*image.NRGBA, [][]utils.Point, error) {
	if e.det == nil {
		return nil, nil, newError(CodeNotInitialized, "detection session closed", nil)
	}
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()

	// The detection model wants spatial dims that are multiples of 32.
	// The frame is stretched, not letterboxed; polygons are scaled back.
	inW := utils.MultipleOf32(origW)
	inH := utils.MultipleOf32(origH)
	resized, err := utils.ResizeExact(img, inW, inH)
	if err != nil {
		return nil, nil, newError(CodePreprocess, "resizing for detection", err)
	}

	buf := mempool.GetFloat32(3 * inW * inH)
	defer mempool.PutFloat32(buf)
	if err := utils.NormalizeCHWInto(resized, utils.MeanImageNet, utils.StdImageNet, buf); err != nil {
		return nil, nil, newError(CodePreprocess, "normalizing for detection", err)
	}
	tensor, err := onnx.NewImageTensor(buf, 3, inH, inW)
	if err != nil {
		return nil, nil, newError(CodePreprocess, "assembling detection input", err)
	}

	out, shape, err := e.det.Run(tensor.Data, tensor.Shape)
	if err != nil {
		return nil, nil, newError(CodeInference, "detection inference", err)
	}
	if len(shape) != 4 || shape[1] != 1 {
		return nil, nil, newError(CodeInference,
			fmt.Sprintf("unexpected detection output shape %v", shape), nil)
	}
	mapH, mapW := int(shape[2]), int(shape[3])
	if len(out) < mapW*mapH {
		return nil, nil, newError(CodeInference, "detection output shorter than map", nil)
	}

	polys := e.probMapToPolygons(out[:mapW*mapH], mapW, mapH)

	// Back to original coordinates.
	sx := float64(origW) / float64(mapW)
	sy := float64(origH) / float64(mapH)
	for _, poly := range polys {
		for i := range poly {
			poly[i].X = clampF(poly[i].X*sx, 0, float64(origW-1))
			poly[i].Y = clampF(poly[i].Y*sy, 0, float64(origH-1))
		}
	}

	crops := make([]*image.NRGBA, 0, len(polys))
	kept := make([][]utils.Point, 0, len(polys))
	for _, poly := range polys {
		crop, err := cropPolygon(img, poly)
		if err != nil {
			e.log.Debug("dropping undecodable region", "err", err)
			continue
		}
		crops = append(crops, crop)
		kept = append(kept, poly)
	}

	// Regions are discovered top to bottom; downstream wants the
	// bottom-most first.
	reverse(crops)
	reverse(kept)
	return crops, kept, nil
}

// probMapToPolygons binarizes the probability map, extracts connected
// components, and turns each sufficiently large, sufficiently confident
// component into an unclipped polygon.
func (e *Engine) probMapToPolygons(prob []float32, w, h int) [][]utils.Point {
	bitmap := mempool.GetBool(w * h)
	defer mempool.PutBool(bitmap)
	for i, v := range prob {
		bitmap[i] = v > e.cfg.Thresh
	}

	labels, count := labelComponents(bitmap, w, h)
	polys := make([][]utils.Point, 0, count)
	for label := 1; label <= count; label++ {
		contour := traceContour(labels, w, h, label)
		if len(contour) < 3 {
			continue
		}
		if utils.PolygonArea(contour) < e.cfg.MinArea {
			continue
		}
		eps := 0.005 * utils.PolygonPerimeter(contour)
		poly := utils.SimplifyPolygon(contour, eps)
		if len(poly) < 3 {
			continue
		}
		if utils.PolygonMeanScore(prob, w, h, poly) < float64(e.cfg.Thresh) {
			continue
		}
		area := utils.PolygonArea(poly)
		perim := utils.PolygonPerimeter(poly)
		if perim > 0 {
			dist := area * e.cfg.UnclipRatio / perim
			if expanded := utils.OffsetPolygon(poly, dist); expanded != nil {
				poly = expanded
			}
		}
		polys = append(polys, poly)
	}
	return polys
}

// cropPolygon extracts the rotated rectangle enclosing poly. Falls back to
// the axis-aligned bounding box when the rotated extraction degenerates.
func cropPolygon(img image.Image, poly []utils.Point) (*image.NRGBA, error) {
	rr := utils.MinAreaRect(poly)
	if rr.Height > rr.Width {
		rr.Width, rr.Height = rr.Height, rr.Width
		rr.Angle += 90
	}
	crop, err := utils.CropRotatedRect(img, rr)
	if err == nil {
		return crop, nil
	}
	return utils.CropBox(img, utils.BoundingBox(poly))
}

// labelComponents assigns 8-connected component labels to set bitmap pixels.
// Returns the label map and the number of components.
func labelComponents(bitmap []bool, w, h int) ([]int, int) {
	labels := make([]int, w*h)
	next := 0
	queue := make([]int, 0, 256)
	for start := range bitmap {
		if !bitmap[start] || labels[start] != 0 {
			continue
		}
		next++
		labels[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if bitmap[ni] && labels[ni] == 0 {
						labels[ni] = next
						queue = append(queue, ni)
					}
				}
			}
		}
	}
	return labels, next
}

// traceContour extracts the outer boundary of a labeled component with
// Moore-neighbor tracing. Collinear runs are collapsed as points are added.
func traceContour(labels []int, w, h, label int) []utils.Point {
	sx, sy := -1, -1
	for y := 0; y < h && sx < 0; y++ {
		for x := range w {
			if labels[y*w+x] == label {
				sx, sy = x, y
				break
			}
		}
	}
	if sx < 0 {
		return nil
	}

	isLabel := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
	}
	// 8-neighborhood, clockwise from east
	ndx := [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy := [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	dirIndex := func(dx, dy int) int {
		for i := range 8 {
			if ndx[i] == dx && ndy[i] == dy {
				return i
			}
		}
		return 0
	}

	pts := make([]utils.Point, 0, 64)
	addPoint := func(x, y int) {
		p := utils.Point{X: float64(x), Y: float64(y)}
		if n := len(pts); n >= 2 {
			a, b := pts[n-2], pts[n-1]
			if (b.X-a.X)*(p.Y-b.Y)-(b.Y-a.Y)*(p.X-b.X) == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	cx, cy := sx, sy
	bx, by := sx-1, sy
	startCx, startCy, startBx, startBy := cx, cy, bx, by
	addPoint(cx, cy)

	for steps := 0; steps < w*h*4+8; steps++ {
		found := false
		start := (dirIndex(bx-cx, by-cy) + 1) % 8
		for k := range 8 {
			i := (start + k) % 8
			tx, ty := cx+ndx[i], cy+ndy[i]
			if isLabel(tx, ty) {
				bx, by = cx, cy
				cx, cy = tx, ty
				found = true
				break
			}
			bx, by = tx, ty
		}
		if !found {
			break
		}
		if last := pts[len(pts)-1]; last.X != float64(cx) || last.Y != float64(cy) {
			addPoint(cx, cy)
		}
		if cx == startCx && cy == startCy && bx == startBx && by == startBy {
			break
		}
	}

	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
