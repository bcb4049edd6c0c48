package utils

import "math"

// Point is a 2D point in image coordinates (y grows downward).
type Point struct {
	X, Y float64
}

// Box is an axis-aligned rectangle.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBox normalizes the corner order so Min <= Max on both axes.
func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{
		MinX: math.Min(x1, x2),
		MinY: math.Min(y1, y2),
		MaxX: math.Max(x1, x2),
		MaxY: math.Max(y1, y2),
	}
}

func (b Box) Width() float64  { return b.MaxX - b.MinX }
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Expand grows the box by frac of its size on each side, clamped to [0,w)x[0,h).
func (b Box) Expand(frac float64, w, h int) Box {
	dx := b.Width() * frac
	dy := b.Height() * frac
	return Box{
		MinX: math.Max(0, b.MinX-dx),
		MinY: math.Max(0, b.MinY-dy),
		MaxX: math.Min(float64(w-1), b.MaxX+dx),
		MaxY: math.Min(float64(h-1), b.MaxY+dy),
	}
}

// BoundingBox returns the axis-aligned bounds of a point set.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// PolygonArea returns the unsigned area of a closed polygon (shoelace).
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	s := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(s) / 2
}

// PolygonPerimeter returns the closed perimeter length of a polygon.
func PolygonPerimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	s := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		s += math.Hypot(pts[j].X-pts[i].X, pts[j].Y-pts[i].Y)
	}
	return s
}

// SimplifyPolygon reduces the number of points in a polygon using the
// Douglas-Peucker algorithm with the given tolerance epsilon.
func SimplifyPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	keep := make([]bool, len(pts))
	dpSimplify(pts, 0, len(pts)-1, epsilon, keep)
	keep[0] = true
	keep[len(pts)-1] = true
	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	return num / math.Hypot(vx, vy)
}

// OffsetPolygon dilates a closed polygon outward by distance d using round
// joins at the vertices. Returns nil when the input is degenerate, so callers
// can fall back to the original points.
func OffsetPolygon(pts []Point, d float64) []Point {
	if len(pts) < 3 || d <= 0 {
		return nil
	}
	cx, cy := 0.0, 0.0
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))

	n := len(pts)
	out := make([]Point, 0, n*3)
	for i := range pts {
		prev := pts[(i-1+n)%n]
		cur := pts[i]
		next := pts[(i+1)%n]

		n1, ok1 := outwardNormal(prev, cur, cx, cy)
		n2, ok2 := outwardNormal(cur, next, cx, cy)
		if !ok1 && !ok2 {
			continue
		}
		if !ok1 {
			n1 = n2
		}
		if !ok2 {
			n2 = n1
		}

		a1 := math.Atan2(n1.Y, n1.X)
		a2 := math.Atan2(n2.Y, n2.X)
		// Sweep the shorter way around the vertex.
		diff := a2 - a1
		for diff > math.Pi {
			diff -= 2 * math.Pi
		}
		for diff < -math.Pi {
			diff += 2 * math.Pi
		}
		steps := int(math.Abs(diff)/(math.Pi/12)) + 1
		for s := 0; s <= steps; s++ {
			a := a1 + diff*float64(s)/float64(steps)
			out = append(out, Point{X: cur.X + d*math.Cos(a), Y: cur.Y + d*math.Sin(a)})
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// outwardNormal returns the unit normal of edge ab that points away from the
// polygon centroid.
func outwardNormal(a, b Point, cx, cy float64) (Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return Point{}, false
	}
	nx, ny := dy/l, -dx/l
	mx, my := (a.X+b.X)/2, (a.Y+b.Y)/2
	if nx*(mx-cx)+ny*(my-cy) < 0 {
		nx, ny = -nx, -ny
	}
	return Point{X: nx, Y: ny}, true
}

// ConvexHull computes the convex hull of a set of points using the monotone
// chain algorithm. Returns the hull without duplicating the first point.
func ConvexHull(pts []Point) []Point {
	n := len(pts)
	if n <= 1 {
		return append([]Point(nil), pts...)
	}
	p := make([]Point, n)
	copy(p, pts)
	sortPoints(p)
	p = removeDuplicatePoints(p)
	n = len(p)
	if n <= 1 {
		return append([]Point(nil), p...)
	}
	lower := buildHalfHull(p, false)
	upper := buildHalfHull(p, true)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func removeDuplicatePoints(p []Point) []Point {
	q := p[:0]
	var last Point
	hasLast := false
	for _, pt := range p {
		if !hasLast || pt.X != last.X || pt.Y != last.Y {
			q = append(q, pt)
			last = pt
			hasLast = true
		}
	}
	return q
}

func buildHalfHull(p []Point, reverse bool) []Point {
	half := make([]Point, 0, len(p))
	for i := range p {
		pt := p[i]
		if reverse {
			pt = p[len(p)-1-i]
		}
		for len(half) >= 2 && cross(half[len(half)-2], half[len(half)-1], pt) <= 0 {
			half = half[:len(half)-1]
		}
		half = append(half, pt)
	}
	return half
}

func sortPoints(p []Point) {
	// insertion sort, n is small
	for i := 1; i < len(p); i++ {
		v := p[i]
		j := i - 1
		for j >= 0 && (p[j].X > v.X || (p[j].X == v.X && p[j].Y > v.Y)) {
			p[j+1] = p[j]
			j--
		}
		p[j+1] = v
	}
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// RotatedRect is a rectangle with arbitrary orientation. Angle is in degrees,
// measured from the positive x axis to the Width side.
type RotatedRect struct {
	Center Point
	Width  float64
	Height float64
	Angle  float64
}

// MinAreaRect computes the minimum-area enclosing rotated rectangle of a
// point set using rotating calipers over the convex hull.
func MinAreaRect(pts []Point) RotatedRect {
	if len(pts) == 0 {
		return RotatedRect{}
	}
	hull := ConvexHull(pts)
	if len(hull) < 3 {
		b := BoundingBox(pts)
		return RotatedRect{
			Center: Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2},
			Width:  math.Max(b.Width(), 1),
			Height: math.Max(b.Height(), 1),
		}
	}

	bestArea := math.Inf(1)
	var best RotatedRect
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		ux, uy := dx/l, dy/l
		vx, vy := -uy, ux
		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*ux + p.Y*uy
			t := p.X*vx + p.Y*vy
			minS = math.Min(minS, s)
			maxS = math.Max(maxS, s)
			minT = math.Min(minT, t)
			maxT = math.Max(maxT, t)
		}
		area := (maxS - minS) * (maxT - minT)
		if area < bestArea {
			bestArea = area
			cs := (minS + maxS) / 2
			ct := (minT + maxT) / 2
			best = RotatedRect{
				Center: Point{X: ux*cs + vx*ct, Y: uy*cs + vy*ct},
				Width:  maxS - minS,
				Height: maxT - minT,
				Angle:  math.Atan2(uy, ux) * 180 / math.Pi,
			}
		}
	}
	return best
}

// PointInPolygon reports whether p lies inside the polygon (ray crossing).
func PointInPolygon(p Point, poly []Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// PolygonMeanScore computes the mean of prob (w*h row-major) over the pixels
// covered by the polygon. Returns 0 for empty coverage.
func PolygonMeanScore(prob []float32, w, h int, poly []Point) float64 {
	if len(poly) < 3 || len(prob) != w*h {
		return 0
	}
	b := BoundingBox(poly)
	x0 := clampInt(int(math.Floor(b.MinX)), 0, w-1)
	x1 := clampInt(int(math.Ceil(b.MaxX)), 0, w-1)
	y0 := clampInt(int(math.Floor(b.MinY)), 0, h-1)
	y1 := clampInt(int(math.Ceil(b.MaxY)), 0, h-1)
	sum := 0.0
	count := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if PointInPolygon(Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}, poly) {
				sum += float64(prob[y*w+x])
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
