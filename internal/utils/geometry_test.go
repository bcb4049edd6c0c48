package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) []Point {
	return []Point{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func TestPolygonAreaAndPerimeter(t *testing.T) {
	sq := square(0, 0, 10)
	assert.InDelta(t, 100, PolygonArea(sq), 1e-9)
	assert.InDelta(t, 40, PolygonPerimeter(sq), 1e-9)

	assert.Zero(t, PolygonArea([]Point{{X: 1, Y: 1}}))
}

func TestSimplifyPolygonDropsCollinearPoints(t *testing.T) {
	pts := []Point{
		{X: 0, Y: 0}, {X: 5, Y: 0.01}, {X: 10, Y: 0},
		{X: 10, Y: 10}, {X: 0, Y: 10},
	}
	out := SimplifyPolygon(pts, 0.5)
	assert.Len(t, out, 4)
}

func TestSimplifyPolygonKeepsSignificantPoints(t *testing.T) {
	pts := []Point{
		{X: 0, Y: 0}, {X: 5, Y: 4}, {X: 10, Y: 0},
		{X: 10, Y: 10}, {X: 0, Y: 10},
	}
	out := SimplifyPolygon(pts, 0.5)
	assert.Len(t, out, 5)
}

func TestOffsetPolygonGrowsArea(t *testing.T) {
	sq := square(20, 20, 10)
	base := PolygonArea(sq)
	prev := base
	for _, d := range []float64{1, 2, 4, 8} {
		out := OffsetPolygon(sq, d)
		require.NotNil(t, out)
		area := PolygonArea(out)
		assert.Greater(t, area, prev, "offset %f must grow the area", d)
		prev = area
	}
}

func TestOffsetPolygonDegenerateInput(t *testing.T) {
	assert.Nil(t, OffsetPolygon([]Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, 3))
	assert.Nil(t, OffsetPolygon(square(0, 0, 10), 0))
}

func TestOffsetPolygonContainsOriginal(t *testing.T) {
	sq := square(50, 50, 20)
	out := OffsetPolygon(sq, 5)
	require.NotNil(t, out)
	for _, p := range sq {
		assert.True(t, PointInPolygon(Point{X: p.X + 0.1, Y: p.Y + 0.1}, out) ||
			PointInPolygon(Point{X: p.X - 0.1, Y: p.Y - 0.1}, out))
	}
}

func TestMinAreaRectAxisAligned(t *testing.T) {
	rr := MinAreaRect(square(10, 20, 30))
	long := math.Max(rr.Width, rr.Height)
	short := math.Min(rr.Width, rr.Height)
	assert.InDelta(t, 30, long, 1e-6)
	assert.InDelta(t, 30, short, 1e-6)
	assert.InDelta(t, 25, rr.Center.X, 1e-6)
	assert.InDelta(t, 35, rr.Center.Y, 1e-6)
}

func TestMinAreaRectRotated(t *testing.T) {
	// A 45-degree diamond: the enclosing rectangle is rotated, not the AABB.
	pts := []Point{{X: 10, Y: 0}, {X: 20, Y: 10}, {X: 10, Y: 20}, {X: 0, Y: 10}}
	rr := MinAreaRect(pts)
	area := rr.Width * rr.Height
	assert.InDelta(t, 200, area, 1e-6)
}

func TestMinAreaRectDegenerate(t *testing.T) {
	rr := MinAreaRect([]Point{{X: 5, Y: 5}})
	assert.GreaterOrEqual(t, rr.Width, 1.0)
	assert.GreaterOrEqual(t, rr.Height, 1.0)
}

func TestConvexHull(t *testing.T) {
	pts := append(square(0, 0, 10), Point{X: 5, Y: 5})
	hull := ConvexHull(pts)
	assert.Len(t, hull, 4)
}

func TestPointInPolygon(t *testing.T) {
	sq := square(0, 0, 10)
	assert.True(t, PointInPolygon(Point{X: 5, Y: 5}, sq))
	assert.False(t, PointInPolygon(Point{X: 15, Y: 5}, sq))
}

func TestPolygonMeanScore(t *testing.T) {
	w, h := 10, 10
	prob := make([]float32, w*h)
	for y := 2; y < 8; y++ {
		for x := 2; x < 8; x++ {
			prob[y*w+x] = 1.0
		}
	}
	inner := []Point{{X: 3, Y: 3}, {X: 7, Y: 3}, {X: 7, Y: 7}, {X: 3, Y: 7}}
	assert.InDelta(t, 1.0, PolygonMeanScore(prob, w, h, inner), 1e-9)

	outer := []Point{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 9, Y: 9}, {X: 0, Y: 9}}
	mid := PolygonMeanScore(prob, w, h, outer)
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 1.0)
}

func TestBoxExpandClamps(t *testing.T) {
	b := NewBox(0, 0, 10, 10)
	e := b.Expand(0.5, 100, 100)
	assert.Equal(t, 0.0, e.MinX)
	assert.InDelta(t, 15, e.MaxX, 1e-9)

	edge := NewBox(90, 90, 99, 99)
	e = edge.Expand(0.5, 100, 100)
	assert.InDelta(t, 99, e.MaxX, 1e-9)
}

func TestBoundingBox(t *testing.T) {
	b := BoundingBox([]Point{{X: 3, Y: 7}, {X: -1, Y: 2}, {X: 5, Y: 4}})
	assert.Equal(t, -1.0, b.MinX)
	assert.Equal(t, 2.0, b.MinY)
	assert.Equal(t, 5.0, b.MaxX)
	assert.Equal(t, 7.0, b.MaxY)
}
