package blob

import (
	"testing"

	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridWithRect(w, h, x0, y0, x1, y1 int) *raster.Grid {
	g := raster.NewGrid(w, h)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			g.Set(x, y)
		}
	}
	return g
}

func TestLabelSingleComponent(t *testing.T) {
	g := gridWithRect(20, 20, 5, 5, 9, 9)
	blobs, m := Label(g)
	require.Len(t, blobs, 1)

	b := blobs[0]
	assert.Equal(t, 1, b.Label)
	assert.Equal(t, 25, b.PixelCount)
	assert.InDelta(t, 1.0, b.Density, 1e-9)
	assert.Equal(t, geometry.NewBox(5, 5, 5, 5), b.Box)
	assert.Equal(t, 1, m.At(7, 7))
	assert.Equal(t, 0, m.At(0, 0))
}

func TestLabelDiagonalPixelsAre8Connected(t *testing.T) {
	g := raster.NewGrid(10, 10)
	g.Set(2, 2)
	g.Set(3, 3)
	g.Set(4, 4)
	blobs, _ := Label(g)
	require.Len(t, blobs, 1)
	assert.Equal(t, 3, blobs[0].PixelCount)
}

func TestLabelMultipleComponents(t *testing.T) {
	g := raster.NewGrid(30, 10)
	for x := 0; x < 5; x++ {
		g.Set(x, 0)
		g.Set(x+20, 0)
	}
	blobs, _ := Label(g)
	require.Len(t, blobs, 2)
	// Scan order: left blob first.
	assert.Less(t, blobs[0].Box.X, blobs[1].Box.X)
}

func TestLabelEmptyGrid(t *testing.T) {
	blobs, _ := Label(raster.NewGrid(10, 10))
	assert.Empty(t, blobs)
}

func TestTraceRectangleContour(t *testing.T) {
	g := gridWithRect(20, 20, 5, 5, 14, 9)
	blobs, m := Label(g)
	require.Len(t, blobs, 1)

	c := Trace(m, blobs[0], TraceOptions{})
	require.GreaterOrEqual(t, len(c.Points), 4)

	// Shoelace area of a 10x5 pixel-center rectangle boundary is 9*4.
	assert.InDelta(t, 36.0, c.Area(), 1e-9)

	// Every contour point lies on the component.
	for _, p := range c.Points {
		assert.Equal(t, 1, m.At(int(p.X), int(p.Y)))
	}
}

func TestTraceSinglePixel(t *testing.T) {
	g := raster.NewGrid(5, 5)
	g.Set(2, 2)
	blobs, m := Label(g)
	c := Trace(m, blobs[0], TraceOptions{})
	require.Len(t, c.Points, 1)
	assert.InDelta(t, 0.0, c.Area(), 1e-9)
}

func TestTraceRespectsStepCap(t *testing.T) {
	g := gridWithRect(50, 50, 0, 0, 49, 49)
	blobs, m := Label(g)
	c := Trace(m, blobs[0], TraceOptions{MaxSteps: 5})
	// The cap stops the walk early; partial contours are acceptable.
	assert.LessOrEqual(t, len(c.Points), 7)
}

func TestConvexHullSquareWithInterior(t *testing.T) {
	pts := []geometry.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
		{X: 5, Y: 5}, {X: 3, Y: 7}, // interior points must be dropped
	}
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	assert.InDelta(t, 100.0, PolygonArea(hull), 1e-9)
}

func TestConvexHullDegenerate(t *testing.T) {
	assert.Len(t, ConvexHull(nil), 0)
	assert.Len(t, ConvexHull([]geometry.Point{{X: 1, Y: 1}}), 1)
	two := ConvexHull([]geometry.Point{{X: 0, Y: 0}, {X: 5, Y: 5}})
	assert.Len(t, two, 2)
	// Collinear points collapse to the extreme pair.
	col := ConvexHull([]geometry.Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}})
	assert.LessOrEqual(t, len(col), 2)
}

func TestCornersOfSquareHull(t *testing.T) {
	hull := []geometry.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}
	corners, ok := Corners(hull, CornerOptions{SearchRadius: 0})
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 0, Y: 0}, corners[0])
	assert.Equal(t, geometry.Point{X: 10, Y: 0}, corners[1])
	assert.Equal(t, geometry.Point{X: 10, Y: 10}, corners[2])
	assert.Equal(t, geometry.Point{X: 0, Y: 10}, corners[3])
}

func TestCornersRefinementOnlyGrowsArea(t *testing.T) {
	hull := []geometry.Point{
		{X: 0, Y: 0}, {X: 10, Y: 1}, {X: 9, Y: 10}, {X: 1, Y: 9},
	}
	base, ok := Corners(hull, CornerOptions{SearchRadius: 0})
	require.True(t, ok)
	refined, ok := Corners(hull, CornerOptions{SearchRadius: 3})
	require.True(t, ok)
	assert.GreaterOrEqual(t, quadArea(refined), quadArea(base))
}

func TestCornersDegenerateHull(t *testing.T) {
	_, ok := Corners([]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, DefaultCornerOptions())
	assert.False(t, ok)
}

func TestBoxCorners(t *testing.T) {
	c := BoxCorners(geometry.NewBox(1, 2, 10, 20))
	assert.Equal(t, geometry.Point{X: 1, Y: 2}, c[0])
	assert.Equal(t, geometry.Point{X: 11, Y: 22}, c[2])
}
