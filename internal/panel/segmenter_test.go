package panel

import (
	"testing"

	"github.com/manga-tools/pageseg/internal/blob"
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// whitePage builds a uniformly bright grayscale raster.
func whitePage(w, h int) *raster.Gray {
	g := raster.NewGray(w, h)
	for y := range h {
		for x := range w {
			g.SetAt(x, y, 255)
		}
	}
	return g
}

// drawPanelBorder draws a dark rectangle outline, the typical panel frame.
func drawPanelBorder(g *raster.Gray, x0, y0, x1, y1 int) {
	for x := x0; x <= x1; x++ {
		for t := 0; t < 2; t++ {
			g.SetAt(x, y0+t, 0)
			g.SetAt(x, y1-t, 0)
		}
	}
	for y := y0; y <= y1; y++ {
		for t := 0; t < 2; t++ {
			g.SetAt(x0+t, y, 0)
			g.SetAt(x1-t, y, 0)
		}
	}
}

func TestSegmentTwoPanelsAcrossGutter(t *testing.T) {
	// Two bordered panels separated by a 30px white vertical gutter.
	page := whitePage(300, 200)
	drawPanelBorder(page, 10, 10, 130, 190)
	drawPanelBorder(page, 160, 10, 290, 190)

	panels := Segment(page, DefaultConfig())
	require.Len(t, panels, 2)

	// No overlap: the union area equals the sum of individual areas.
	inter := geometry.IntersectionArea(panels[0].Box, panels[1].Box)
	assert.InDelta(t, 0.0, inter, 1e-9)

	for _, p := range panels {
		assert.Equal(t, TypeStandard, p.Type, "sealed rectangular frames are standard")
		assert.Greater(t, p.Solidity, 0.9)
		assert.Equal(t, -1, p.Parent)
	}

	// Manga order: right panel reads first.
	var right, left Panel
	for _, p := range panels {
		if p.Box.X > 140 {
			right = p
		} else {
			left = p
		}
	}
	assert.Equal(t, 1, right.ReadingOrder)
	assert.Equal(t, 2, left.ReadingOrder)
}

func TestSegmentFullBleedPage(t *testing.T) {
	// Entirely dark page: one panel covering everything.
	page := raster.NewGray(200, 150) // zero brightness everywhere
	panels := Segment(page, DefaultConfig())
	require.Len(t, panels, 1)
	assert.Equal(t, TypeFullBleed, panels[0].Type)
	assert.True(t, panels[0].TouchesEdge)
	assert.Equal(t, 1, panels[0].ReadingOrder)
}

func TestSegmentEmptyInputs(t *testing.T) {
	assert.Empty(t, Segment(raster.NewGray(0, 0), DefaultConfig()))
	// A blank white page has no panel blocks.
	assert.Empty(t, Segment(whitePage(100, 100), DefaultConfig()))
}

func TestRecursiveSplitFindsGutter(t *testing.T) {
	// Two solid blocks sharing one component window, separated by a
	// 11px vertical gap.
	mask := raster.NewGrid(100, 40)
	for y := range 40 {
		for x := range 100 {
			if x < 45 || x > 55 {
				mask.Set(x, y)
			}
		}
	}
	cfg := DefaultConfig()
	cfg.MinPanelSize = 5

	wins := recursiveSplit(mask, window{0, 0, 99, 39}, cfg.MaxSplitDepth, cfg, nil)
	require.Len(t, wins, 2)

	a, ok := shrinkToContent(mask, wins[0])
	require.True(t, ok)
	b, ok := shrinkToContent(mask, wins[1])
	require.True(t, ok)
	assert.Equal(t, 0, a.x0)
	assert.Equal(t, 44, a.x1)
	assert.Equal(t, 56, b.x0)
	assert.Equal(t, 99, b.x1)
}

func TestRecursiveSplitRespectsDepthCap(t *testing.T) {
	mask := raster.NewGrid(100, 40)
	for y := range 40 {
		for x := range 100 {
			if x != 50 {
				mask.Set(x, y)
			}
		}
	}
	cfg := DefaultConfig()
	cfg.MinPanelSize = 5

	// Depth zero accepts the window as-is, no split.
	wins := recursiveSplit(mask, window{0, 0, 99, 39}, 0, cfg, nil)
	assert.Len(t, wins, 1)
}

func TestRecursiveSplitSolidBlockDoesNotSplit(t *testing.T) {
	mask := raster.NewGrid(80, 80)
	for y := range 80 {
		for x := range 80 {
			mask.Set(x, y)
		}
	}
	cfg := DefaultConfig()
	wins := recursiveSplit(mask, window{0, 0, 79, 79}, cfg.MaxSplitDepth, cfg, nil)
	assert.Len(t, wins, 1)
}

func TestClassifyInsetPanels(t *testing.T) {
	panels := []Panel{
		{Box: geometry.NewBox(0, 0, 100, 100), Solidity: 0.95},
		{Box: geometry.NewBox(10, 10, 30, 30), Solidity: 0.95},
	}
	classify(panels, 400, 400, DefaultConfig())

	assert.Equal(t, TypeStandard, panels[0].Type)
	assert.Equal(t, -1, panels[0].Parent)
	assert.Equal(t, TypeInset, panels[1].Type)
	assert.Equal(t, 0, panels[1].Parent)
}

func TestClassifySolidityLadder(t *testing.T) {
	panels := []Panel{
		{Box: geometry.NewBox(10, 10, 50, 50), Solidity: 0.95},
		{Box: geometry.NewBox(100, 10, 50, 50), Solidity: 0.8},
		{Box: geometry.NewBox(200, 10, 50, 50), Solidity: 0.5},
	}
	classify(panels, 400, 400, DefaultConfig())
	assert.Equal(t, TypeStandard, panels[0].Type)
	assert.Equal(t, TypeBorderless, panels[1].Type)
	assert.Equal(t, TypeIrregular, panels[2].Type)
}

func TestApplyDefects(t *testing.T) {
	cfg := DefaultConfig()
	panels := []Panel{
		{Type: TypeStandard},
		{Type: TypeStandard},
		{Type: TypeFullBleed},
	}
	applyDefects(panels, []float64{12, 7, 20}, cfg)
	assert.Equal(t, TypeIrregular, panels[0].Type)
	assert.Equal(t, TypeBorderless, panels[1].Type)
	assert.Equal(t, TypeFullBleed, panels[2].Type, "full bleed wins over defects")
}

func TestMaxConvexityDefect(t *testing.T) {
	hull := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	c := blob.Contour{Points: []geometry.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10},
		{X: 5, Y: 5}, // notch reaching 5px inside the hull
		{X: 0, Y: 10},
	}}
	depth := maxConvexityDefect(c, hull)
	assert.InDelta(t, 5.0, depth, 1e-9)
}
