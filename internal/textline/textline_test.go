package textline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manga-tools/pageseg/internal/blob"
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/order"
	"github.com/manga-tools/pageseg/internal/raster"
)

func whiteGray(w, h int) *raster.Gray {
	g := raster.NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.SetAt(x, y, 255)
		}
	}
	return g
}

func darkRect(g *raster.Gray, x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			g.SetAt(x, y, 0)
		}
	}
}

func mainBlob(label int, x, y, w, h float64) blob.Blob {
	return blob.Blob{
		Label:      label,
		Box:        geometry.NewBox(x, y, w, h),
		PixelCount: int(w * h),
		Density:    1,
	}
}

func TestSplitFuriganaAttachesSmallNeighbor(t *testing.T) {
	cfg := DefaultConfig()
	host := mainBlob(1, 100, 100, 24, 24)
	ruby := mainBlob(2, 102, 88, 20, 8)

	mains, attachments := splitFurigana([]blob.Blob{host, ruby}, order.OrientationRows, cfg)

	require.Len(t, mains, 1)
	assert.Equal(t, 1, mains[0].Label)
	require.Contains(t, attachments, 1)
	require.Len(t, attachments[1], 1)
	assert.Equal(t, 2, attachments[1][0].Label)
}

func TestSplitFuriganaKeepsIsolatedSmallBlob(t *testing.T) {
	cfg := DefaultConfig()
	host := mainBlob(1, 100, 100, 24, 24)
	// Same size as a ruby blob but far beyond reach.
	stray := mainBlob(2, 500, 500, 20, 8)

	mains, attachments := splitFurigana([]blob.Blob{host, stray}, order.OrientationRows, cfg)

	assert.Len(t, mains, 2)
	assert.Empty(t, attachments)
}

func TestSplitFuriganaRespectsRatio(t *testing.T) {
	cfg := DefaultConfig()
	host := mainBlob(1, 100, 100, 24, 24)
	// Height 14 is under the absolute cap but 14/24 > 0.5.
	near := mainBlob(2, 102, 84, 20, 14)

	mains, attachments := splitFurigana([]blob.Blob{host, near}, order.OrientationRows, cfg)

	assert.Len(t, mains, 2)
	assert.Empty(t, attachments)
}

func TestSplitFuriganaVerticalUsesWidth(t *testing.T) {
	cfg := DefaultConfig()
	host := mainBlob(1, 100, 100, 24, 60)
	ruby := mainBlob(2, 126, 105, 8, 40)

	mains, attachments := splitFurigana([]blob.Blob{host, ruby}, order.OrientationColumns, cfg)

	require.Len(t, mains, 1)
	require.Contains(t, attachments, 1)
}

func TestFilterComponentsRejectsCrossElongated(t *testing.T) {
	cfg := DefaultConfig()
	rule := mainBlob(1, 0, 0, 2, 100)
	glyph := mainBlob(2, 10, 10, 14, 14)

	kept := filterComponents([]blob.Blob{rule, glyph}, order.OrientationRows, cfg)

	require.Len(t, kept, 1)
	assert.Equal(t, 2, kept[0].Label)

	// The same rule is a plausible column in vertical text.
	kept = filterComponents([]blob.Blob{rule, glyph}, order.OrientationColumns, cfg)
	assert.Len(t, kept, 2)
}

func TestFilterComponentsAreaAndDensity(t *testing.T) {
	cfg := DefaultConfig()
	speck := mainBlob(1, 0, 0, 2, 2)
	hollow := blob.Blob{Label: 2, Box: geometry.NewBox(10, 10, 40, 40), PixelCount: 60, Density: 0.0375}
	glyph := mainBlob(3, 60, 10, 14, 14)

	kept := filterComponents([]blob.Blob{speck, hollow, glyph}, order.OrientationRows, cfg)

	require.Len(t, kept, 1)
	assert.Equal(t, 3, kept[0].Label)
}

func TestEstimateCharCount(t *testing.T) {
	members := []blob.Blob{
		mainBlob(1, 0, 0, 15, 15),
		mainBlob(2, 20, 0, 15, 15),
	}
	box := geometry.NewBox(0, 0, 60, 15)

	n := estimateCharCount(box, members, order.OrientationRows)
	assert.Equal(t, 4, n)

	// Estimate never drops below the component count.
	narrow := geometry.NewBox(0, 0, 16, 15)
	assert.Equal(t, 2, estimateCharCount(narrow, members, order.OrientationRows))
}

func TestSizeConsistency(t *testing.T) {
	uniform := []blob.Blob{
		mainBlob(1, 0, 0, 15, 20),
		mainBlob(2, 20, 0, 15, 20),
	}
	assert.InDelta(t, 1.0, sizeConsistency(uniform, order.OrientationRows), 1e-9)

	mixed := []blob.Blob{
		mainBlob(1, 0, 0, 15, 10),
		mainBlob(2, 20, 0, 15, 30),
	}
	assert.InDelta(t, 0.5, sizeConsistency(mixed, order.OrientationRows), 1e-9)

	assert.Equal(t, 0.0, sizeConsistency(nil, order.OrientationRows))
}

func TestGroupLinesRightToLeftMembers(t *testing.T) {
	cfg := DefaultConfig()
	mains := []blob.Blob{
		mainBlob(1, 10, 30, 30, 16),
		mainBlob(2, 80, 30, 30, 16),
	}

	lines := groupLines(mains, order.OrientationRows, cfg)

	require.Len(t, lines, 1)
	require.Len(t, lines[0].Blobs, 2)
	assert.Equal(t, 2, lines[0].Blobs[0].Label)
	assert.Equal(t, 1, lines[0].Blobs[1].Label)
	assert.Equal(t, order.OrientationRows, lines[0].Orientation)
}

func TestExtractHorizontalLine(t *testing.T) {
	g := whiteGray(200, 80)
	darkRect(g, 20, 30, 40, 16)
	darkRect(g, 90, 30, 50, 16)

	cfg := DefaultConfig()
	cfg.Orientation = order.OrientationRows
	lines := Extract(g, cfg)

	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, 1, line.ReadingOrder)
	require.Len(t, line.Blobs, 2)
	// Manga order puts the rightmost word first.
	assert.Greater(t, line.Blobs[0].Box.X, line.Blobs[1].Box.X)
	assert.GreaterOrEqual(t, line.CharCount, 2)
	assert.Greater(t, line.Confidence, 0.8)
}

func TestExtractVerticalColumns(t *testing.T) {
	g := whiteGray(200, 120)
	// Two columns of stacked glyphs with gaps the closing kernel
	// can bridge.
	for _, x := range []int{40, 140} {
		for _, y := range []int{10, 27, 44, 61} {
			darkRect(g, x, y, 12, 12)
		}
	}

	lines := Extract(g, DefaultConfig())

	require.Len(t, lines, 2)
	assert.Equal(t, order.OrientationColumns, lines[0].Orientation)
	// Right column reads first.
	assert.Equal(t, 1, lines[0].ReadingOrder)
	assert.Greater(t, lines[0].Box.X, lines[1].Box.X)
}

func TestExtractAttachesFurigana(t *testing.T) {
	g := whiteGray(240, 100)
	// Main text blobs, height 24.
	darkRect(g, 40, 50, 40, 24)
	darkRect(g, 110, 50, 40, 24)
	// Ruby above the first blob, height 8.
	darkRect(g, 48, 36, 24, 8)

	cfg := DefaultConfig()
	cfg.Orientation = order.OrientationRows
	lines := Extract(g, cfg)

	require.Len(t, lines, 1)
	line := lines[0]
	assert.Len(t, line.Blobs, 2)
	require.Len(t, line.Furigana, 1)
	assert.InDelta(t, 8, line.Furigana[0].Box.Height, 1)
	// The ruby blob never stretches the line box upward past the
	// main text.
	assert.GreaterOrEqual(t, line.Box.Y, 49.0)
}

func TestExtractEmptyInputs(t *testing.T) {
	assert.Empty(t, Extract(nil, DefaultConfig()))
	assert.Empty(t, Extract(raster.NewGray(0, 0), DefaultConfig()))
	assert.Empty(t, Extract(whiteGray(50, 50), DefaultConfig()))
}
