// Package testutil generates synthetic comic pages for tests:
// panel grids with gutters, filled text blocks and ruby marks, so
// geometry stages can be exercised without binary fixtures.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// PageSize represents common page dimensions.
type PageSize struct {
	Width  int
	Height int
}

var (
	SmallPage  = PageSize{320, 240}
	MediumPage = PageSize{640, 480}
	LargePage  = PageSize{1024, 768}
)

// PageConfig describes a synthetic page layout.
type PageConfig struct {
	Size       PageSize
	Background color.Color
	Ink        color.Color
	// BorderWidth is the panel frame thickness in pixels.
	BorderWidth int
}

// DefaultPageConfig returns a white page with black 2px frames.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Size:        MediumPage,
		Background:  color.White,
		Ink:         color.Black,
		BorderWidth: 2,
	}
}

// Page is a synthetic page under construction.
type Page struct {
	img *image.RGBA
	cfg PageConfig
}

// NewPage creates a blank page.
func NewPage(cfg PageConfig) *Page {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Size.Width, cfg.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: cfg.Background}, image.Point{}, draw.Src)
	return &Page{img: img, cfg: cfg}
}

// Image returns the rendered page.
func (p *Page) Image() *image.RGBA { return p.img }

// AddPanel draws an empty panel frame.
func (p *Page) AddPanel(x, y, w, h int) *Page {
	bw := p.cfg.BorderWidth
	p.fill(x, y, w, bw)
	p.fill(x, y+h-bw, w, bw)
	p.fill(x, y, bw, h)
	p.fill(x+w-bw, y, bw, h)
	return p
}

// AddFilledPanel draws a panel filled solid, for full-bleed and
// borderless layouts.
func (p *Page) AddFilledPanel(x, y, w, h int) *Page {
	p.fill(x, y, w, h)
	return p
}

// AddTextBlock draws a solid block standing in for a run of text.
func (p *Page) AddTextBlock(x, y, w, h int) *Page {
	p.fill(x, y, w, h)
	return p
}

// AddGlyphColumn draws a vertical run of square glyph blocks with the
// given gap, imitating vertical lettering.
func (p *Page) AddGlyphColumn(x, y, size, count, gap int) *Page {
	for i := 0; i < count; i++ {
		p.fill(x, y+i*(size+gap), size, size)
	}
	return p
}

func (p *Page) fill(x, y, w, h int) {
	r := image.Rect(x, y, x+w, y+h).Intersect(p.img.Bounds())
	draw.Draw(p.img, r, &image.Uniform{C: p.cfg.Ink}, image.Point{}, draw.Src)
}

// TwoPanelPage renders the canonical two-panel layout with a vertical
// gutter between the frames.
func TwoPanelPage() *image.RGBA {
	cfg := DefaultPageConfig()
	cfg.Size = PageSize{300, 200}
	return NewPage(cfg).
		AddPanel(10, 10, 120, 180).
		AddPanel(160, 10, 130, 180).
		Image()
}

// GrayscalePage converts a rendered page to 8-bit grayscale using
// the same resampling the pipeline input path accepts.
func GrayscalePage(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}

// SavePNG writes an image under dir for debugging failed tests.
func SavePNG(t *testing.T, img image.Image, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	require.NoError(t, png.Encode(f, img))
	return path
}
