package pipeline

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// Default overlay palette.
var (
	PanelColor  = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	RegionColor = color.RGBA{R: 60, G: 140, B: 220, A: 255}
	LineColor   = color.RGBA{R: 60, G: 180, B: 90, A: 255}
)

// RenderOverlay draws panel, region and line boxes over the page and
// returns an RGBA copy. Panel corner polygons are drawn when they
// differ from the bounding box.
func RenderOverlay(img image.Image, res *Result) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	if res == nil {
		return dst
	}
	for _, pn := range res.Panels {
		drawBox(dst, pn.Box, PanelColor, 2)
		drawCorners(dst, pn.Corners, PanelColor)
		for _, rg := range pn.Regions {
			drawBox(dst, rg.Box, RegionColor, 1)
			for _, ln := range rg.Lines {
				drawBox(dst, ln.Box, LineColor, 1)
				for _, ruby := range ln.Furigana {
					drawBox(dst, ruby, LineColor, 1)
				}
			}
		}
	}
	return dst
}

// RenderThumbnail renders the overlay scaled down to maxWidth pixels
// wide, preserving aspect ratio. Pages narrower than maxWidth are
// returned at full size.
func RenderThumbnail(img image.Image, res *Result, maxWidth int) *image.RGBA {
	overlay := RenderOverlay(img, res)
	if overlay == nil || maxWidth <= 0 || overlay.Bounds().Dx() <= maxWidth {
		return overlay
	}
	w := overlay.Bounds().Dx()
	h := overlay.Bounds().Dy()
	scaledH := h * maxWidth / w
	if scaledH < 1 {
		scaledH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, scaledH))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), overlay, overlay.Bounds(), xdraw.Over, nil)
	return dst
}

func drawBox(dst *image.RGBA, b geometry.Box, c color.Color, thickness int) {
	x0, y0 := int(b.X+0.5), int(b.Y+0.5)
	x1, y1 := int(b.MaxX()+0.5), int(b.MaxY()+0.5)
	for t := 0; t < thickness; t++ {
		drawHLine(dst, x0, x1, y0+t, c)
		drawHLine(dst, x0, x1, y1-t, c)
		drawVLine(dst, x0+t, y0, y1, c)
		drawVLine(dst, x1-t, y0, y1, c)
	}
}

func drawCorners(dst *image.RGBA, corners [4]geometry.Point, c color.Color) {
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		drawSegment(dst, int(a.X+0.5), int(a.Y+0.5), int(b.X+0.5), int(b.Y+0.5), c)
	}
}

func drawHLine(dst *image.RGBA, x0, x1, y int, c color.Color) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		setIfInside(dst, x, y, c)
	}
}

func drawVLine(dst *image.RGBA, x, y0, y1 int, c color.Color) {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		setIfInside(dst, x, y, c)
	}
}

// drawSegment rasterizes a line with the integer Bresenham walk.
func drawSegment(dst *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setIfInside(dst, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setIfInside(dst *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.Set(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
