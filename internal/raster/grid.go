// Package raster provides bounds-checked pixel grids and the binary
// image operations the segmentation stages are built on.
package raster

// Grid is a binary raster: zero is background, any non-zero value is
// foreground (ink/text). Accessors are bounds-checked; reads outside
// the grid return background and writes outside are dropped, which
// removes the off-by-one hazards of raw y*w+x addressing.
type Grid struct {
	w, h int
	pix  []uint8
}

// NewGrid allocates a cleared w x h grid. Non-positive dimensions
// yield an empty grid.
func NewGrid(w, h int) *Grid {
	if w <= 0 || h <= 0 {
		return &Grid{}
	}
	return &Grid{w: w, h: h, pix: make([]uint8, w*h)}
}

// Width returns the grid width in pixels.
func (g *Grid) Width() int { return g.w }

// Height returns the grid height in pixels.
func (g *Grid) Height() int { return g.h }

// Empty reports whether the grid has no pixels.
func (g *Grid) Empty() bool { return g.w == 0 || g.h == 0 }

// In reports whether (x,y) lies inside the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

// On reports whether (x,y) is a foreground pixel. Out-of-bounds
// coordinates read as background.
func (g *Grid) On(x, y int) bool {
	return g.In(x, y) && g.pix[y*g.w+x] != 0
}

// Set marks (x,y) as foreground. Out-of-bounds writes are dropped.
func (g *Grid) Set(x, y int) {
	if g.In(x, y) {
		g.pix[y*g.w+x] = 255
	}
}

// Clear marks (x,y) as background.
func (g *Grid) Clear(x, y int) {
	if g.In(x, y) {
		g.pix[y*g.w+x] = 0
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{w: g.w, h: g.h, pix: make([]uint8, len(g.pix))}
	copy(out.pix, g.pix)
	return out
}

// Invert returns a new grid with foreground and background swapped.
func (g *Grid) Invert() *Grid {
	out := NewGrid(g.w, g.h)
	for i, v := range g.pix {
		if v == 0 {
			out.pix[i] = 255
		}
	}
	return out
}

// Count returns the number of foreground pixels.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// SubGrid copies the window [x0,x0+w) x [y0,y0+h) into a new grid,
// clamped to the source bounds.
func (g *Grid) SubGrid(x0, y0, w, h int) *Grid {
	if w <= 0 || h <= 0 {
		return &Grid{}
	}
	out := NewGrid(w, h)
	for y := range h {
		for x := range w {
			if g.On(x0+x, y0+y) {
				out.pix[y*w+x] = 255
			}
		}
	}
	return out
}

// RowProjection sums foreground pixels per row over the given column
// window, producing a vertical density profile.
func (g *Grid) RowProjection(x0, x1 int) []int {
	x0 = clampInt(x0, 0, g.w)
	x1 = clampInt(x1, 0, g.w)
	proj := make([]int, g.h)
	for y := range g.h {
		row := g.pix[y*g.w : (y+1)*g.w]
		for x := x0; x < x1; x++ {
			if row[x] != 0 {
				proj[y]++
			}
		}
	}
	return proj
}

// ColProjection sums foreground pixels per column over the given row
// window, producing a horizontal density profile.
func (g *Grid) ColProjection(y0, y1 int) []int {
	y0 = clampInt(y0, 0, g.h)
	y1 = clampInt(y1, 0, g.h)
	proj := make([]int, g.w)
	for y := y0; y < y1; y++ {
		row := g.pix[y*g.w : (y+1)*g.w]
		for x := range g.w {
			if row[x] != 0 {
				proj[x]++
			}
		}
	}
	return proj
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

// Gray is a grayscale raster with bounds-checked accessors, the
// brightness source for background detection and binarization.
type Gray struct {
	w, h int
	pix  []uint8
}

// NewGray allocates a cleared grayscale raster.
func NewGray(w, h int) *Gray {
	if w <= 0 || h <= 0 {
		return &Gray{}
	}
	return &Gray{w: w, h: h, pix: make([]uint8, w*h)}
}

// Width returns the raster width in pixels.
func (g *Gray) Width() int { return g.w }

// Height returns the raster height in pixels.
func (g *Gray) Height() int { return g.h }

// Empty reports whether the raster has no pixels.
func (g *Gray) Empty() bool { return g.w == 0 || g.h == 0 }

// In reports whether (x,y) lies inside the raster.
func (g *Gray) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

// At returns the brightness at (x,y); out-of-bounds reads return 0.
func (g *Gray) At(x, y int) uint8 {
	if !g.In(x, y) {
		return 0
	}
	return g.pix[y*g.w+x]
}

// SetAt stores a brightness value; out-of-bounds writes are dropped.
func (g *Gray) SetAt(x, y int, v uint8) {
	if g.In(x, y) {
		g.pix[y*g.w+x] = v
	}
}

// SubGray copies a rectangular window into a new raster. The window
// is clamped to the bounds.
func (g *Gray) SubGray(x0, y0, w, h int) *Gray {
	x0 = clampInt(x0, 0, g.w)
	y0 = clampInt(y0, 0, g.h)
	w = clampInt(w, 0, g.w-x0)
	h = clampInt(h, 0, g.h-y0)
	sub := NewGray(w, h)
	for y := 0; y < h; y++ {
		copy(sub.pix[y*w:(y+1)*w], g.pix[(y0+y)*g.w+x0:(y0+y)*g.w+x0+w])
	}
	return sub
}
