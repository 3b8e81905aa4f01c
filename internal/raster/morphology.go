package raster

// Dilate expands foreground regions with a kw x kh rectangular kernel.
// Asymmetric kernels connect pixels along one axis only, which is how
// the line extractor bridges characters along the text direction.
func (g *Grid) Dilate(kw, kh int) *Grid {
	if g.Empty() || (kw <= 1 && kh <= 1) {
		return g.Clone()
	}
	halfW, halfH := kw/2, kh/2
	out := NewGrid(g.w, g.h)
	for y := range g.h {
		for x := range g.w {
			if g.anyOnInWindow(x-halfW, y-halfH, x+halfW, y+halfH) {
				out.pix[y*out.w+x] = 255
			}
		}
	}
	return out
}

// Erode shrinks foreground regions with a kw x kh rectangular kernel.
func (g *Grid) Erode(kw, kh int) *Grid {
	if g.Empty() || (kw <= 1 && kh <= 1) {
		return g.Clone()
	}
	halfW, halfH := kw/2, kh/2
	out := NewGrid(g.w, g.h)
	for y := range g.h {
		for x := range g.w {
			if g.allOnInWindow(x-halfW, y-halfH, x+halfW, y+halfH) {
				out.pix[y*out.w+x] = 255
			}
		}
	}
	return out
}

// Close performs dilation followed by erosion, filling gaps narrower
// than the kernel without growing the net foreground extent.
func (g *Grid) Close(kw, kh int) *Grid {
	return g.Dilate(kw, kh).Erode(kw, kh)
}

// Open performs erosion followed by dilation, removing specks smaller
// than the kernel.
func (g *Grid) Open(kw, kh int) *Grid {
	return g.Erode(kw, kh).Dilate(kw, kh)
}

func (g *Grid) anyOnInWindow(x0, y0, x1, y1 int) bool {
	x0 = clampInt(x0, 0, g.w-1)
	y0 = clampInt(y0, 0, g.h-1)
	x1 = clampInt(x1, 0, g.w-1)
	y1 = clampInt(y1, 0, g.h-1)
	for y := y0; y <= y1; y++ {
		row := g.pix[y*g.w : (y+1)*g.w]
		for x := x0; x <= x1; x++ {
			if row[x] != 0 {
				return true
			}
		}
	}
	return false
}

func (g *Grid) allOnInWindow(x0, y0, x1, y1 int) bool {
	// Kernel windows overhanging the border erode the pixel, so a
	// clipped window only passes if the pixel is interior enough.
	if x0 < 0 || y0 < 0 || x1 >= g.w || y1 >= g.h {
		return false
	}
	for y := y0; y <= y1; y++ {
		row := g.pix[y*g.w : (y+1)*g.w]
		for x := x0; x <= x1; x++ {
			if row[x] == 0 {
				return false
			}
		}
	}
	return true
}
