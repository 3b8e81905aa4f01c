package raster

// BackgroundMask flood-fills bright background from every edge pixel
// whose brightness exceeds brightThreshold, following 4-connected
// neighbors that are also bright. The returned grid marks background
// pixels as foreground (on).
func BackgroundMask(g *Gray, brightThreshold uint8) *Grid {
	mask := NewGrid(g.w, g.h)
	if g.Empty() {
		return mask
	}

	bright := func(x, y int) bool { return g.At(x, y) > brightThreshold }
	queue := make([][2]int, 0, 2*(g.w+g.h))

	seed := func(x, y int) {
		if bright(x, y) && !mask.On(x, y) {
			mask.Set(x, y)
			queue = append(queue, [2]int{x, y})
		}
	}
	for x := range g.w {
		seed(x, 0)
		seed(x, g.h-1)
	}
	for y := range g.h {
		seed(0, y)
		seed(g.w-1, y)
	}

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, d := range dirs {
			nx, ny := p[0]+d[0], p[1]+d[1]
			if g.In(nx, ny) && bright(nx, ny) && !mask.On(nx, ny) {
				mask.Set(nx, ny)
				queue = append(queue, [2]int{nx, ny})
			}
		}
	}
	return mask
}

// FillHoles closes enclosed background holes inside foreground regions:
// background pixels not reachable from the grid edge become foreground.
func (g *Grid) FillHoles() *Grid {
	if g.Empty() {
		return &Grid{}
	}

	reachable := NewGrid(g.w, g.h)
	queue := make([][2]int, 0, 2*(g.w+g.h))
	seed := func(x, y int) {
		if g.In(x, y) && !g.On(x, y) && !reachable.On(x, y) {
			reachable.Set(x, y)
			queue = append(queue, [2]int{x, y})
		}
	}
	for x := range g.w {
		seed(x, 0)
		seed(x, g.h-1)
	}
	for y := range g.h {
		seed(0, y)
		seed(g.w-1, y)
	}

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, d := range dirs {
			nx, ny := p[0]+d[0], p[1]+d[1]
			if g.In(nx, ny) && !g.On(nx, ny) && !reachable.On(nx, ny) {
				reachable.Set(nx, ny)
				queue = append(queue, [2]int{nx, ny})
			}
		}
	}

	out := NewGrid(g.w, g.h)
	for i := range g.pix {
		if g.pix[i] != 0 || reachable.pix[i] == 0 {
			out.pix[i] = 255
		}
	}
	return out
}
