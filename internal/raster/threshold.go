package raster

// Binarize thresholds a grayscale raster into a binary grid. With
// invert false, pixels above threshold become foreground; with invert
// true, pixels at or below threshold become foreground (dark ink on a
// bright page). The inclusive dark side matches Otsu's convention of
// returning the last bin of the dark class.
func (g *Gray) Binarize(threshold uint8, invert bool) *Grid {
	out := NewGrid(g.w, g.h)
	for i, v := range g.pix {
		fg := v > threshold
		if invert {
			fg = v <= threshold
		}
		if fg {
			out.pix[i] = 255
		}
	}
	return out
}

// OtsuThreshold computes the Otsu global threshold of a grayscale
// raster by maximizing between-class variance over the histogram.
func OtsuThreshold(g *Gray) uint8 {
	if g.Empty() {
		return 128
	}
	var hist [256]int
	for _, v := range g.pix {
		hist[v]++
	}

	total := len(g.pix)
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	bestVar := -1.0
	best := 128
	for t := range 256 {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return uint8(best)
}

// AdaptiveBinarize thresholds each pixel against the mean brightness of
// its window x window neighborhood minus offset, using a summed-area
// table so the window size does not affect cost. Dark pixels relative
// to their local surroundings become foreground.
func (g *Gray) AdaptiveBinarize(window int, offset int) *Grid {
	if g.Empty() {
		return &Grid{}
	}
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2

	integral := buildIntegral(g)
	out := NewGrid(g.w, g.h)
	for y := range g.h {
		for x := range g.w {
			x0 := clampInt(x-half, 0, g.w-1)
			x1 := clampInt(x+half, 0, g.w-1)
			y0 := clampInt(y-half, 0, g.h-1)
			y1 := clampInt(y+half, 0, g.h-1)
			area := (x1 - x0 + 1) * (y1 - y0 + 1)
			sum := integralSum(integral, g.w, x0, y0, x1, y1)
			mean := sum / int64(area)
			if int64(g.pix[y*g.w+x]) < mean-int64(offset) {
				out.pix[y*out.w+x] = 255
			}
		}
	}
	return out
}

// buildIntegral computes a summed-area table with one row/col of
// zero padding folded into the arithmetic.
func buildIntegral(g *Gray) []int64 {
	integral := make([]int64, (g.w+1)*(g.h+1))
	stride := g.w + 1
	for y := 1; y <= g.h; y++ {
		var rowSum int64
		for x := 1; x <= g.w; x++ {
			rowSum += int64(g.pix[(y-1)*g.w+(x-1)])
			integral[y*stride+x] = integral[(y-1)*stride+x] + rowSum
		}
	}
	return integral
}

func integralSum(integral []int64, w, x0, y0, x1, y1 int) int64 {
	stride := w + 1
	a := integral[y0*stride+x0]
	b := integral[y0*stride+(x1+1)]
	c := integral[(y1+1)*stride+x0]
	d := integral[(y1+1)*stride+(x1+1)]
	return d - b - c + a
}
