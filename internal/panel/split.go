package panel

import (
	"github.com/manga-tools/pageseg/internal/raster"
)

// window is an inclusive pixel region of the panel-block mask under
// consideration for splitting.
type window struct {
	x0, y0, x1, y1 int
}

func (w window) width() int  { return w.x1 - w.x0 + 1 }
func (w window) height() int { return w.y1 - w.y0 + 1 }

// splitCandidate is a scored gap position along one axis.
type splitCandidate struct {
	position int
	score    float64
	vertical bool // true = split along a vertical line (cut x)
}

// recursiveSplit decomposes a window of the panel-block mask into
// panel candidate windows. At each level the best horizontal and
// vertical gap lines are scored with (leftSum+rightSum)/(centerDensity+1);
// if the winner clears cfg.MinSplitScore the window is cut there and
// both halves recurse, bounded by the explicit depth cap. Otherwise the
// window is accepted as a single candidate.
func recursiveSplit(mask *raster.Grid, win window, depth int, cfg Config, out []window) []window {
	if win.width() <= 0 || win.height() <= 0 {
		return out
	}
	if depth <= 0 {
		return append(out, win)
	}

	vertical := bestSplit(mask, win, true, cfg)
	horizontal := bestSplit(mask, win, false, cfg)

	best := vertical
	if horizontal.score > best.score {
		best = horizontal
	}
	if best.position < 0 || best.score < cfg.MinSplitScore {
		return append(out, win)
	}

	a, b := cutWindow(win, best)
	out = recursiveSplit(mask, a, depth-1, cfg, out)
	out = recursiveSplit(mask, b, depth-1, cfg, out)
	return out
}

// bestSplit scans candidate gap lines along one axis. Scores are
// normalized: side sums are foreground fractions of the window total
// and center density is the foreground fraction of a 3px band at the
// candidate line, so a clean gutter scores near 1 and a solid block
// near 0.5.
func bestSplit(mask *raster.Grid, win window, vertical bool, cfg Config) splitCandidate {
	cand := splitCandidate{position: -1, vertical: vertical}

	var proj []int
	var bandArea float64
	if vertical {
		sub := mask.SubGrid(win.x0, win.y0, win.width(), win.height())
		proj = sub.ColProjection(0, win.height())
		bandArea = float64(win.height())
	} else {
		sub := mask.SubGrid(win.x0, win.y0, win.width(), win.height())
		proj = sub.RowProjection(0, win.width())
		bandArea = float64(win.width())
	}

	total := 0
	for _, v := range proj {
		total += v
	}
	if total == 0 {
		return cand
	}

	prefix := make([]int, len(proj)+1)
	for i, v := range proj {
		prefix[i+1] = prefix[i] + v
	}

	minSize := cfg.MinPanelSize
	for pos := minSize; pos < len(proj)-minSize; pos++ {
		b0, b1 := pos-1, pos+1
		if b0 < 0 {
			b0 = 0
		}
		if b1 >= len(proj) {
			b1 = len(proj) - 1
		}
		bandSum := prefix[b1+1] - prefix[b0]
		sideSum := total - bandSum

		centerDensity := float64(bandSum) / (bandArea * float64(b1-b0+1))
		score := (float64(sideSum) / float64(total)) / (centerDensity + 1)
		if score > cand.score {
			cand.score = score
			cand.position = pos
		}
	}
	return cand
}

// cutWindow splits a window at the candidate line, excluding the line
// itself from both halves.
func cutWindow(win window, c splitCandidate) (window, window) {
	if c.vertical {
		cut := win.x0 + c.position
		return window{win.x0, win.y0, cut - 1, win.y1},
			window{cut + 1, win.y0, win.x1, win.y1}
	}
	cut := win.y0 + c.position
	return window{win.x0, win.y0, win.x1, cut - 1},
		window{win.x0, cut + 1, win.x1, win.y1}
}

// shrinkToContent tightens a window to its foreground extent.
// Returns ok=false for windows with no foreground at all.
func shrinkToContent(mask *raster.Grid, win window) (window, bool) {
	minX, minY := win.x1+1, win.y1+1
	maxX, maxY := win.x0-1, win.y0-1
	for y := win.y0; y <= win.y1; y++ {
		for x := win.x0; x <= win.x1; x++ {
			if !mask.On(x, y) {
				continue
			}
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX || maxY < minY {
		return window{}, false
	}
	return window{minX, minY, maxX, maxY}, true
}
