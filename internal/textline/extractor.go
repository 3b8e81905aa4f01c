package textline

import (
	"math"
	"sort"

	"github.com/manga-tools/pageseg/internal/blob"
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/order"
	"github.com/manga-tools/pageseg/internal/raster"
)

// Extract finds text lines in a grayscale region, typically a single
// panel. The region is locally thresholded, closed along the writing
// direction and labeled; surviving components are grouped into lines
// and assigned a reading order. The result is never nil.
func Extract(gray *raster.Gray, cfg Config) []TextLine {
	if gray == nil || gray.Empty() {
		return []TextLine{}
	}
	cfg = cfg.normalized()

	bin := gray.AdaptiveBinarize(cfg.AdaptiveWindow, cfg.AdaptiveOffset)

	orientation := cfg.Orientation
	if orientation == order.OrientationAuto {
		orientation = detectOrientation(bin, cfg)
	}

	closed := closeAlong(bin, orientation, cfg.CloseKernel)
	components, _ := blob.Label(closed)
	kept := filterComponents(components, orientation, cfg)
	if len(kept) == 0 {
		return []TextLine{}
	}

	mains, attachments := splitFurigana(kept, orientation, cfg)
	if len(mains) == 0 {
		return []TextLine{}
	}

	lines := groupLines(mains, orientation, cfg)
	attachFurigana(lines, attachments)
	assignLineOrder(lines, orientation, cfg)
	return lines
}

// normalized fills unusable zero values with defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.AdaptiveWindow < 3 {
		c.AdaptiveWindow = def.AdaptiveWindow
	}
	if c.CloseKernel < 1 {
		c.CloseKernel = def.CloseKernel
	}
	if c.MaxBlobArea <= 0 {
		c.MaxBlobArea = def.MaxBlobArea
	}
	if c.MaxCrossAspect <= 0 {
		c.MaxCrossAspect = def.MaxCrossAspect
	}
	if c.FuriganaHeightRatio <= 0 {
		c.FuriganaHeightRatio = def.FuriganaHeightRatio
	}
	if c.FuriganaReach <= 0 {
		c.FuriganaReach = def.FuriganaReach
	}
	if c.GroupTolerance <= 0 {
		c.GroupTolerance = def.GroupTolerance
	}
	return c
}

// detectOrientation labels the raw binarized grid before any closing
// and picks the orientation whose component centers spread the most.
func detectOrientation(bin *raster.Grid, cfg Config) order.Orientation {
	components, _ := blob.Label(bin)
	boxes := make([]geometry.Box, 0, len(components))
	for _, c := range components {
		if c.Box.Area() >= cfg.MinBlobArea {
			boxes = append(boxes, c.Box)
		}
	}
	return order.SelectOrientation(boxes)
}

// closeAlong bridges inter-character gaps with a kernel laid along
// the writing direction.
func closeAlong(g *raster.Grid, orientation order.Orientation, k int) *raster.Grid {
	if orientation == order.OrientationColumns {
		return g.Close(1, k)
	}
	return g.Close(k, 1)
}

func filterComponents(components []blob.Blob, orientation order.Orientation, cfg Config) []blob.Blob {
	kept := make([]blob.Blob, 0, len(components))
	for _, c := range components {
		area := c.Box.Area()
		if area < cfg.MinBlobArea || area > cfg.MaxBlobArea {
			continue
		}
		if c.Density < cfg.MinDensity {
			continue
		}
		if crossAspect(c.Box, orientation) > cfg.MaxCrossAspect {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// crossAspect measures elongation against the writing direction. A
// horizontal line tolerates wide components but not tall ones, and
// vice versa for columns.
func crossAspect(b geometry.Box, orientation order.Orientation) float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return math.Inf(1)
	}
	if orientation == order.OrientationColumns {
		return b.Width / b.Height
	}
	return b.Height / b.Width
}

// charExtent is the component size across the line: height for
// horizontal text, width for vertical text.
func charExtent(b geometry.Box, orientation order.Orientation) float64 {
	if orientation == order.OrientationColumns {
		return b.Width
	}
	return b.Height
}

// lineSpan is the extent along the writing direction.
func lineSpan(b geometry.Box, orientation order.Orientation) float64 {
	if orientation == order.OrientationColumns {
		return b.Height
	}
	return b.Width
}

// groupLines clusters main blobs into rows or columns and builds one
// TextLine per group with members sorted along the writing direction.
func groupLines(mains []blob.Blob, orientation order.Orientation, cfg Config) []TextLine {
	boxes := make([]geometry.Box, len(mains))
	for i, m := range mains {
		boxes[i] = m.Box
	}
	groups := order.Group(boxes, orientation, cfg.GroupTolerance)

	lines := make([]TextLine, 0, len(groups))
	for _, group := range groups {
		sortAlongLine(group, mains, orientation, cfg.Direction)

		members := make([]blob.Blob, len(group))
		memberCorners := make([]geometry.Point, 0, 2*len(group))
		for i, idx := range group {
			members[i] = mains[idx]
			b := mains[idx].Box
			memberCorners = append(memberCorners,
				geometry.Point{X: b.X, Y: b.Y},
				geometry.Point{X: b.MaxX(), Y: b.MaxY()})
		}
		box := geometry.BoundingBoxOf(memberCorners)
		lines = append(lines, TextLine{
			Box:         box,
			Blobs:       members,
			Orientation: orientation,
			CharCount:   estimateCharCount(box, members, orientation),
			Confidence:  sizeConsistency(members, orientation),
		})
	}
	return lines
}

func sortAlongLine(group []int, mains []blob.Blob, orientation order.Orientation, dir order.Direction) {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := mains[group[i]].Box, mains[group[j]].Box
		if orientation == order.OrientationColumns {
			return a.CenterY() < b.CenterY()
		}
		if dir == order.RightToLeft {
			return a.CenterX() > b.CenterX()
		}
		return a.CenterX() < b.CenterX()
	})
}

// estimateCharCount divides the line span by the typical character
// size. A closed component can hold several merged characters, so the
// estimate is never below the component count.
func estimateCharCount(box geometry.Box, members []blob.Blob, orientation order.Orientation) int {
	base := medianExtent(members, orientation)
	if base <= 0 {
		return len(members)
	}
	n := int(math.Round(lineSpan(box, orientation) / base))
	if n < len(members) {
		n = len(members)
	}
	return n
}

// sizeConsistency scores how uniform the member character sizes are.
// A line of same-sized glyphs scores near 1, mixed sizes decay toward
// zero with the coefficient of variation.
func sizeConsistency(members []blob.Blob, orientation order.Orientation) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range members {
		sum += charExtent(m.Box, orientation)
	}
	mean := sum / float64(len(members))
	if mean <= 0 {
		return 0
	}
	var variance float64
	for _, m := range members {
		d := charExtent(m.Box, orientation) - mean
		variance += d * d
	}
	variance /= float64(len(members))
	cv := math.Sqrt(variance) / mean
	if cv > 1 {
		cv = 1
	}
	return 1 - cv
}

func medianExtent(members []blob.Blob, orientation order.Orientation) float64 {
	if len(members) == 0 {
		return 0
	}
	extents := make([]float64, len(members))
	for i, m := range members {
		extents[i] = charExtent(m.Box, orientation)
	}
	sort.Float64s(extents)
	mid := len(extents) / 2
	if len(extents)%2 == 1 {
		return extents[mid]
	}
	return (extents[mid-1] + extents[mid]) / 2
}

// assignLineOrder numbers the lines on the page and sorts them into
// reading sequence.
func assignLineOrder(lines []TextLine, orientation order.Orientation, cfg Config) {
	boxes := make([]geometry.Box, len(lines))
	for i, ln := range lines {
		boxes[i] = ln.Box
	}
	positions := order.Assign(boxes, order.Options{
		Orientation: orientation,
		Direction:   cfg.Direction,
		Tolerance:   cfg.GroupTolerance,
	})
	for i := range lines {
		lines[i].ReadingOrder = positions[i]
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].ReadingOrder < lines[j].ReadingOrder
	})
}
