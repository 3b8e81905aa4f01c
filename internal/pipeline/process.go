package pipeline

import (
	"context"
	"errors"
	"image"
	"sort"
	"time"

	"github.com/manga-tools/pageseg/internal/cluster"
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/order"
	"github.com/manga-tools/pageseg/internal/panel"
	"github.com/manga-tools/pageseg/internal/raster"
	"github.com/manga-tools/pageseg/internal/suppress"
	"github.com/manga-tools/pageseg/internal/textline"
)

// Analyze runs the full geometry analysis on a single page image.
func (p *Pipeline) Analyze(img image.Image) (*Result, error) {
	return p.AnalyzeContext(context.Background(), img)
}

// AnalyzeContext analyzes a page with cancellation support. The
// context is checked between panels.
func (p *Pipeline) AnalyzeContext(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	start := time.Now()
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW == 0 || origH == 0 {
		return nil, errors.New("empty image")
	}

	factor := p.cfg.Downsample
	if factor < 1 {
		factor = 1
	}
	working := img
	if factor > 1 {
		working = raster.Downsample(img, factor)
	}
	gray := raster.GrayFromImage(working)

	panels := panel.Segment(gray, p.cfg.Panel)
	p.logger.Debug("segmented page",
		"width", origW, "height", origH,
		"downsample", factor, "panels", len(panels))

	results := make([]PanelResult, 0, len(panels))
	for _, pn := range panels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, p.analyzePanel(gray, pn))
	}
	sortPanelsByOrder(results)

	res := &Result{
		Width:      origW,
		Height:     origH,
		Downsample: factor,
		Panels:     results,
		Duration:   time.Since(start),
	}
	if factor > 1 {
		rescaleResult(res, float64(factor))
	}
	return res, nil
}

// analyzePanel extracts text lines from one panel window and groups
// them into regions. All geometry is translated into page
// coordinates at the working scale.
func (p *Pipeline) analyzePanel(gray *raster.Gray, pn panel.Panel) PanelResult {
	pr := PanelResult{
		Box:          pn.Box,
		Corners:      pn.Corners,
		Type:         pn.Type.String(),
		Solidity:     pn.Solidity,
		Confidence:   pn.Confidence,
		TouchesEdge:  pn.TouchesEdge,
		ReadingOrder: pn.ReadingOrder,
		Parent:       pn.Parent,
		Regions:      []RegionResult{},
	}

	sub := gray.SubGray(int(pn.Box.X), int(pn.Box.Y), int(pn.Box.Width), int(pn.Box.Height))
	lines := textline.Extract(sub, p.cfg.TextLine)
	if len(lines) == 0 {
		return pr
	}

	results := make([]LineResult, len(lines))
	for i, ln := range lines {
		results[i] = LineResult{
			Box:          ln.Box.Translate(pn.Box.X, pn.Box.Y),
			Orientation:  ln.Orientation.String(),
			CharCount:    ln.CharCount,
			Confidence:   ln.Confidence,
			ReadingOrder: ln.ReadingOrder,
		}
		for _, ruby := range ln.Furigana {
			results[i].Furigana = append(results[i].Furigana,
				ruby.Box.Translate(pn.Box.X, pn.Box.Y))
		}
	}

	pr.Regions = p.groupRegions(results)
	return pr
}

// groupRegions clusters lines into regions, one per speech bubble or
// caption block, and orders regions and their lines for reading.
func (p *Pipeline) groupRegions(lines []LineResult) []RegionResult {
	boxes := make([]geometry.Box, len(lines))
	for i, ln := range lines {
		boxes[i] = ln.Box
	}

	eps := p.cfg.Region.EpsScale * medianMinExtent(boxes)
	clusters := cluster.DBSCAN(boxes, eps, p.cfg.Region.MinLines)
	if len(clusters) == 0 {
		// Degenerate clustering keeps every line visible in a
		// single region rather than dropping it.
		clusters = singleCluster(len(lines))
	}

	regions := make([]RegionResult, len(clusters))
	for i, cl := range clusters {
		members := make([]LineResult, len(cl.Members))
		for j, idx := range cl.Members {
			members[j] = lines[idx]
		}
		// Lines keep their panel-wide sequence, renumbered
		// within the region.
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].ReadingOrder < members[b].ReadingOrder
		})
		for j := range members {
			members[j].ReadingOrder = j + 1
		}
		regions[i] = RegionResult{
			Box:   cl.BoundingBox(boxes),
			Lines: members,
		}
	}

	orderRegions(regions, p.cfg.TextLine.Direction, p.cfg.Panel.Order.Tolerance)
	return regions
}

func orderRegions(regions []RegionResult, dir order.Direction, tolerance float64) {
	boxes := make([]geometry.Box, len(regions))
	for i, r := range regions {
		boxes[i] = r.Box
	}
	positions := order.Assign(boxes, order.Options{
		Orientation: order.OrientationAuto,
		Direction:   dir,
		Tolerance:   tolerance,
	})
	for i := range regions {
		regions[i].ReadingOrder = positions[i]
	}
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].ReadingOrder < regions[j].ReadingOrder
	})
}

// sortPanelsByOrder arranges panels into reading sequence and remaps
// inset parent indices to the new positions.
func sortPanelsByOrder(panels []PanelResult) {
	indices := make([]int, len(panels))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return panels[indices[a]].ReadingOrder < panels[indices[b]].ReadingOrder
	})
	remap := make([]int, len(panels))
	sorted := make([]PanelResult, len(panels))
	for newIdx, oldIdx := range indices {
		remap[oldIdx] = newIdx
		sorted[newIdx] = panels[oldIdx]
	}
	for i := range sorted {
		if sorted[i].Parent >= 0 && sorted[i].Parent < len(remap) {
			sorted[i].Parent = remap[sorted[i].Parent]
		}
	}
	copy(panels, sorted)
}

// SuppressCandidates deduplicates externally detected boxes with the
// configured NMS variant, for callers that merge detector output
// with the geometric analysis.
func (p *Pipeline) SuppressCandidates(boxes []geometry.ScoredBox) []geometry.ScoredBox {
	return suppress.Suppress(boxes, p.cfg.SuppressMethod, p.cfg.Suppress)
}

// medianMinExtent returns the median of the smaller box side, the
// characteristic text size used to scale the clustering radius.
func medianMinExtent(boxes []geometry.Box) float64 {
	if len(boxes) == 0 {
		return 0
	}
	extents := make([]float64, len(boxes))
	for i, b := range boxes {
		if b.Width < b.Height {
			extents[i] = b.Width
		} else {
			extents[i] = b.Height
		}
	}
	sort.Float64s(extents)
	mid := len(extents) / 2
	if len(extents)%2 == 1 {
		return extents[mid]
	}
	return (extents[mid-1] + extents[mid]) / 2
}

func singleCluster(n int) []cluster.Cluster {
	members := make([]int, n)
	for i := range members {
		members[i] = i
	}
	return []cluster.Cluster{{Members: members}}
}

// rescaleResult maps working-scale geometry back to original pixels.
func rescaleResult(res *Result, f float64) {
	for i := range res.Panels {
		pn := &res.Panels[i]
		pn.Box = pn.Box.Scale(f, f)
		for c := range pn.Corners {
			pn.Corners[c] = geometry.Point{X: pn.Corners[c].X * f, Y: pn.Corners[c].Y * f}
		}
		for j := range pn.Regions {
			rg := &pn.Regions[j]
			rg.Box = rg.Box.Scale(f, f)
			for k := range rg.Lines {
				ln := &rg.Lines[k]
				ln.Box = ln.Box.Scale(f, f)
				for m := range ln.Furigana {
					ln.Furigana[m] = ln.Furigana[m].Scale(f, f)
				}
			}
		}
	}
}
