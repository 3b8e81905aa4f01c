package panel

import (
	"github.com/manga-tools/pageseg/internal/blob"
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/order"
	"github.com/manga-tools/pageseg/internal/raster"
)

// Segment decomposes a grayscale page raster into classified, ordered
// panels. An empty raster or a page with no panel blocks returns an
// empty slice; no failure mode is an error.
func Segment(gray *raster.Gray, cfg Config) []Panel {
	if gray.Empty() {
		return []Panel{}
	}
	pageW, pageH := float64(gray.Width()), float64(gray.Height())
	pageArea := pageW * pageH

	// Background detection, then panel-block generation: invert the
	// background, bridge broken borders, restore extent, close holes.
	background := raster.BackgroundMask(gray, cfg.BackgroundThreshold)
	k := cfg.BridgeKernel
	blocks := background.Invert().Dilate(k, k).Erode(k, k).FillHoles()

	blobs, _ := blob.Label(blocks)

	var candidates []candidate
	for _, b := range blobs {
		if float64(b.PixelCount) < cfg.MinAreaRatio*pageArea {
			continue // speckle
		}
		win := window{
			x0: int(b.Box.X), y0: int(b.Box.Y),
			x1: int(b.Box.MaxX()) - 1, y1: int(b.Box.MaxY()) - 1,
		}
		for _, w := range recursiveSplit(blocks, win, cfg.MaxSplitDepth, cfg, nil) {
			if shrunk, ok := shrinkToContent(blocks, w); ok {
				candidates = append(candidates, extractShape(blocks, shrunk, cfg))
			}
		}
	}

	panels := make([]Panel, 0, len(candidates))
	defects := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if !validCandidate(c.panel, pageArea, cfg) {
			continue
		}
		panels = append(panels, c.panel)
		defects = append(defects, c.defectDepth)
	}

	classify(panels, pageW, pageH, cfg)
	applyDefects(panels, defects, cfg)
	assignOrder(panels, cfg.Order)
	return panels
}

// candidate pairs an extracted panel with its convexity-defect depth,
// which classification consumes but the Panel model does not carry.
type candidate struct {
	panel       Panel
	defectDepth float64
}

// extractShape refines one candidate window into a panel: largest
// component, contour, hull and corners, with the axis-aligned bounding
// box as fallback for degenerate geometry.
func extractShape(blocks *raster.Grid, win window, cfg Config) candidate {
	sub := blocks.SubGrid(win.x0, win.y0, win.width(), win.height())
	blobs, labels := blob.Label(sub)

	largest := -1
	for i, b := range blobs {
		if largest < 0 || b.PixelCount > blobs[largest].PixelCount {
			largest = i
		}
	}
	if largest < 0 {
		// No foreground: degenerate candidate covering the window.
		box := geometry.NewBox(float64(win.x0), float64(win.y0),
			float64(win.width()), float64(win.height()))
		return candidate{panel: Panel{Box: box, Corners: blob.BoxCorners(box), Parent: -1}}
	}

	b := blobs[largest]
	box := b.Box.Translate(float64(win.x0), float64(win.y0))
	p := Panel{
		Box:      box,
		Area:     float64(b.PixelCount),
		Solidity: b.Density,
		Corners:  blob.BoxCorners(box),
		Parent:   -1,
	}

	contour := blob.Trace(labels, b, blob.TraceOptions{MaxSteps: cfg.TraceMaxSteps})
	hull := blob.ConvexHull(contour.Points)
	depth := 0.0
	if len(hull) >= 3 {
		if corners, ok := blob.Corners(hull, blob.CornerOptions{SearchRadius: cfg.CornerSearchRadius}); ok {
			for i := range corners {
				p.Corners[i] = geometry.Point{
					X: corners[i].X + float64(win.x0),
					Y: corners[i].Y + float64(win.y0),
				}
			}
		}
		depth = maxConvexityDefect(contour, hull)
	}
	return candidate{panel: p, defectDepth: depth}
}

// validCandidate rejects candidates outside the configured area and
// aspect bounds.
func validCandidate(p Panel, pageArea float64, cfg Config) bool {
	areaRatio := p.Box.Area() / (pageArea + geometry.Epsilon)
	if areaRatio < cfg.MinAreaRatio || areaRatio > cfg.MaxAreaRatio {
		return false
	}
	aspect := p.Box.AspectRatio()
	return aspect >= cfg.MinAspectRatio && aspect <= cfg.MaxAspectRatio
}

// applyDefects folds convexity-defect depth into the classification:
// deep defects (tails, bites) mark a shape irregular, shallow ones
// demote standard to borderless. Full-bleed and inset assignments win.
func applyDefects(panels []Panel, defects []float64, cfg Config) {
	for i := range panels {
		if i >= len(defects) {
			break
		}
		p := &panels[i]
		if p.Type == TypeFullBleed || p.Type == TypeInset {
			continue
		}
		switch {
		case defects[i] > cfg.DefectDepthMajor:
			p.Type = TypeIrregular
		case defects[i] > cfg.DefectDepthMinor && p.Type == TypeStandard:
			p.Type = TypeBorderless
		}
	}
}

// assignOrder stamps 1-based reading order onto the panels.
func assignOrder(panels []Panel, opts order.Options) {
	boxes := make([]geometry.Box, len(panels))
	for i, p := range panels {
		boxes[i] = p.Box
	}
	for i, pos := range order.Assign(boxes, opts) {
		panels[i].ReadingOrder = pos
	}
}
