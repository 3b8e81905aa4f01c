// Package panel decomposes a comic page raster into ordered panels.
package panel

import (
	"math"

	"github.com/manga-tools/pageseg/internal/blob"
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/order"
)

// Type classifies a panel's visual style.
type Type int

const (
	TypeStandard Type = iota
	TypeBorderless
	TypeIrregular
	TypeFullBleed
	TypeInset
)

// String returns a string representation of the panel type.
func (t Type) String() string {
	switch t {
	case TypeBorderless:
		return "borderless"
	case TypeIrregular:
		return "irregular"
	case TypeFullBleed:
		return "full_bleed"
	case TypeInset:
		return "inset"
	default:
		return "standard"
	}
}

// Panel is one segmented page region. Never mutated after
// classification. Parent is the index of the panel spatially containing
// an inset panel, -1 otherwise; containment is not ownership.
type Panel struct {
	Box          geometry.Box
	Corners      [4]geometry.Point
	Area         float64 // foreground pixel area of the panel block
	Solidity     float64 // Area / bbox area
	Type         Type
	TouchesEdge  bool
	Confidence   float64
	ReadingOrder int
	Parent       int
}

// Config holds panel segmentation tunables.
type Config struct {
	// BackgroundThreshold is the brightness above which an edge-connected
	// pixel is treated as page background.
	BackgroundThreshold uint8
	// BridgeKernel is the dilate/erode kernel bridging broken panel borders.
	BridgeKernel int
	// MinSplitScore is the minimum normalized gap score to accept a
	// recursive split.
	MinSplitScore float64
	// MaxSplitDepth caps the recursive splitting depth.
	MaxSplitDepth int
	// MinPanelSize is the minimum split-half extent in pixels.
	MinPanelSize int
	// MinAreaRatio / MaxAreaRatio bound a candidate's area relative to
	// the page.
	MinAreaRatio float64
	MaxAreaRatio float64
	// MinAspectRatio / MaxAspectRatio bound a candidate's width/height.
	MinAspectRatio float64
	MaxAspectRatio float64
	// ContainmentThreshold is the IoM fraction for inset detection.
	ContainmentThreshold float64
	// FullBleedAreaRatio marks an edge-touching panel as full bleed.
	FullBleedAreaRatio float64
	// StandardSolidity and IrregularSolidity split the type ladder:
	// >= StandardSolidity is standard, < IrregularSolidity is irregular,
	// in between is borderless.
	StandardSolidity  float64
	IrregularSolidity float64
	// DefectDepthMajor / DefectDepthMinor are the convexity-defect
	// depths (in pixels) marking strongly and mildly non-convex shapes.
	// Kept as configurable constants from the original heuristic.
	DefectDepthMajor float64
	DefectDepthMinor float64
	// EdgeMargin is the distance in pixels within which a panel counts
	// as touching the page edge.
	EdgeMargin float64
	// CornerSearchRadius is the corner refinement radius.
	CornerSearchRadius float64
	// TraceMaxSteps caps contour tracing (0 = derived from page size).
	TraceMaxSteps int
	// Order controls panel reading order.
	Order order.Options
}

// DefaultConfig returns segmentation defaults tuned for scanned manga
// pages.
func DefaultConfig() Config {
	return Config{
		BackgroundThreshold:  200,
		BridgeKernel:         5,
		MinSplitScore:        0.85,
		MaxSplitDepth:        6,
		MinPanelSize:         24,
		MinAreaRatio:         0.005,
		MaxAreaRatio:         1.0,
		MinAspectRatio:       0.1,
		MaxAspectRatio:       10.0,
		ContainmentThreshold: 0.95,
		FullBleedAreaRatio:   0.9,
		StandardSolidity:     0.9,
		IrregularSolidity:    0.75,
		DefectDepthMajor:     10,
		DefectDepthMinor:     5,
		EdgeMargin:           2,
		CornerSearchRadius:   3,
		Order:                order.Options{Orientation: order.OrientationRows, Direction: order.RightToLeft, Tolerance: 0.5},
	}
}

// classify assigns each accepted panel its type, parent and confidence.
// Runs after all candidates are validated so containment can be tested
// pairwise.
func classify(panels []Panel, pageW, pageH float64, cfg Config) {
	pageArea := pageW * pageH
	for i := range panels {
		p := &panels[i]
		p.TouchesEdge = touchesEdge(p.Box, pageW, pageH, cfg.EdgeMargin)
		p.Parent = -1

		areaRatio := p.Box.Area() / (pageArea + geometry.Epsilon)
		switch {
		case p.TouchesEdge && areaRatio >= cfg.FullBleedAreaRatio:
			p.Type = TypeFullBleed
		case p.Solidity < cfg.IrregularSolidity:
			p.Type = TypeIrregular
		case p.Solidity < cfg.StandardSolidity:
			p.Type = TypeBorderless
		default:
			p.Type = TypeStandard
		}
		p.Confidence = clamp01(p.Solidity)
	}

	// Inset detection: pairwise bbox containment among accepted panels.
	for i := range panels {
		for j := range panels {
			if i == j {
				continue
			}
			inner, outer := &panels[i], &panels[j]
			if inner.Box.Area() < outer.Box.Area() &&
				geometry.Contains(outer.Box, inner.Box, cfg.ContainmentThreshold) {
				inner.Type = TypeInset
				inner.Parent = j
				break
			}
		}
	}
}

func touchesEdge(b geometry.Box, pageW, pageH, margin float64) bool {
	return b.X <= margin || b.Y <= margin ||
		b.MaxX() >= pageW-margin || b.MaxY() >= pageH-margin
}

// maxConvexityDefect returns the deepest inward deviation of the
// contour from its convex hull. Shapes with pronounced tails or bites
// exceed DefectDepthMajor.
func maxConvexityDefect(contour blob.Contour, hull []geometry.Point) float64 {
	if len(hull) < 3 || len(contour.Points) == 0 {
		return 0
	}
	maxDepth := 0.0
	for _, p := range contour.Points {
		d := distanceToPolygon(p, hull)
		if d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// distanceToPolygon returns the distance from a point to the nearest
// polygon edge, zero for points on the boundary.
func distanceToPolygon(p geometry.Point, poly []geometry.Point) float64 {
	best := -1.0
	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		d := pointSegmentDistance(p, a, b)
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

func pointSegmentDistance(p, a, b geometry.Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	wx, wy := p.X-a.X, p.Y-a.Y
	segLen := vx*vx + vy*vy
	if segLen <= geometry.Epsilon {
		return math.Hypot(wx, wy)
	}
	t := (wx*vx + wy*vy) / segLen
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.X-(a.X+t*vx), p.Y-(a.Y+t*vy))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
