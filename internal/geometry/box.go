package geometry

import "math"

// Epsilon guards every denominator in the metric functions so that
// zero-area and coincident boxes never cause a division fault.
const Epsilon = 1e-6

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box is an axis-aligned bounding box with a top-left origin.
// Width and Height are always non-negative for boxes built through NewBox;
// a box with either dimension zero is degenerate and contributes zero
// overlap to every metric.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewBox constructs a Box from an origin and dimensions, clamping
// negative dimensions to zero.
func NewBox(x, y, w, h float64) Box {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Box{X: x, Y: y, Width: w, Height: h}
}

// BoxFromCorners constructs a Box from two opposite corners in any order.
func BoxFromCorners(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// MaxX returns the right edge coordinate.
func (b Box) MaxX() float64 { return b.X + b.Width }

// MaxY returns the bottom edge coordinate.
func (b Box) MaxY() float64 { return b.Y + b.Height }

// CenterX returns the horizontal center, computed on demand.
func (b Box) CenterX() float64 { return b.X + b.Width/2 }

// CenterY returns the vertical center, computed on demand.
func (b Box) CenterY() float64 { return b.Y + b.Height/2 }

// Center returns the center point.
func (b Box) Center() Point { return Point{X: b.CenterX(), Y: b.CenterY()} }

// Area returns width*height, zero for degenerate boxes.
func (b Box) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.Area() <= 0 }

// AspectRatio returns width/height, epsilon-guarded.
func (b Box) AspectRatio() float64 {
	return b.Width / (b.Height + Epsilon)
}

// Valid reports whether all fields are finite and dimensions are
// non-negative. Malformed boxes are filtered, never raised as errors.
func (b Box) Valid() bool {
	for _, v := range [4]float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Width >= 0 && b.Height >= 0
}

// Expand grows the box by margin on every side.
func (b Box) Expand(margin float64) Box {
	return NewBox(b.X-margin, b.Y-margin, b.Width+2*margin, b.Height+2*margin)
}

// ExpandByRatio grows the box by a fraction of its own dimensions per side.
func (b Box) ExpandByRatio(ratio float64) Box {
	dx := b.Width * ratio
	dy := b.Height * ratio
	return NewBox(b.X-dx, b.Y-dy, b.Width+2*dx, b.Height+2*dy)
}

// ClipToBounds clips the box to [0,0,w,h]. Boxes fully outside the
// bounds collapse to a degenerate box on the boundary.
func (b Box) ClipToBounds(w, h float64) Box {
	x1 := math.Max(0, b.X)
	y1 := math.Max(0, b.Y)
	x2 := math.Min(w, b.MaxX())
	y2 := math.Min(h, b.MaxY())
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Scale multiplies origin and dimensions by sx, sy.
func (b Box) Scale(sx, sy float64) Box {
	return NewBox(b.X*sx, b.Y*sy, b.Width*sx, b.Height*sy)
}

// Translate offsets the box by dx, dy.
func (b Box) Translate(dx, dy float64) Box {
	return Box{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height}
}

// ScoredBox is a bounding box with a detection confidence and an
// optional class identifier. Values are never mutated in place;
// suppression returns new slices.
type ScoredBox struct {
	Box        Box
	Confidence float64
	ClassID    int
}

// Score returns the confidence, treating NaN as zero.
func (s ScoredBox) Score() float64 {
	if math.IsNaN(s.Confidence) {
		return 0
	}
	return s.Confidence
}

// FilterValid returns all boxes passing Valid, preserving input order.
func FilterValid(boxes []Box) []Box {
	out := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if b.Valid() {
			out = append(out, b)
		}
	}
	return out
}

// BoundingBoxOf returns the smallest box enclosing all points.
func BoundingBoxOf(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return BoxFromCorners(minX, minY, maxX, maxY)
}
