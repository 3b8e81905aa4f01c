package geometry

import "math"

// IntersectionArea computes the overlap area of two boxes.
// Degenerate or invalid boxes yield zero.
func IntersectionArea(a, b Box) float64 {
	if !a.Valid() || !b.Valid() || a.Empty() || b.Empty() {
		return 0
	}
	left := math.Max(a.X, b.X)
	top := math.Max(a.Y, b.Y)
	right := math.Min(a.MaxX(), b.MaxX())
	bottom := math.Min(a.MaxY(), b.MaxY())
	if left >= right || top >= bottom {
		return 0
	}
	return (right - left) * (bottom - top)
}

// IoU computes Intersection over Union. Result is in [0,1].
func IoU(a, b Box) float64 {
	inter := IntersectionArea(a, b)
	if inter <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	return inter / (union + Epsilon)
}

// IoM computes intersection over the smaller box's area. Used when one
// box may be much smaller than the other, e.g. furigana against kanji.
func IoM(a, b Box) float64 {
	inter := IntersectionArea(a, b)
	if inter <= 0 {
		return 0
	}
	smaller := math.Min(a.Area(), b.Area())
	return inter / (smaller + Epsilon)
}

// GIoU computes Generalized IoU: IoU minus the fraction of the
// enclosing box not covered by the union. Result is in (-1,1].
func GIoU(a, b Box) float64 {
	iou := IoU(a, b)
	enc := EnclosingBox(a, b)
	encArea := enc.Area()
	if encArea <= 0 {
		return iou
	}
	union := a.Area() + b.Area() - IntersectionArea(a, b)
	return iou - (encArea-union)/(encArea+Epsilon)
}

// DIoU computes Distance IoU: IoU penalized by the normalized squared
// center distance relative to the enclosing box diagonal.
func DIoU(a, b Box) float64 {
	iou := IoU(a, b)
	enc := EnclosingBox(a, b)
	diag := enc.Width*enc.Width + enc.Height*enc.Height
	dx := a.CenterX() - b.CenterX()
	dy := a.CenterY() - b.CenterY()
	return iou - (dx*dx+dy*dy)/(diag+Epsilon)
}

// CIoU computes Complete IoU: DIoU with an additional aspect-ratio
// consistency penalty.
func CIoU(a, b Box) float64 {
	iou := IoU(a, b)
	diou := DIoU(a, b)
	atanDiff := math.Atan(b.Width/(b.Height+Epsilon)) - math.Atan(a.Width/(a.Height+Epsilon))
	v := 4 / (math.Pi * math.Pi) * atanDiff * atanDiff
	alpha := v / ((1 - iou) + v + Epsilon)
	return diou - alpha*v
}

// CenterDistance computes the Euclidean distance between box centers.
func CenterDistance(a, b Box) float64 {
	return math.Hypot(a.CenterX()-b.CenterX(), a.CenterY()-b.CenterY())
}

// ManhattanDistance computes the L1 distance between box centers.
func ManhattanDistance(a, b Box) float64 {
	return math.Abs(a.CenterX()-b.CenterX()) + math.Abs(a.CenterY()-b.CenterY())
}

// EnclosingBox returns the smallest box containing both inputs.
func EnclosingBox(a, b Box) Box {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return BoxFromCorners(
		math.Min(a.X, b.X),
		math.Min(a.Y, b.Y),
		math.Max(a.MaxX(), b.MaxX()),
		math.Max(a.MaxY(), b.MaxY()),
	)
}

// DefaultContainsThreshold is the IoM fraction above which a box is
// considered contained in another.
const DefaultContainsThreshold = 0.9

// Contains reports whether contained lies inside container: true iff
// the intersection covers at least threshold of the contained box's area.
func Contains(container, contained Box, threshold float64) bool {
	if contained.Empty() {
		return false
	}
	inter := IntersectionArea(container, contained)
	return inter >= threshold*contained.Area()-Epsilon
}
