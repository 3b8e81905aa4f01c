package geometry

// MergeStrategy selects how two scored boxes are combined.
type MergeStrategy int

const (
	// MergeUnion yields the smallest enclosing box.
	MergeUnion MergeStrategy = iota
	// MergeIntersection yields the overlap region, zero-area if disjoint.
	MergeIntersection
	// MergeWeighted blends centers and extents by confidence.
	MergeWeighted
)

// String returns a string representation of the strategy.
func (s MergeStrategy) String() string {
	switch s {
	case MergeIntersection:
		return "intersection"
	case MergeWeighted:
		return "weighted"
	default:
		return "union"
	}
}

// Merge combines two scored boxes according to strategy. The result's
// confidence is the maximum of the inputs for union/intersection and
// the weighted mean for MergeWeighted. Inputs are not mutated.
func Merge(a, b ScoredBox, strategy MergeStrategy) ScoredBox {
	switch strategy {
	case MergeIntersection:
		return ScoredBox{
			Box:        intersectionBox(a.Box, b.Box),
			Confidence: maxFloat(a.Score(), b.Score()),
			ClassID:    a.ClassID,
		}
	case MergeWeighted:
		return mergeWeighted(a, b)
	default:
		return ScoredBox{
			Box:        EnclosingBox(a.Box, b.Box),
			Confidence: maxFloat(a.Score(), b.Score()),
			ClassID:    a.ClassID,
		}
	}
}

func intersectionBox(a, b Box) Box {
	if IntersectionArea(a, b) <= 0 {
		// Disjoint boxes intersect in a zero-area box at the gap midpoint.
		return Box{X: (a.CenterX() + b.CenterX()) / 2, Y: (a.CenterY() + b.CenterY()) / 2}
	}
	left := maxFloat(a.X, b.X)
	top := maxFloat(a.Y, b.Y)
	right := minFloat(a.MaxX(), b.MaxX())
	bottom := minFloat(a.MaxY(), b.MaxY())
	return BoxFromCorners(left, top, right, bottom)
}

func mergeWeighted(a, b ScoredBox) ScoredBox {
	conf := (a.Score() + b.Score()) / 2
	wa := a.Score()
	wb := b.Score()
	total := wa + wb
	if total <= Epsilon {
		// Both scores zero: plain average.
		wa, wb, total = 1, 1, 2
	}
	cx := (a.Box.CenterX()*wa + b.Box.CenterX()*wb) / total
	cy := (a.Box.CenterY()*wa + b.Box.CenterY()*wb) / total
	w := (a.Box.Width*wa + b.Box.Width*wb) / total
	h := (a.Box.Height*wa + b.Box.Height*wb) / total
	return ScoredBox{
		Box:        NewBox(cx-w/2, cy-h/2, w, h),
		Confidence: conf,
		ClassID:    a.ClassID,
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
