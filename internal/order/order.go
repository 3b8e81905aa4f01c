// Package order assigns deterministic reading order to boxed items.
// The same row/column grouping logic serves panels, regions and text
// lines.
package order

import (
	"sort"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// Direction is the horizontal reading direction within a row.
type Direction int

const (
	// RightToLeft is manga order.
	RightToLeft Direction = iota
	// LeftToRight is western comic order.
	LeftToRight
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	if d == LeftToRight {
		return "ltr"
	}
	return "rtl"
}

// Orientation selects the grouping axis.
type Orientation int

const (
	// OrientationAuto picks rows or columns from center variance.
	OrientationAuto Orientation = iota
	// OrientationRows groups horizontally-read items into rows.
	OrientationRows
	// OrientationColumns groups vertically-read items into columns.
	OrientationColumns
)

// String returns a string representation of the orientation.
func (o Orientation) String() string {
	switch o {
	case OrientationRows:
		return "rows"
	case OrientationColumns:
		return "columns"
	default:
		return "auto"
	}
}

// Options tunes the grouping.
type Options struct {
	Orientation Orientation
	Direction   Direction
	// Tolerance scales the average row height (or column width) to
	// decide whether an item still belongs to the current group.
	Tolerance float64
}

// DefaultOptions returns manga-order defaults.
func DefaultOptions() Options {
	return Options{
		Orientation: OrientationAuto,
		Direction:   RightToLeft,
		Tolerance:   0.5,
	}
}

// Assign returns a reading order for the boxes: order[i] is the 1-based
// reading position of boxes[i]. The result is always a permutation of
// 1..len(boxes) with no gaps.
func Assign(boxes []geometry.Box, opts Options) []int {
	n := len(boxes)
	order := make([]int, n)
	if n == 0 {
		return order
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 0.5
	}

	orientation := opts.Orientation
	if orientation == OrientationAuto {
		orientation = SelectOrientation(boxes)
	}

	var sequence []int
	if orientation == OrientationColumns {
		sequence = columnOrder(boxes, opts.Tolerance)
	} else {
		sequence = rowOrder(boxes, opts.Direction, opts.Tolerance)
	}
	for pos, idx := range sequence {
		order[idx] = pos + 1
	}
	return order
}

// Sorted returns the box indices in reading order.
func Sorted(boxes []geometry.Box, opts Options) []int {
	order := Assign(boxes, opts)
	seq := make([]int, len(order))
	for i, pos := range order {
		if pos > 0 {
			seq[pos-1] = i
		}
	}
	return seq
}

// SelectOrientation compares the variance of horizontal vs vertical
// center positions: spread-out horizontal centers indicate vertical
// text read in columns, spread-out vertical centers indicate
// horizontal text read in rows.
func SelectOrientation(boxes []geometry.Box) Orientation {
	if len(boxes) < 2 {
		return OrientationRows
	}
	var sumX, sumY float64
	for _, b := range boxes {
		sumX += b.CenterX()
		sumY += b.CenterY()
	}
	n := float64(len(boxes))
	meanX, meanY := sumX/n, sumY/n

	var varX, varY float64
	for _, b := range boxes {
		dx := b.CenterX() - meanX
		dy := b.CenterY() - meanY
		varX += dx * dx
		varY += dy * dy
	}
	if varX > varY {
		return OrientationColumns
	}
	return OrientationRows
}

// Group clusters boxes into rows (horizontal text) or columns
// (vertical text) with the same tolerance logic Assign uses, without
// imposing an order. OrientationAuto is resolved first. Group indices
// refer to the input slice.
func Group(boxes []geometry.Box, orientation Orientation, tolerance float64) [][]int {
	if len(boxes) == 0 {
		return [][]int{}
	}
	if tolerance <= 0 {
		tolerance = 0.5
	}
	if orientation == OrientationAuto {
		orientation = SelectOrientation(boxes)
	}
	if orientation == OrientationColumns {
		return groupByAxis(boxes, tolerance,
			func(b geometry.Box) float64 { return b.CenterX() },
			func(b geometry.Box) float64 { return b.Width },
		)
	}
	return groupByAxis(boxes, tolerance,
		func(b geometry.Box) float64 { return b.CenterY() },
		func(b geometry.Box) float64 { return b.Height },
	)
}

// rowOrder groups items into rows top-to-bottom, each row ordered by
// horizontal center according to direction.
func rowOrder(boxes []geometry.Box, dir Direction, tolerance float64) []int {
	groups := groupByAxis(boxes, tolerance,
		func(b geometry.Box) float64 { return b.CenterY() },
		func(b geometry.Box) float64 { return b.Height },
	)

	sequence := make([]int, 0, len(boxes))
	for _, row := range groups {
		sort.SliceStable(row, func(i, j int) bool {
			if dir == RightToLeft {
				return boxes[row[i]].CenterX() > boxes[row[j]].CenterX()
			}
			return boxes[row[i]].CenterX() < boxes[row[j]].CenterX()
		})
		sequence = append(sequence, row...)
	}
	return sequence
}

// columnOrder groups items into columns right-to-left, each column
// ordered top-to-bottom.
func columnOrder(boxes []geometry.Box, tolerance float64) []int {
	groups := groupByAxis(boxes, tolerance,
		func(b geometry.Box) float64 { return b.CenterX() },
		func(b geometry.Box) float64 { return b.Width },
	)

	// Columns read right to left.
	sort.SliceStable(groups, func(i, j int) bool {
		return meanCenter(boxes, groups[i], func(b geometry.Box) float64 { return b.CenterX() }) >
			meanCenter(boxes, groups[j], func(b geometry.Box) float64 { return b.CenterX() })
	})

	sequence := make([]int, 0, len(boxes))
	for _, col := range groups {
		sort.SliceStable(col, func(i, j int) bool {
			return boxes[col[i]].CenterY() < boxes[col[j]].CenterY()
		})
		sequence = append(sequence, col...)
	}
	return sequence
}

// groupByAxis sorts items by a center coordinate and greedily packs
// them into groups: an item joins the current group while its center
// deviates from the group's running average by less than
// tolerance x (average extent).
func groupByAxis(boxes []geometry.Box, tolerance float64,
	center func(geometry.Box) float64, extent func(geometry.Box) float64,
) [][]int {
	indices := make([]int, len(boxes))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return center(boxes[indices[i]]) < center(boxes[indices[j]])
	})

	var groups [][]int
	var current []int
	var sumCenter, sumExtent float64
	for _, idx := range indices {
		c := center(boxes[idx])
		if len(current) > 0 {
			avgCenter := sumCenter / float64(len(current))
			avgExtent := sumExtent / float64(len(current))
			if absFloat(c-avgCenter) > tolerance*avgExtent {
				groups = append(groups, current)
				current = nil
				sumCenter, sumExtent = 0, 0
			}
		}
		current = append(current, idx)
		sumCenter += c
		sumExtent += extent(boxes[idx])
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func meanCenter(boxes []geometry.Box, group []int, center func(geometry.Box) float64) float64 {
	var sum float64
	for _, idx := range group {
		sum += center(boxes[idx])
	}
	return sum / float64(len(group))
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
