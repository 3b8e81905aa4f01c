// Package suppress deduplicates overlapping candidate boxes using the
// Non-Maximum Suppression family of algorithms.
package suppress

import (
	"sort"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// Method selects a suppression variant.
type Method int

const (
	// MethodGreedy is standard hard NMS.
	MethodGreedy Method = iota
	// MethodSoft decays competing scores instead of removing boxes.
	MethodSoft
	// MethodClassAware runs greedy NMS independently per class.
	MethodClassAware
	// MethodMultiClass suppresses across classes only for near-duplicates.
	MethodMultiClass
	// MethodDIoU is greedy NMS over the DIoU metric.
	MethodDIoU
)

// String returns a string representation of the method.
func (m Method) String() string {
	switch m {
	case MethodSoft:
		return "soft"
	case MethodClassAware:
		return "class_aware"
	case MethodMultiClass:
		return "multi_class"
	case MethodDIoU:
		return "diou"
	default:
		return "greedy"
	}
}

// CrossClassIoUThreshold is the overlap above which two boxes are
// considered duplicates regardless of class in multi-class NMS.
const CrossClassIoUThreshold = 0.8

// DIoUThresholdShift compensates for DIoU's wider negative range when
// reusing an IoU-calibrated threshold.
const DIoUThresholdShift = 0.2

// Options bundles the tunables shared by the suppression variants.
type Options struct {
	IoUThreshold   float64
	SoftDecay      SoftDecay
	Sigma          float64 // Gaussian decay width
	ScoreThreshold float64 // Soft-NMS stop/filter score
}

// DefaultOptions returns suppression defaults matching typical detector output.
func DefaultOptions() Options {
	return Options{
		IoUThreshold:   0.5,
		SoftDecay:      SoftDecayGaussian,
		Sigma:          0.5,
		ScoreThreshold: 0.001,
	}
}

// Suppress dispatches to the selected suppression variant. An empty
// input returns an empty (non-nil) slice for every method.
func Suppress(boxes []geometry.ScoredBox, method Method, opts Options) []geometry.ScoredBox {
	if len(boxes) == 0 {
		return []geometry.ScoredBox{}
	}
	switch method {
	case MethodSoft:
		return SoftNonMaxSuppression(boxes, opts.SoftDecay, opts.IoUThreshold, opts.Sigma, opts.ScoreThreshold)
	case MethodClassAware:
		return ClassAwareNonMaxSuppression(boxes, opts.IoUThreshold)
	case MethodMultiClass:
		return MultiClassNonMaxSuppression(boxes, opts.IoUThreshold)
	case MethodDIoU:
		return DIoUNonMaxSuppression(boxes, opts.IoUThreshold)
	default:
		return NonMaxSuppression(boxes, opts.IoUThreshold)
	}
}

// NonMaxSuppression performs standard greedy NMS: boxes are visited in
// descending confidence order (ties broken by input order) and each
// kept box suppresses every later box overlapping it above iouThreshold.
func NonMaxSuppression(boxes []geometry.ScoredBox, iouThreshold float64) []geometry.ScoredBox {
	if len(boxes) <= 1 {
		return append([]geometry.ScoredBox{}, boxes...)
	}

	indices := sortByConfidence(boxes)
	suppressed := make([]bool, len(boxes))
	kept := make([]geometry.ScoredBox, 0, len(boxes))

	for _, a := range indices {
		if suppressed[a] {
			continue
		}
		kept = append(kept, boxes[a])
		for _, b := range indices {
			if suppressed[b] || a == b {
				continue
			}
			if geometry.IoU(boxes[a].Box, boxes[b].Box) > iouThreshold {
				suppressed[b] = true
			}
		}
	}
	return kept
}

// ClassAwareNonMaxSuppression partitions boxes by class, runs greedy
// NMS per partition and concatenates the results sorted by confidence.
func ClassAwareNonMaxSuppression(boxes []geometry.ScoredBox, iouThreshold float64) []geometry.ScoredBox {
	if len(boxes) <= 1 {
		return append([]geometry.ScoredBox{}, boxes...)
	}

	byClass := make(map[int][]geometry.ScoredBox)
	classOrder := make([]int, 0)
	for _, b := range boxes {
		if _, seen := byClass[b.ClassID]; !seen {
			classOrder = append(classOrder, b.ClassID)
		}
		byClass[b.ClassID] = append(byClass[b.ClassID], b)
	}

	kept := make([]geometry.ScoredBox, 0, len(boxes))
	for _, class := range classOrder {
		kept = append(kept, NonMaxSuppression(byClass[class], iouThreshold)...)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score() > kept[j].Score()
	})
	return kept
}

// MultiClassNonMaxSuppression performs a single greedy pass where a
// lower-confidence neighbor is suppressed unconditionally only within
// the same class; across classes suppression requires near-duplicate
// overlap above CrossClassIoUThreshold.
func MultiClassNonMaxSuppression(boxes []geometry.ScoredBox, iouThreshold float64) []geometry.ScoredBox {
	if len(boxes) <= 1 {
		return append([]geometry.ScoredBox{}, boxes...)
	}

	indices := sortByConfidence(boxes)
	suppressed := make([]bool, len(boxes))
	kept := make([]geometry.ScoredBox, 0, len(boxes))

	for i, a := range indices {
		if suppressed[a] {
			continue
		}
		kept = append(kept, boxes[a])
		for _, b := range indices[i+1:] {
			if suppressed[b] {
				continue
			}
			iou := geometry.IoU(boxes[a].Box, boxes[b].Box)
			sameClass := boxes[a].ClassID == boxes[b].ClassID
			if (sameClass && iou > iouThreshold) || (!sameClass && iou > CrossClassIoUThreshold) {
				suppressed[b] = true
			}
		}
	}
	return kept
}

// DIoUNonMaxSuppression is greedy NMS with DIoU in place of IoU. The
// comparison threshold is shifted down by DIoUThresholdShift to
// compensate for DIoU's wider negative range.
func DIoUNonMaxSuppression(boxes []geometry.ScoredBox, iouThreshold float64) []geometry.ScoredBox {
	if len(boxes) <= 1 {
		return append([]geometry.ScoredBox{}, boxes...)
	}

	threshold := iouThreshold - DIoUThresholdShift
	indices := sortByConfidence(boxes)
	suppressed := make([]bool, len(boxes))
	kept := make([]geometry.ScoredBox, 0, len(boxes))

	for i, a := range indices {
		if suppressed[a] {
			continue
		}
		kept = append(kept, boxes[a])
		for _, b := range indices[i+1:] {
			if suppressed[b] {
				continue
			}
			if geometry.DIoU(boxes[a].Box, boxes[b].Box) > threshold {
				suppressed[b] = true
			}
		}
	}
	return kept
}

// sortByConfidence returns box indices ordered by descending score.
// The stable sort keeps input order on ties so suppression is
// deterministic.
func sortByConfidence(boxes []geometry.ScoredBox) []int {
	indices := make([]int, len(boxes))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return boxes[indices[i]].Score() > boxes[indices[j]].Score()
	})
	return indices
}
