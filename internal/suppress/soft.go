package suppress

import (
	"math"
	"sort"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// SoftDecay selects the score-decay function used by Soft-NMS.
type SoftDecay int

const (
	// SoftDecayGaussian multiplies competing scores by exp(-iou²/σ).
	SoftDecayGaussian SoftDecay = iota
	// SoftDecayLinear multiplies by (1-iou) once overlap exceeds the threshold.
	SoftDecayLinear
)

// String returns a string representation of the decay function.
func (d SoftDecay) String() string {
	if d == SoftDecayLinear {
		return "linear"
	}
	return "gaussian"
}

// SoftNonMaxSuppression performs Soft-NMS: instead of hard suppression
// the competing box's score is decayed, and the current maximum score
// is re-selected each round. Boxes whose decayed score falls below
// scoreThreshold are dropped; survivors are returned with their decayed
// scores, sorted by confidence descending.
func SoftNonMaxSuppression(boxes []geometry.ScoredBox, decay SoftDecay,
	iouThreshold, sigma, scoreThreshold float64,
) []geometry.ScoredBox {
	if len(boxes) == 0 {
		return []geometry.ScoredBox{}
	}
	if sigma <= 0 {
		sigma = 0.5
	}

	work := make([]geometry.ScoredBox, len(boxes))
	copy(work, boxes)
	for i := range work {
		work[i].Confidence = work[i].Score()
	}

	for i := range work {
		// Re-select the current maximum among the remaining boxes.
		maxIdx := i
		for j := i + 1; j < len(work); j++ {
			if work[j].Confidence > work[maxIdx].Confidence {
				maxIdx = j
			}
		}
		work[i], work[maxIdx] = work[maxIdx], work[i]

		if work[i].Confidence < scoreThreshold {
			break
		}
		for j := i + 1; j < len(work); j++ {
			iou := geometry.IoU(work[i].Box, work[j].Box)
			work[j].Confidence *= softWeight(iou, iouThreshold, sigma, decay)
		}
	}

	kept := make([]geometry.ScoredBox, 0, len(work))
	for _, b := range work {
		if b.Confidence >= scoreThreshold {
			kept = append(kept, b)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})
	return kept
}

// softWeight computes the decay factor for a competing box.
func softWeight(iou, iouThreshold, sigma float64, decay SoftDecay) float64 {
	switch decay {
	case SoftDecayLinear:
		if iou >= iouThreshold {
			return 1.0 - iou
		}
		return 1.0
	default:
		return math.Exp(-(iou * iou) / sigma)
	}
}
