package suppress

import (
	"testing"

	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(x, y, w, h, conf float64) geometry.ScoredBox {
	return geometry.ScoredBox{Box: geometry.NewBox(x, y, w, h), Confidence: conf}
}

func TestNonMaxSuppression(t *testing.T) {
	boxes := []geometry.ScoredBox{
		scored(0, 0, 10, 10, 0.9),
		scored(1, 1, 9, 9, 0.8), // heavy overlap with #1
		scored(20, 20, 10, 10, 0.7),
	}
	kept := NonMaxSuppression(boxes, 0.5)
	require.Len(t, kept, 2)
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-9)
	assert.InDelta(t, 0.7, kept[1].Confidence, 1e-9)
}

func TestNonMaxSuppressionEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Suppress(nil, MethodGreedy, DefaultOptions()))
	assert.Empty(t, Suppress([]geometry.ScoredBox{}, MethodSoft, DefaultOptions()))

	one := []geometry.ScoredBox{scored(0, 0, 10, 10, 0.5)}
	kept := NonMaxSuppression(one, 0.5)
	require.Len(t, kept, 1)
	assert.Equal(t, one[0], kept[0])
}

func TestNonMaxSuppressionIdempotent(t *testing.T) {
	boxes := []geometry.ScoredBox{
		scored(0, 0, 10, 10, 0.9),
		scored(2, 2, 10, 10, 0.8),
		scored(30, 0, 10, 10, 0.7),
		scored(31, 1, 10, 10, 0.6),
		scored(60, 60, 10, 10, 0.5),
	}
	once := NonMaxSuppression(boxes, 0.4)
	twice := NonMaxSuppression(once, 0.4)
	assert.Equal(t, once, twice)
}

func TestNonMaxSuppressionTieBreakIsInputOrder(t *testing.T) {
	boxes := []geometry.ScoredBox{
		scored(0, 0, 10, 10, 0.5),
		scored(1, 1, 10, 10, 0.5), // same confidence, overlapping
	}
	kept := NonMaxSuppression(boxes, 0.3)
	require.Len(t, kept, 1)
	assert.Equal(t, boxes[0].Box, kept[0].Box)
}

func TestSoftNonMaxSuppression(t *testing.T) {
	boxes := []geometry.ScoredBox{
		scored(0, 0, 10, 10, 0.9),
		scored(1, 1, 9, 9, 0.8),
		scored(20, 20, 10, 10, 0.7),
	}

	// Gaussian decay keeps all boxes with decayed scores.
	kept := SoftNonMaxSuppression(boxes, SoftDecayGaussian, 0.5, 0.5, 0.1)
	require.Len(t, kept, 3)
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-9)
	// The overlapping competitor must have been decayed.
	var overlapped geometry.ScoredBox
	for _, b := range kept {
		if b.Box.X == 1 {
			overlapped = b
		}
	}
	assert.Less(t, overlapped.Confidence, 0.8)

	// A high score floor drops the decayed box entirely.
	strict := SoftNonMaxSuppression(boxes, SoftDecayGaussian, 0.5, 0.1, 0.6)
	assert.Less(t, len(strict), 3)

	// Linear decay only kicks in above the sub-threshold.
	lin := SoftNonMaxSuppression(boxes, SoftDecayLinear, 0.5, 0, 0.05)
	require.Len(t, lin, 3)
}

func TestClassAwareNonMaxSuppression(t *testing.T) {
	a := scored(0, 0, 10, 10, 0.9)
	b := scored(1, 1, 9, 9, 0.8)
	b.ClassID = 1 // overlaps a but different class: both survive
	c := scored(2, 2, 9, 9, 0.7) // same class as a: suppressed

	kept := ClassAwareNonMaxSuppression([]geometry.ScoredBox{a, b, c}, 0.4)
	require.Len(t, kept, 2)
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-9)
	assert.Equal(t, 1, kept[1].ClassID)
}

func TestMultiClassNonMaxSuppression(t *testing.T) {
	a := scored(0, 0, 10, 10, 0.9)
	nearDup := scored(0, 0, 10, 10, 0.8)
	nearDup.ClassID = 1 // IoU 1.0 > 0.8: suppressed despite class
	moderate := scored(4, 0, 10, 10, 0.7)
	moderate.ClassID = 1 // IoU ~0.43 < 0.8: cross-class survives

	kept := MultiClassNonMaxSuppression([]geometry.ScoredBox{a, nearDup, moderate}, 0.3)
	require.Len(t, kept, 2)
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-9)
	assert.InDelta(t, 0.7, kept[1].Confidence, 1e-9)
}

func TestDIoUNonMaxSuppression(t *testing.T) {
	boxes := []geometry.ScoredBox{
		scored(0, 0, 10, 10, 0.9),
		scored(1, 1, 9, 9, 0.8),
		scored(40, 40, 10, 10, 0.7),
	}
	kept := DIoUNonMaxSuppression(boxes, 0.5)
	require.Len(t, kept, 2)
	// The distant box must never be suppressed: DIoU is strongly negative.
	assert.InDelta(t, 0.7, kept[1].Confidence, 1e-9)
}

func TestSuppressDispatch(t *testing.T) {
	boxes := []geometry.ScoredBox{
		scored(0, 0, 10, 10, 0.9),
		scored(1, 1, 9, 9, 0.8),
	}
	opts := DefaultOptions()
	for _, m := range []Method{MethodGreedy, MethodSoft, MethodClassAware, MethodMultiClass, MethodDIoU} {
		kept := Suppress(boxes, m, opts)
		assert.NotEmpty(t, kept, "method %s", m)
	}
}
