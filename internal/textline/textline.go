// Package textline extracts text lines from grayscale page regions.
// Character components are binarized, closed along the writing
// direction, labeled and grouped into lines. Small ruby annotations
// (furigana) are detected by relative size and attached to the
// nearest main line instead of forming lines of their own.
package textline

import (
	"github.com/manga-tools/pageseg/internal/blob"
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/order"
)

// TextLine is a run of character blobs sharing a row or column.
type TextLine struct {
	// Box is the union of the member blob boxes.
	Box geometry.Box
	// Blobs holds the main-text components in reading order along
	// the line.
	Blobs []blob.Blob
	// Furigana holds ruby annotation blobs attached to this line.
	// They never contribute to Box or the character estimate.
	Furigana []blob.Blob
	// Orientation is OrientationRows for horizontal text and
	// OrientationColumns for vertical text.
	Orientation order.Orientation
	// CharCount estimates the number of characters from the line
	// extent and the typical character size.
	CharCount int
	// Confidence in [0,1] reflects how uniform the member blob
	// sizes and densities are.
	Confidence float64
	// ReadingOrder is the 1-based position of the line on the
	// page, 0 before assignment.
	ReadingOrder int
}

// Config controls line extraction.
type Config struct {
	// AdaptiveWindow is the square window for local thresholding.
	// Even values are rounded up.
	AdaptiveWindow int
	// AdaptiveOffset is subtracted from the local mean before
	// comparison.
	AdaptiveOffset int
	// CloseKernel is the length of the directional closing kernel
	// that bridges gaps between characters. The kernel is laid
	// horizontally for rows and transposed for columns.
	CloseKernel int

	// MinBlobArea and MaxBlobArea bound component areas in pixels.
	MinBlobArea float64
	MaxBlobArea float64
	// MinDensity rejects hollow components such as panel borders.
	MinDensity float64
	// MaxCrossAspect rejects components elongated against the
	// writing direction, for example a tall rule inside a
	// horizontal line.
	MaxCrossAspect float64

	// FuriganaHeightRatio is the size ratio below which a blob is
	// a ruby candidate relative to the typical character size.
	FuriganaHeightRatio float64
	// FuriganaMaxSize is an absolute cap in pixels. Blobs at or
	// above it are never furigana regardless of ratio.
	FuriganaMaxSize float64
	// FuriganaReach scales the typical character size to the
	// maximum center distance between a ruby candidate and its
	// main blob.
	FuriganaReach float64

	// GroupTolerance scales the average blob extent when grouping
	// blobs into lines.
	GroupTolerance float64
	// Orientation fixes the text direction, OrientationAuto
	// selects it from component center variance.
	Orientation order.Orientation
	// Direction orders lines and blobs within horizontal lines.
	Direction order.Direction
}

// DefaultConfig returns extraction defaults tuned for manga lettering.
func DefaultConfig() Config {
	return Config{
		AdaptiveWindow:      31,
		AdaptiveOffset:      10,
		CloseKernel:         7,
		MinBlobArea:         9,
		MaxBlobArea:         40000,
		MinDensity:          0.08,
		MaxCrossAspect:      8,
		FuriganaHeightRatio: 0.5,
		FuriganaMaxSize:     16,
		FuriganaReach:       2,
		GroupTolerance:      0.7,
		Orientation:         order.OrientationAuto,
		Direction:           order.RightToLeft,
	}
}
