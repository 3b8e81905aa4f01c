package pipeline

import (
	"time"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// Result holds the full geometry analysis of one page. All
// coordinates are in original image pixels, independent of any
// internal downsampling.
type Result struct {
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Downsample int           `json:"downsample"`
	Panels     []PanelResult `json:"panels"`
	Duration   time.Duration `json:"duration_ns"`
}

// PanelResult is one detected panel with its text regions.
type PanelResult struct {
	Box          geometry.Box      `json:"box"`
	Corners      [4]geometry.Point `json:"corners"`
	Type         string            `json:"type"`
	Solidity     float64           `json:"solidity"`
	Confidence   float64           `json:"confidence"`
	TouchesEdge  bool              `json:"touches_edge"`
	ReadingOrder int               `json:"reading_order"`
	// Parent is the index of the containing panel for insets, -1
	// otherwise.
	Parent  int            `json:"parent"`
	Regions []RegionResult `json:"regions"`
}

// RegionResult is a spatial cluster of text lines inside a panel,
// roughly one speech bubble or caption.
type RegionResult struct {
	Box          geometry.Box `json:"box"`
	ReadingOrder int          `json:"reading_order"`
	Lines        []LineResult `json:"lines"`
}

// LineResult is one extracted text line.
type LineResult struct {
	Box          geometry.Box   `json:"box"`
	Orientation  string         `json:"orientation"`
	CharCount    int            `json:"char_count"`
	Confidence   float64        `json:"confidence"`
	ReadingOrder int            `json:"reading_order"`
	Furigana     []geometry.Box `json:"furigana,omitempty"`
}
