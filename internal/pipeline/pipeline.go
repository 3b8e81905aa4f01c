// Package pipeline wires the page geometry stages together: panel
// segmentation, per-panel text line extraction, region clustering and
// reading-order assignment, with optional downsampling and parallel
// multi-page processing.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/manga-tools/pageseg/internal/order"
	"github.com/manga-tools/pageseg/internal/panel"
	"github.com/manga-tools/pageseg/internal/suppress"
	"github.com/manga-tools/pageseg/internal/textline"
)

// Config holds configuration for the analysis pipeline and its stages.
type Config struct {
	// Downsample divides both page dimensions before analysis.
	// Results are reported in original coordinates. 1 disables.
	Downsample int
	Panel      panel.Config
	TextLine   textline.Config
	Region     RegionConfig
	// SuppressMethod and Suppress configure the candidate-box
	// deduplication entry point used when an external detector
	// feeds boxes in.
	SuppressMethod suppress.Method
	Suppress       suppress.Options
	Parallel       ParallelConfig
}

// RegionConfig controls grouping of text lines into regions.
type RegionConfig struct {
	// EpsScale multiplies the median line extent to produce the
	// DBSCAN neighborhood radius.
	EpsScale float64
	// MinLines is the DBSCAN core-point minimum. 1 keeps every
	// line in some region.
	MinLines int
}

// DefaultConfig returns pipeline defaults with component defaults.
func DefaultConfig() Config {
	return Config{
		Downsample: 1,
		Panel:      panel.DefaultConfig(),
		TextLine:   textline.DefaultConfig(),
		Region: RegionConfig{
			EpsScale: 2.5,
			MinLines: 1,
		},
		SuppressMethod: suppress.MethodGreedy,
		Suppress:       suppress.DefaultOptions(),
		Parallel:       DefaultParallelConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg    Config
	logger *slog.Logger
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// NewBuilderFrom starts a builder from an existing configuration.
// Build still validates, so a loaded config goes through the same
// checks as one assembled with the With setters.
func NewBuilderFrom(cfg Config) *Builder { return &Builder{cfg: cfg} }

// WithLogger sets the structured logger used during analysis.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithDownsample sets the integer downsampling factor (if >1).
func (b *Builder) WithDownsample(factor int) *Builder {
	if factor >= 1 {
		b.cfg.Downsample = factor
	}
	return b
}

// WithReadingDirection sets manga (right-to-left) or western order
// for panels, regions and lines.
func (b *Builder) WithReadingDirection(dir order.Direction) *Builder {
	b.cfg.Panel.Order.Direction = dir
	b.cfg.TextLine.Direction = dir
	return b
}

// WithTextOrientation fixes the text orientation instead of
// auto-detecting it per panel.
func (b *Builder) WithTextOrientation(o order.Orientation) *Builder {
	b.cfg.TextLine.Orientation = o
	return b
}

// WithBackgroundThreshold sets the page background brightness cutoff.
func (b *Builder) WithBackgroundThreshold(v uint8) *Builder {
	if v > 0 {
		b.cfg.Panel.BackgroundThreshold = v
	}
	return b
}

// WithMinPanelSize sets the minimum panel extent in working pixels.
func (b *Builder) WithMinPanelSize(px int) *Builder {
	if px > 0 {
		b.cfg.Panel.MinPanelSize = px
	}
	return b
}

// WithSplitDepth caps the recursive panel splitting depth.
func (b *Builder) WithSplitDepth(depth int) *Builder {
	if depth > 0 {
		b.cfg.Panel.MaxSplitDepth = depth
	}
	return b
}

// WithRegionEps sets the region clustering radius scale.
func (b *Builder) WithRegionEps(scale float64) *Builder {
	if scale > 0 {
		b.cfg.Region.EpsScale = scale
	}
	return b
}

// WithSuppression selects the NMS variant and IoU threshold for the
// candidate-box entry point.
func (b *Builder) WithSuppression(method suppress.Method, iou float64) *Builder {
	b.cfg.SuppressMethod = method
	if iou > 0 {
		b.cfg.Suppress.IoUThreshold = iou
	}
	return b
}

// WithSoftSuppression enables Soft-NMS with the given decay, sigma
// and final score threshold.
func (b *Builder) WithSoftSuppression(decay suppress.SoftDecay, sigma, scoreThresh float64) *Builder {
	b.cfg.SuppressMethod = suppress.MethodSoft
	b.cfg.Suppress.SoftDecay = decay
	if sigma > 0 {
		b.cfg.Suppress.Sigma = sigma
	}
	if scoreThresh > 0 {
		b.cfg.Suppress.ScoreThreshold = scoreThresh
	}
	return b
}

// WithParallelWorkers sets the number of workers for multi-page runs.
func (b *Builder) WithParallelWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Parallel.MaxWorkers = workers
	}
	return b
}

// WithProgressCallback sets the progress callback for multi-page runs.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration is usable.
func (b *Builder) Validate() error {
	if b.cfg.Downsample < 1 {
		return errors.New("downsample factor must be >= 1")
	}
	if b.cfg.Panel.MinSplitScore <= 0 {
		return errors.New("panel min split score must be > 0")
	}
	if b.cfg.Panel.MaxSplitDepth < 0 {
		return errors.New("panel split depth must be >= 0")
	}
	if b.cfg.Region.EpsScale <= 0 {
		return errors.New("region eps scale must be > 0")
	}
	if b.cfg.Region.MinLines < 1 {
		return errors.New("region min lines must be >= 1")
	}
	if t := b.cfg.Suppress.IoUThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("suppression iou threshold %v out of range", t)
	}
	return nil
}

// Pipeline is a stateless page geometry analyzer. It is safe for
// concurrent use.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// Build validates the configuration and constructs the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: b.cfg, logger: logger}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Info returns key pipeline properties for diagnostics endpoints.
func (p *Pipeline) Info() map[string]interface{} {
	return map[string]interface{}{
		"downsample": p.cfg.Downsample,
		"panel": map[string]interface{}{
			"min_split_score": p.cfg.Panel.MinSplitScore,
			"max_split_depth": p.cfg.Panel.MaxSplitDepth,
			"min_panel_size":  p.cfg.Panel.MinPanelSize,
			"direction":       p.cfg.Panel.Order.Direction.String(),
		},
		"textline": map[string]interface{}{
			"orientation":  p.cfg.TextLine.Orientation.String(),
			"close_kernel": p.cfg.TextLine.CloseKernel,
		},
		"region": map[string]interface{}{
			"eps_scale": p.cfg.Region.EpsScale,
			"min_lines": p.cfg.Region.MinLines,
		},
		"suppression": map[string]interface{}{
			"method":        p.cfg.SuppressMethod.String(),
			"iou_threshold": p.cfg.Suppress.IoUThreshold,
		},
		"parallel": map[string]interface{}{
			"max_workers": p.cfg.Parallel.MaxWorkers,
		},
	}
}
