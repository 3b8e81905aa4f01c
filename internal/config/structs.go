// Package config loads pageseg settings from files, environment
// variables and flags, and maps them onto pipeline configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/manga-tools/pageseg/internal/order"
	"github.com/manga-tools/pageseg/internal/pipeline"
	"github.com/manga-tools/pageseg/internal/suppress"
)

// Config represents the complete configuration for the pageseg
// application, covering the analyze and serve commands.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig contains analysis settings.
type PipelineConfig struct {
	// Downsample divides page dimensions before analysis.
	Downsample int `mapstructure:"downsample" yaml:"downsample" json:"downsample"`
	// Direction is "rtl" (manga) or "ltr" (western).
	Direction string `mapstructure:"direction" yaml:"direction" json:"direction"`
	// Orientation is "auto", "horizontal" or "vertical" text.
	Orientation string `mapstructure:"orientation" yaml:"orientation" json:"orientation"`

	Panel       PanelConfig       `mapstructure:"panel" yaml:"panel" json:"panel"`
	TextLine    TextLineConfig    `mapstructure:"textline" yaml:"textline" json:"textline"`
	Region      RegionConfig      `mapstructure:"region" yaml:"region" json:"region"`
	Suppression SuppressionConfig `mapstructure:"suppression" yaml:"suppression" json:"suppression"`
	Parallel    ParallelConfig    `mapstructure:"parallel" yaml:"parallel" json:"parallel"`
}

// PanelConfig contains panel segmentation settings.
type PanelConfig struct {
	BackgroundThreshold int     `mapstructure:"background_threshold" yaml:"background_threshold" json:"background_threshold"`
	MinSplitScore       float64 `mapstructure:"min_split_score" yaml:"min_split_score" json:"min_split_score"`
	MaxSplitDepth       int     `mapstructure:"max_split_depth" yaml:"max_split_depth" json:"max_split_depth"`
	MinPanelSize        int     `mapstructure:"min_panel_size" yaml:"min_panel_size" json:"min_panel_size"`
}

// TextLineConfig contains text line extraction settings.
type TextLineConfig struct {
	AdaptiveWindow int     `mapstructure:"adaptive_window" yaml:"adaptive_window" json:"adaptive_window"`
	CloseKernel    int     `mapstructure:"close_kernel" yaml:"close_kernel" json:"close_kernel"`
	FuriganaRatio  float64 `mapstructure:"furigana_ratio" yaml:"furigana_ratio" json:"furigana_ratio"`
	FuriganaMax    float64 `mapstructure:"furigana_max" yaml:"furigana_max" json:"furigana_max"`
}

// RegionConfig contains line-to-region clustering settings.
type RegionConfig struct {
	EpsScale float64 `mapstructure:"eps_scale" yaml:"eps_scale" json:"eps_scale"`
	MinLines int     `mapstructure:"min_lines" yaml:"min_lines" json:"min_lines"`
}

// SuppressionConfig contains candidate-box NMS settings.
type SuppressionConfig struct {
	// Method is one of greedy, soft, class_aware, multi_class, diou.
	Method         string  `mapstructure:"method" yaml:"method" json:"method"`
	IoUThreshold   float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
	Sigma          float64 `mapstructure:"sigma" yaml:"sigma" json:"sigma"`
	ScoreThreshold float64 `mapstructure:"score_threshold" yaml:"score_threshold" json:"score_threshold"`
}

// ParallelConfig contains multi-page processing settings.
type ParallelConfig struct {
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Format is json, yaml or csv.
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
	// OverlayDir enables overlay PNGs written next to the results.
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	// ThumbnailWidth scales overlays down when >0.
	ThumbnailWidth int `mapstructure:"thumbnail_width" yaml:"thumbnail_width" json:"thumbnail_width"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	OverlayEnabled  bool   `mapstructure:"overlay_enabled" yaml:"overlay_enabled" json:"overlay_enabled"`
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	pd := pipeline.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Pipeline: PipelineConfig{
			Downsample:  pd.Downsample,
			Direction:   "rtl",
			Orientation: "auto",
			Panel: PanelConfig{
				BackgroundThreshold: int(pd.Panel.BackgroundThreshold),
				MinSplitScore:       pd.Panel.MinSplitScore,
				MaxSplitDepth:       pd.Panel.MaxSplitDepth,
				MinPanelSize:        pd.Panel.MinPanelSize,
			},
			TextLine: TextLineConfig{
				AdaptiveWindow: pd.TextLine.AdaptiveWindow,
				CloseKernel:    pd.TextLine.CloseKernel,
				FuriganaRatio:  pd.TextLine.FuriganaHeightRatio,
				FuriganaMax:    pd.TextLine.FuriganaMaxSize,
			},
			Region: RegionConfig{
				EpsScale: pd.Region.EpsScale,
				MinLines: pd.Region.MinLines,
			},
			Suppression: SuppressionConfig{
				Method:         "greedy",
				IoUThreshold:   pd.Suppress.IoUThreshold,
				Sigma:          pd.Suppress.Sigma,
				ScoreThreshold: pd.Suppress.ScoreThreshold,
			},
			Parallel: ParallelConfig{
				MaxWorkers: pd.Parallel.MaxWorkers,
			},
		},
		Output: OutputConfig{
			Format:         "json",
			ThumbnailWidth: 0,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     32,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
			OverlayEnabled:  false,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if _, err := ParseDirection(c.Pipeline.Direction); err != nil {
		return err
	}
	if _, err := ParseOrientation(c.Pipeline.Orientation); err != nil {
		return err
	}
	if _, err := ParseSuppressMethod(c.Pipeline.Suppression.Method); err != nil {
		return err
	}
	if c.Pipeline.Downsample < 1 {
		return fmt.Errorf("downsample must be >= 1, got %d", c.Pipeline.Downsample)
	}
	if bt := c.Pipeline.Panel.BackgroundThreshold; bt < 1 || bt > 255 {
		return fmt.Errorf("background threshold must be in 1..255, got %d", bt)
	}
	if c.Pipeline.Region.EpsScale <= 0 {
		return fmt.Errorf("region eps scale must be > 0, got %v", c.Pipeline.Region.EpsScale)
	}
	switch c.Output.Format {
	case "json", "yaml", "csv":
	default:
		return fmt.Errorf("invalid output format %q", c.Output.Format)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("max upload must be >= 1 MB, got %d", c.Server.MaxUploadMB)
	}
	return nil
}

// ParseDirection maps a config string to a reading direction.
func ParseDirection(s string) (order.Direction, error) {
	switch strings.ToLower(s) {
	case "rtl", "manga", "":
		return order.RightToLeft, nil
	case "ltr", "western":
		return order.LeftToRight, nil
	default:
		return order.RightToLeft, fmt.Errorf("invalid reading direction %q", s)
	}
}

// ParseOrientation maps a config string to a text orientation.
func ParseOrientation(s string) (order.Orientation, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return order.OrientationAuto, nil
	case "horizontal", "rows":
		return order.OrientationRows, nil
	case "vertical", "columns":
		return order.OrientationColumns, nil
	default:
		return order.OrientationAuto, fmt.Errorf("invalid text orientation %q", s)
	}
}

// ParseSuppressMethod maps a config string to an NMS variant.
func ParseSuppressMethod(s string) (suppress.Method, error) {
	switch strings.ToLower(s) {
	case "greedy", "hard", "":
		return suppress.MethodGreedy, nil
	case "soft":
		return suppress.MethodSoft, nil
	case "class_aware":
		return suppress.MethodClassAware, nil
	case "multi_class":
		return suppress.MethodMultiClass, nil
	case "diou":
		return suppress.MethodDIoU, nil
	default:
		return suppress.MethodGreedy, fmt.Errorf("invalid suppression method %q", s)
	}
}

// ToPipelineConfig maps the application config onto the pipeline
// stage configuration, assuming Validate has passed.
func (c *Config) ToPipelineConfig() pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.Downsample = c.Pipeline.Downsample

	dir, _ := ParseDirection(c.Pipeline.Direction)
	orient, _ := ParseOrientation(c.Pipeline.Orientation)
	pc.Panel.Order.Direction = dir
	pc.TextLine.Direction = dir
	pc.TextLine.Orientation = orient

	if v := c.Pipeline.Panel.BackgroundThreshold; v > 0 && v <= 255 {
		pc.Panel.BackgroundThreshold = uint8(v)
	}
	if v := c.Pipeline.Panel.MinSplitScore; v > 0 {
		pc.Panel.MinSplitScore = v
	}
	if v := c.Pipeline.Panel.MaxSplitDepth; v > 0 {
		pc.Panel.MaxSplitDepth = v
	}
	if v := c.Pipeline.Panel.MinPanelSize; v > 0 {
		pc.Panel.MinPanelSize = v
	}

	if v := c.Pipeline.TextLine.AdaptiveWindow; v >= 3 {
		pc.TextLine.AdaptiveWindow = v
	}
	if v := c.Pipeline.TextLine.CloseKernel; v > 0 {
		pc.TextLine.CloseKernel = v
	}
	if v := c.Pipeline.TextLine.FuriganaRatio; v > 0 {
		pc.TextLine.FuriganaHeightRatio = v
	}
	if v := c.Pipeline.TextLine.FuriganaMax; v > 0 {
		pc.TextLine.FuriganaMaxSize = v
	}

	if v := c.Pipeline.Region.EpsScale; v > 0 {
		pc.Region.EpsScale = v
	}
	if v := c.Pipeline.Region.MinLines; v >= 1 {
		pc.Region.MinLines = v
	}

	method, _ := ParseSuppressMethod(c.Pipeline.Suppression.Method)
	pc.SuppressMethod = method
	if v := c.Pipeline.Suppression.IoUThreshold; v > 0 {
		pc.Suppress.IoUThreshold = v
	}
	if v := c.Pipeline.Suppression.Sigma; v > 0 {
		pc.Suppress.Sigma = v
	}
	if v := c.Pipeline.Suppression.ScoreThreshold; v > 0 {
		pc.Suppress.ScoreThreshold = v
	}

	if v := c.Pipeline.Parallel.MaxWorkers; v > 0 {
		pc.Parallel.MaxWorkers = v
	}
	return pc
}
