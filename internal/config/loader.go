package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files
	// (without extension).
	ConfigFileName = "pageseg"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "PAGESEG"
)

// Loader handles loading configuration from files, environment
// variables and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra
// flag bindings are visible.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the search paths and environment,
// falling back to defaults, and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal(true)
}

// LoadWithFile reads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal(true)
}

func (l *Loader) unmarshal(validate bool) (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if validate {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return &config, nil
}

// Get returns a raw value from the configuration.
func (l *Loader) Get(key string) interface{} { return l.v.Get(key) }

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string { return l.v.GetString(key) }

// Set overrides a value in the configuration.
func (l *Loader) Set(key string, value interface{}) { l.v.Set(key, value) }

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string { return l.v.ConfigFileUsed() }

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper { return l.v }

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath("/etc/pageseg")
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "pageseg"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "pageseg"))
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults mirrors DefaultConfig into viper so partial config
// files inherit the rest.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("pipeline.downsample", d.Pipeline.Downsample)
	l.v.SetDefault("pipeline.direction", d.Pipeline.Direction)
	l.v.SetDefault("pipeline.orientation", d.Pipeline.Orientation)

	l.v.SetDefault("pipeline.panel.background_threshold", d.Pipeline.Panel.BackgroundThreshold)
	l.v.SetDefault("pipeline.panel.min_split_score", d.Pipeline.Panel.MinSplitScore)
	l.v.SetDefault("pipeline.panel.max_split_depth", d.Pipeline.Panel.MaxSplitDepth)
	l.v.SetDefault("pipeline.panel.min_panel_size", d.Pipeline.Panel.MinPanelSize)

	l.v.SetDefault("pipeline.textline.adaptive_window", d.Pipeline.TextLine.AdaptiveWindow)
	l.v.SetDefault("pipeline.textline.close_kernel", d.Pipeline.TextLine.CloseKernel)
	l.v.SetDefault("pipeline.textline.furigana_ratio", d.Pipeline.TextLine.FuriganaRatio)
	l.v.SetDefault("pipeline.textline.furigana_max", d.Pipeline.TextLine.FuriganaMax)

	l.v.SetDefault("pipeline.region.eps_scale", d.Pipeline.Region.EpsScale)
	l.v.SetDefault("pipeline.region.min_lines", d.Pipeline.Region.MinLines)

	l.v.SetDefault("pipeline.suppression.method", d.Pipeline.Suppression.Method)
	l.v.SetDefault("pipeline.suppression.iou_threshold", d.Pipeline.Suppression.IoUThreshold)
	l.v.SetDefault("pipeline.suppression.sigma", d.Pipeline.Suppression.Sigma)
	l.v.SetDefault("pipeline.suppression.score_threshold", d.Pipeline.Suppression.ScoreThreshold)

	l.v.SetDefault("pipeline.parallel.max_workers", d.Pipeline.Parallel.MaxWorkers)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.thumbnail_width", d.Output.ThumbnailWidth)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	l.v.SetDefault("server.overlay_enabled", d.Server.OverlayEnabled)
}

// GetResolvedConfig returns the merged settings for debugging.
func (l *Loader) GetResolvedConfig() map[string]interface{} {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes the defaults as a starter config.
func GenerateDefaultConfigFile(filename string) error {
	loader := &Loader{v: viper.New()}
	loader.setDefaults()
	if filename == "" {
		filename = "pageseg.yaml"
	}
	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files
// are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "pageseg"))
	}
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "pageseg"))
	}
	return append(paths, "/etc/pageseg")
}
