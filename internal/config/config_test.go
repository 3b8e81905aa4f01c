package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manga-tools/pageseg/internal/order"
	"github.com/manga-tools/pageseg/internal/suppress"
)

func newTestLoader() *Loader {
	return &Loader{v: viper.New()}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }},
		{"direction", func(c *Config) { c.Pipeline.Direction = "sideways" }},
		{"orientation", func(c *Config) { c.Pipeline.Orientation = "diagonal" }},
		{"suppression method", func(c *Config) { c.Pipeline.Suppression.Method = "fuzzy" }},
		{"downsample", func(c *Config) { c.Pipeline.Downsample = 0 }},
		{"background threshold", func(c *Config) { c.Pipeline.Panel.BackgroundThreshold = 300 }},
		{"eps scale", func(c *Config) { c.Pipeline.Region.EpsScale = 0 }},
		{"output format", func(c *Config) { c.Output.Format = "xml" }},
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"upload size", func(c *Config) { c.Server.MaxUploadMB = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseDirection(t *testing.T) {
	dir, err := ParseDirection("rtl")
	require.NoError(t, err)
	assert.Equal(t, order.RightToLeft, dir)

	dir, err = ParseDirection("western")
	require.NoError(t, err)
	assert.Equal(t, order.LeftToRight, dir)

	_, err = ParseDirection("down")
	assert.Error(t, err)
}

func TestParseSuppressMethod(t *testing.T) {
	m, err := ParseSuppressMethod("diou")
	require.NoError(t, err)
	assert.Equal(t, suppress.MethodDIoU, m)

	m, err = ParseSuppressMethod("")
	require.NoError(t, err)
	assert.Equal(t, suppress.MethodGreedy, m)

	_, err = ParseSuppressMethod("adaptive")
	assert.Error(t, err)
}

func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.Downsample = 2
	cfg.Pipeline.Direction = "ltr"
	cfg.Pipeline.Orientation = "vertical"
	cfg.Pipeline.Panel.MinSplitScore = 0.9
	cfg.Pipeline.Suppression.Method = "soft"
	cfg.Pipeline.Region.EpsScale = 3.0

	pc := cfg.ToPipelineConfig()
	assert.Equal(t, 2, pc.Downsample)
	assert.Equal(t, order.LeftToRight, pc.Panel.Order.Direction)
	assert.Equal(t, order.LeftToRight, pc.TextLine.Direction)
	assert.Equal(t, order.OrientationColumns, pc.TextLine.Orientation)
	assert.InDelta(t, 0.9, pc.Panel.MinSplitScore, 1e-9)
	assert.Equal(t, suppress.MethodSoft, pc.SuppressMethod)
	assert.InDelta(t, 3.0, pc.Region.EpsScale, 1e-9)
}

func TestToPipelineConfigIgnoresZeroOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.Panel.MinSplitScore = 0
	cfg.Pipeline.TextLine.CloseKernel = 0

	pc := cfg.ToPipelineConfig()
	assert.Positive(t, pc.Panel.MinSplitScore)
	assert.Positive(t, pc.TextLine.CloseKernel)
}

func TestLoaderDefaults(t *testing.T) {
	l := newTestLoader()
	l.setupEnvironmentVariables()
	l.setDefaults()

	cfg, err := l.unmarshal(true)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "rtl", cfg.Pipeline.Direction)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoaderWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pageseg.yaml")
	content := []byte("log_level: debug\npipeline:\n  direction: ltr\n  panel:\n    max_split_depth: 3\nserver:\n  port: 9000\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ltr", cfg.Pipeline.Direction)
	assert.Equal(t, 3, cfg.Pipeline.Panel.MaxSplitDepth)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoaderWithMissingFile(t *testing.T) {
	_, err := newTestLoader().LoadWithFile("/nonexistent/pageseg.yaml")
	assert.Error(t, err)
}

func TestLoaderWithInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pageseg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: trace\n"), 0o644))

	_, err := newTestLoader().LoadWithFile(path)
	assert.Error(t, err)
}

func TestLoaderEnvironmentOverride(t *testing.T) {
	t.Setenv("PAGESEG_LOG_LEVEL", "warn")

	l := newTestLoader()
	l.setupEnvironmentVariables()
	l.setDefaults()

	cfg, err := l.unmarshal(true)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pageseg.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
}
