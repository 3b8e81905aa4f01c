package cmd

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manga-tools/pageseg/internal/testutil"
)

func writeTestPage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, testutil.TwoPanelPage()))
	require.NoError(t, f.Close())
	return path
}

func TestAnalyzeCommandNoArgs(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestAnalyzeCommandUnsupportedFormat(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze", "page.tiff"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestAnalyzeCommandMissingFile(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze", "does-not-exist.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load")
}

func TestAnalyzeCommandJSON(t *testing.T) {
	page := writeTestPage(t)

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze", page, "--format", "json"})
	require.NoError(t, err)
	assert.Contains(t, output, "\"panels\"")
	assert.Contains(t, output, "\"reading_order\"")
}

func TestAnalyzeCommandCSVToFile(t *testing.T) {
	page := writeTestPage(t)
	outFile := filepath.Join(t.TempDir(), "results.csv")

	output, err := executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"analyze", page, "--format", "csv", "--output", outFile})
	require.NoError(t, err)
	assert.Contains(t, output, "Results written to")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "panel,panel_type")
}

func TestAnalyzeCommandOverlayDir(t *testing.T) {
	page := writeTestPage(t)
	overlayDir := filepath.Join(t.TempDir(), "overlays")

	_, err := executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"analyze", page, "--format", "json", "--output", "", "--overlay-dir", overlayDir})
	require.NoError(t, err)

	entries, err := os.ReadDir(overlayDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "page_overlay.png", entries[0].Name())
}

func TestAnalyzeCommandInvalidOutputFormat(t *testing.T) {
	page := writeTestPage(t)

	_, err := executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"analyze", page, "--format", "xml", "--overlay-dir", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, isSupportedImage("a.png"))
	assert.True(t, isSupportedImage("b.JPG"))
	assert.True(t, isSupportedImage("c.jpeg"))
	assert.True(t, isSupportedImage("d.bmp"))
	assert.False(t, isSupportedImage("e.tiff"))
	assert.False(t, isSupportedImage("f.pdf"))
}
