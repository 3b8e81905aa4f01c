package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manga-tools/pageseg/internal/pipeline"

	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
)

const (
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
	outputFormatCSV  = "csv"
)

// analyzeCmd represents the analyze command.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze comic page images for panels and text regions",
	Long: `Analyze one or more page images. Each page is segmented into
panels, text lines are extracted per panel and grouped into regions,
and panels, regions and lines get reading-order numbers.

Supported formats: PNG, JPEG, BMP

Examples:
  pageseg analyze page.png
  pageseg analyze *.png --format yaml
  pageseg analyze chapter/*.jpg --output results.json --overlay-dir overlays/`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		format := cfg.Output.Format
		switch format {
		case outputFormatJSON, outputFormatYAML, outputFormatCSV:
		default:
			return fmt.Errorf("invalid output format: %s (must be one of: json, yaml, csv)", format)
		}

		pl, err := pipeline.NewBuilderFrom(cfg.ToPipelineConfig()).Build()
		if err != nil {
			return fmt.Errorf("failed to build pipeline: %w", err)
		}

		images := make([]image.Image, 0, len(args))
		for _, pth := range args {
			if !isSupportedImage(pth) {
				return fmt.Errorf("unsupported image format: %s", pth)
			}
			img, err := loadImage(pth)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", pth, err)
			}
			images = append(images, img)
		}

		pCfg := pipeline.DefaultParallelConfig()
		if cfg.Pipeline.Parallel.MaxWorkers > 0 {
			pCfg.MaxWorkers = cfg.Pipeline.Parallel.MaxWorkers
		}

		start := time.Now()
		results, err := pl.AnalyzePagesContext(context.Background(), images, pCfg)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		elapsed := time.Since(start)

		if dir := cfg.Output.OverlayDir; dir != "" {
			if err := writeOverlays(cmd, dir, args, images, results, cfg.Output.ThumbnailWidth); err != nil {
				return err
			}
		}

		final, err := formatResults(format, args, results)
		if err != nil {
			return err
		}

		stats := pipeline.CalculateParallelStats(results, elapsed, pCfg.MaxWorkers)
		if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "Processed %d page(s) in %s (%.1f pages/s)\n",
			stats.TotalPages, elapsed.Round(time.Millisecond), stats.ThroughputPerSec); err != nil {
			return err
		}

		if outputFile := cfg.Output.File; outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(final), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile); err != nil {
				return err
			}
			return nil
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), final); err != nil {
			return fmt.Errorf("failed to write final output: %w", err)
		}
		return nil
	},
}

func formatResults(format string, paths []string, results []*pipeline.Result) (string, error) {
	switch format {
	case outputFormatCSV:
		var sb strings.Builder
		for i, res := range results {
			s, err := pipeline.ToCSV(res)
			if err != nil {
				return "", fmt.Errorf("format csv failed for %s: %w", paths[i], err)
			}
			if len(results) > 1 {
				sb.WriteString("# " + paths[i] + "\n")
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	case outputFormatYAML:
		var sb strings.Builder
		for i, res := range results {
			s, err := pipeline.ToYAML(res)
			if err != nil {
				return "", fmt.Errorf("format yaml failed for %s: %w", paths[i], err)
			}
			if len(results) > 1 {
				sb.WriteString("---\n# " + paths[i] + "\n")
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	default:
		if len(results) == 1 {
			return pipeline.ToJSON(results[0])
		}
		return pipeline.ToJSONPages(results)
	}
}

func writeOverlays(cmd *cobra.Command, dir string, paths []string,
	images []image.Image, results []*pipeline.Result, thumbWidth int,
) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create overlay directory: %w", err)
	}
	for i, res := range results {
		var ov image.Image
		if thumbWidth > 0 {
			ov = pipeline.RenderThumbnail(images[i], res, thumbWidth)
		} else {
			ov = pipeline.RenderOverlay(images[i], res)
		}
		base := filepath.Base(paths[i])
		base = strings.TrimSuffix(base, filepath.Ext(base))
		outPath := filepath.Join(dir, base+"_overlay.png")
		f, err := os.Create(outPath) //nolint:gosec // G304: overlay output path derives from user input
		if err != nil {
			return fmt.Errorf("failed to create overlay %s: %w", outPath, err)
		}
		if err := png.Encode(f, ov); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to encode overlay %s: %w", outPath, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved overlay: %s\n", outPath); err != nil {
			return err
		}
	}
	return nil
}

func isSupportedImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp":
		return true
	}
	return false
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: loading user-supplied image path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "json", "output format (json, yaml, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().String("overlay-dir", "", "directory to write overlay images (drawn boxes)")
	cmd.Flags().Int("thumbnail-width", 0, "scale overlays down to this width (0=full size)")
	cmd.Flags().Int("downsample", 1, "downsample factor applied before analysis")
	cmd.Flags().StringP("direction", "d", "rtl", "reading direction (rtl, ltr)")
	cmd.Flags().String("orientation", "auto", "text orientation (auto, horizontal, vertical)")
	cmd.Flags().Int("workers", 0, "parallel page workers (0=number of CPUs)")
	cmd.Flags().Int("min-panel-size", 0, "minimum panel side length in pixels (0=default)")
	cmd.Flags().Int("max-split-depth", 0, "maximum recursive panel split depth (0=default)")
	cmd.Flags().String("suppress-method", "greedy", "candidate suppression method (greedy, soft, class_aware, multi_class, diou)")
	cmd.Flags().Float64("iou-threshold", 0, "suppression IoU threshold (0=default)")
	cmd.Flags().Float64("region-eps", 0, "region clustering eps as multiple of line extent (0=default)")
}

// bindAnalyzeFlags binds all flags to viper configuration keys.
func bindAnalyzeFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"output.overlay_dir", "overlay-dir"},
		{"output.thumbnail_width", "thumbnail-width"},
		{"pipeline.downsample", "downsample"},
		{"pipeline.direction", "direction"},
		{"pipeline.orientation", "orientation"},
		{"pipeline.parallel.max_workers", "workers"},
		{"pipeline.panel.min_panel_size", "min-panel-size"},
		{"pipeline.panel.max_split_depth", "max-split-depth"},
		{"pipeline.suppression.method", "suppress-method"},
		{"pipeline.suppression.iou_threshold", "iou-threshold"},
		{"pipeline.region.eps_scale", "region-eps"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addAnalyzeFlags(analyzeCmd)
	bindAnalyzeFlags(analyzeCmd)
}

// GetAnalyzeCommand returns the analyze command for testing purposes.
func GetAnalyzeCommand() *cobra.Command {
	return analyzeCmd
}
