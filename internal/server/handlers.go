package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/manga-tools/pageseg/internal/pipeline"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("encoding health response", "error", err)
	}
}

// infoHandler returns the active pipeline configuration.
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.pipeline.Info()); err != nil {
		s.logger.Error("encoding info response", "error", err)
	}
}

// analyzeHandler accepts a multipart page upload and returns its
// geometry. The format query or form value selects json (default),
// yaml or csv; overlay=1 returns the rendered overlay PNG instead
// when enabled.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeError(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxBytes {
		s.writeError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	uploadSizeBytes.Observe(float64(header.Size))

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		s.writeError(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	start := time.Now()
	res, err := s.pipeline.AnalyzeContext(ctx, img)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("error").Inc()
		s.writeError(w, fmt.Sprintf("Analysis failed: %v", err), http.StatusInternalServerError)
		return
	}
	analyzeRequestsTotal.WithLabelValues("success").Inc()
	analyzeDuration.Observe(time.Since(start).Seconds())
	observeResult(res)

	if formValue(r, "overlay") == "1" {
		if !s.overlayEnabled {
			s.writeError(w, "Overlay rendering is disabled", http.StatusForbidden)
			return
		}
		s.writeOverlay(w, img, res)
		return
	}

	switch formValue(r, "format") {
	case "csv":
		out, err := pipeline.ToCSV(res)
		if err != nil {
			s.writeError(w, fmt.Sprintf("Formatting failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(out))
	case "yaml":
		out, err := pipeline.ToYAML(res)
		if err != nil {
			s.writeError(w, fmt.Sprintf("Formatting failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(out))
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(AnalyzeResponse{Success: true, Result: res}); err != nil {
			s.logger.Error("encoding analyze response", "error", err)
		}
	}
}

func observeResult(res *pipeline.Result) {
	panelsDetected.Observe(float64(len(res.Panels)))
	lines := 0
	for _, pn := range res.Panels {
		for _, rg := range pn.Regions {
			lines += len(rg.Lines)
		}
	}
	linesDetected.Observe(float64(lines))
}

func (s *Server) writeOverlay(w http.ResponseWriter, img image.Image, res *pipeline.Result) {
	overlay := pipeline.RenderOverlay(img, res)
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, overlay); err != nil {
		s.logger.Error("encoding overlay", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(AnalyzeResponse{Success: false, Error: message}); err != nil {
		s.logger.Error("encoding error response", "error", err)
	}
}

func formValue(r *http.Request, key string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return r.URL.Query().Get(key)
}
