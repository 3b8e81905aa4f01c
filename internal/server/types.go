// Package server exposes the page analyzer over HTTP: an analyze
// endpoint accepting image uploads, health and info endpoints, and
// prometheus metrics.
package server

import (
	"context"
	"image"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manga-tools/pageseg/internal/pipeline"
)

// analyzer is the slice of the pipeline the server depends on.
type analyzer interface {
	AnalyzeContext(ctx context.Context, img image.Image) (*pipeline.Result, error)
	Info() map[string]interface{}
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline       analyzer
	logger         *slog.Logger
	corsOrigin     string
	maxUploadMB    int64
	timeoutSec     int
	overlayEnabled bool
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	OverlayEnabled bool
	Pipeline       pipeline.Config
	Logger         *slog.Logger
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// AnalyzeResponse wraps an analysis result for JSON transport.
type AnalyzeResponse struct {
	Success bool             `json:"success"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewServer builds the analysis pipeline and the server around it.
func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pl, err := pipeline.NewBuilderFrom(config.Pipeline).WithLogger(logger).Build()
	if err != nil {
		return nil, err
	}

	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 32
	}
	return &Server{
		pipeline:       pl,
		logger:         logger,
		corsOrigin:     config.CORSOrigin,
		maxUploadMB:    maxUpload,
		timeoutSec:     config.TimeoutSec,
		overlayEnabled: config.OverlayEnabled,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.withMiddleware(s.healthHandler))
	mux.HandleFunc("/info", s.withMiddleware(s.infoHandler))
	mux.HandleFunc("/analyze", s.withMiddleware(s.analyzeHandler))
	mux.Handle("/metrics", promhttp.Handler())
}
