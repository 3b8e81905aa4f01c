package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pageseg_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pageseg_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	analyzeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pageseg_analyze_requests_total",
			Help: "Total number of page analysis requests",
		},
		[]string{"status"},
	)

	analyzeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pageseg_analyze_duration_seconds",
			Help:    "Page analysis duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	panelsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pageseg_panels_detected",
			Help:    "Number of panels detected per page",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 12, 16, 24},
		},
	)

	linesDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pageseg_lines_detected",
			Help:    "Number of text lines detected per page",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "pageseg_upload_size_bytes",
			Help: "Size of uploaded files in bytes",
			Buckets: []float64{
				1024, 10 * 1024, 100 * 1024,
				1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024,
			},
		},
	)
)
