package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manga-tools/pageseg/internal/pipeline"
	"github.com/manga-tools/pageseg/internal/testutil"
)

func newTestServer(t *testing.T, overlay bool) *Server {
	t.Helper()
	s, err := NewServer(Config{
		CORSOrigin:     "*",
		MaxUploadMB:    8,
		TimeoutSec:     30,
		OverlayEnabled: overlay,
		Pipeline:       pipeline.DefaultConfig(),
	})
	require.NoError(t, err)
	return s
}

func newTestMux(t *testing.T, overlay bool) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	newTestServer(t, overlay).SetupRoutes(mux)
	return mux
}

func pageUpload(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "page.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(fw, testutil.TwoPanelPage()))
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestMux(t, false)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestHealthRejectsPost(t *testing.T) {
	mux := newTestMux(t, false)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInfoEndpoint(t *testing.T) {
	mux := newTestMux(t, false)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Contains(t, info, "panel")
	assert.Contains(t, info, "downsample")
}

func TestAnalyzeEndpoint(t *testing.T) {
	mux := newTestMux(t, false)
	body, contentType := pageUpload(t, "image")

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Len(t, resp.Result.Panels, 2)
	assert.Equal(t, 300, resp.Result.Width)
}

func TestAnalyzeCSVFormat(t *testing.T) {
	mux := newTestMux(t, false)
	body, contentType := pageUpload(t, "image")

	req := httptest.NewRequest(http.MethodPost, "/analyze?format=csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "panel,panel_type"))
}

func TestAnalyzeOverlay(t *testing.T) {
	mux := newTestMux(t, true)
	body, contentType := pageUpload(t, "image")

	req := httptest.NewRequest(http.MethodPost, "/analyze?overlay=1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestAnalyzeOverlayDisabled(t *testing.T) {
	mux := newTestMux(t, false)
	body, contentType := pageUpload(t, "image")

	req := httptest.NewRequest(http.MethodPost, "/analyze?overlay=1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalyzeRejectsGet(t *testing.T) {
	mux := newTestMux(t, false)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyzeMissingFile(t *testing.T) {
	mux := newTestMux(t, false)
	body, contentType := pageUpload(t, "wrong_field")

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "No image file")
}

func TestAnalyzeInvalidImage(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "page.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	mux := newTestMux(t, false)
	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	mux := newTestMux(t, false)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCORSPreflights(t *testing.T) {
	mux := newTestMux(t, false)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
