package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/services"
	"telequal/internal/infrastructure/middleware"
	"telequal/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t).Sugar()

	thresholds := services.NewThresholdStore(domain.DefaultQualityThresholds())
	aggregator := services.NewSessionAggregator(
		services.NewScoringService(),
		thresholds,
		memory.NewMemorySampleRepository(),
		time.Second,
		log,
	)
	selector := services.NewProfileSelector(services.DefaultProfileSelectorConfig(), log)
	aggregator.AttachConsumers(nil, selector)
	reporting := services.NewReportingFacade(
		memory.NewMemoryReportRepository(),
		aggregator,
		time.Second,
		time.Minute,
		log,
	)
	t.Cleanup(reporting.Close)

	handler := NewTelemetryHandler(aggregator, selector, reporting, thresholds)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(log))
	handler.SetupRoutes(router)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func sampleBody(sessionID string) map[string]interface{} {
	return map[string]interface{}{
		"session_id":       sessionID,
		"participant_id":   "patient-1",
		"role":             "patient",
		"connection_state": "connected",
		"video": map[string]interface{}{
			"packets_received":  1000,
			"packets_lost":      0,
			"jitter_ms":         20,
			"frames_per_second": 30,
		},
	}
}

func TestIngestSampleReturnsScore(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/samples", sampleBody("consult-1"))

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		ID           string   `json:"id"`
		QualityScore int      `json:"quality_score"`
		Issues       []string `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 100, resp.QualityScore)
}

func TestIngestSampleRejectsInvalid(t *testing.T) {
	router := newTestRouter(t)

	body := sampleBody("consult-1")
	body["connection_state"] = "warp-speed"
	w := postJSON(t, router, "/api/v1/samples", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SAMPLE")
}

func TestReportLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// No report yet.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/sessions/consult-2/report", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Generating without samples is NO_DATA.
	w = postJSON(t, router, "/api/v1/sessions/consult-2/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_DATA")

	// Ingest, generate, fetch.
	require.Equal(t, http.StatusAccepted, postJSON(t, router, "/api/v1/samples", sampleBody("consult-2")).Code)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/v1/sessions/consult-2/report", nil).Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/sessions/consult-2/report", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "consult-2")
}

func TestGetAggregateStatisticsValidation(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/statistics?start=yesterday", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet,
		"/api/v1/statistics?start=2026-08-30T00:00:00Z&end=2026-08-29T00:00:00Z", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestThresholdUpdate(t *testing.T) {
	router := newTestRouter(t)

	// Invalid threshold set is rejected.
	w := httptest.NewRecorder()
	body, _ := json.Marshal(map[string]interface{}{
		"video_max_packet_loss_percent": 150,
		"max_round_trip_time_ms":        300,
	})
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/thresholds", bytes.NewReader(body))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A valid update is visible on the next read.
	update := domain.DefaultQualityThresholds()
	update.VideoMaxPacketLossPercent = 10
	body, _ = json.Marshal(update)
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPut, "/api/v1/thresholds", bytes.NewReader(body))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/thresholds", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Thresholds domain.QualityThresholds `json:"thresholds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 10.0, resp.Thresholds.VideoMaxPacketLossPercent, 0.001)
}

func TestGetSessionProfile(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/sessions/consult-3/profile", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "medium")
}
