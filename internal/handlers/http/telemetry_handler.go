package http

import (
	"net/http"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
	"telequal/internal/core/services"
	apperrors "telequal/pkg/errors"

	"github.com/gin-gonic/gin"
)

const defaultStatsWindow = 24 * time.Hour

type TelemetryHandler struct {
	aggregator ports.SessionService
	profiles   ports.ProfileService
	reporting  ports.ReportingService
	thresholds *services.ThresholdStore
}

var _ ports.HTTPHandler = (*TelemetryHandler)(nil)

func NewTelemetryHandler(
	aggregator ports.SessionService,
	profiles ports.ProfileService,
	reporting ports.ReportingService,
	thresholds *services.ThresholdStore,
) *TelemetryHandler {
	return &TelemetryHandler{
		aggregator: aggregator,
		profiles:   profiles,
		reporting:  reporting,
		thresholds: thresholds,
	}
}

func (h *TelemetryHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/samples", h.IngestSample)

		api.GET("/sessions/:id/report", h.GetSessionReport)
		api.POST("/sessions/:id/report", h.GenerateSessionReport)
		api.GET("/sessions/:id/profile", h.GetSessionProfile)

		api.GET("/statistics", h.GetAggregateStatistics)

		api.GET("/thresholds", h.GetThresholds)
		api.PUT("/thresholds", h.SetThresholds)
	}
}

// IngestSample accepts one raw metric sample. The response carries the
// derived score and issues so clients can display local feedback.
func (h *TelemetryHandler) IngestSample(c *gin.Context) {
	var sample domain.MetricSample
	if err := c.BindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.aggregator.Ingest(c.Request.Context(), &sample); err != nil {
		c.Error(apperrors.FromDomain(err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":            sample.ID,
		"quality_score": sample.QualityScore,
		"issues":        sample.Issues,
	})
}

func (h *TelemetryHandler) GetSessionReport(c *gin.Context) {
	sessionID := domain.SessionID(c.Param("id"))

	report, err := h.reporting.GetSessionReport(c.Request.Context(), sessionID)
	if err != nil {
		c.Error(apperrors.FromDomain(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *TelemetryHandler) GenerateSessionReport(c *gin.Context) {
	sessionID := domain.SessionID(c.Param("id"))

	report, err := h.reporting.GenerateSessionReport(c.Request.Context(), sessionID)
	if err != nil {
		c.Error(apperrors.FromDomain(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// GetAggregateStatistics serves the dashboard query. The window
// defaults to the last 24 hours when no bounds are given.
func (h *TelemetryHandler) GetAggregateStatistics(c *gin.Context) {
	end := time.Now()
	start := end.Add(-defaultStatsWindow)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC3339"})
			return
		}
		end = parsed
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not precede start"})
		return
	}

	participantID := domain.ParticipantID(c.Query("participant_id"))

	stats, err := h.reporting.GetAggregateStatistics(c.Request.Context(), start, end, participantID)
	if err != nil {
		c.Error(apperrors.FromDomain(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}

func (h *TelemetryHandler) GetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"thresholds": h.thresholds.Get()})
}

// SetThresholds replaces the scoring thresholds at runtime. Samples
// already scored keep their scores; only new samples see the change.
func (h *TelemetryHandler) SetThresholds(c *gin.Context) {
	var thresholds domain.QualityThresholds
	if err := c.BindJSON(&thresholds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := thresholds.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.thresholds.Set(thresholds)
	c.JSON(http.StatusOK, gin.H{"thresholds": h.thresholds.Get()})
}

func (h *TelemetryHandler) GetSessionProfile(c *gin.Context) {
	sessionID := domain.SessionID(c.Param("id"))

	profile := h.profiles.CurrentProfile(sessionID)
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
