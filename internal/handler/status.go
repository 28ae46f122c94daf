package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/service"
)

// StatusHandler exposes the evaluated adherence views
type StatusHandler struct {
	status *service.StatusService
	logger *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(status *service.StatusService, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{status: status, logger: logger}
}

// CurrentStatus handles GET /api/v1/status
func (h *StatusHandler) CurrentStatus(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	result, err := h.status.CurrentStatus(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Timeline handles GET /api/v1/timeline?days=7
func (h *StatusHandler) Timeline(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 31 {
			respondError(c, http.StatusBadRequest, "invalid_request", "days must be an integer between 1 and 31")
			return
		}
		days = parsed
	}

	entries, err := h.status.Timeline(c.Request.Context(), uid, days)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// SnapshotHistory handles GET /api/v1/cycles/:id/snapshots?limit=90
func (h *StatusHandler) SnapshotHistory(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	snaps, err := h.status.SnapshotHistory(c.Request.Context(), uid, c.Param("id"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

// Calendar handles GET /api/v1/calendar?year=2025&month=6
func (h *StatusHandler) Calendar(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		respondError(c, http.StatusBadRequest, "invalid_request", "year must be a four-digit year")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		respondError(c, http.StatusBadRequest, "invalid_request", "month must be between 1 and 12")
		return
	}

	days, err := h.status.CalendarMonth(c.Request.Context(), uid, year, time.Month(month))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}
