package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/service"
)

// CycleHandler exposes cycle and dose endpoints
type CycleHandler struct {
	cycles *service.CycleService
	logger *zap.Logger
}

// NewCycleHandler creates a new CycleHandler
func NewCycleHandler(cycles *service.CycleService, logger *zap.Logger) *CycleHandler {
	return &CycleHandler{cycles: cycles, logger: logger}
}

type createCycleRequest struct {
	StartDate     string `json:"start_date" binding:"required"` // YYYY-MM-DD
	ActiveDays    int    `json:"active_days" binding:"required"`
	RestDays      int    `json:"rest_days"`
	IntakeMinutes int    `json:"intake_minutes"`
}

// CreateCycle handles POST /api/v1/cycles
func (h *CycleHandler) CreateCycle(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req createCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "start_date must be formatted YYYY-MM-DD")
		return
	}

	cycle, err := h.cycles.CreateCycle(c.Request.Context(), service.CreateCycleInput{
		UserID:        uid,
		StartDate:     startDate,
		ActiveDays:    req.ActiveDays,
		RestDays:      req.RestDays,
		IntakeMinutes: req.IntakeMinutes,
	})
	if err != nil {
		if isValidationError(err) {
			respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cycle)
}

// GetCurrentCycle handles GET /api/v1/cycles/current
func (h *CycleHandler) GetCurrentCycle(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	cycle, err := h.cycles.GetCurrentCycle(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, cycle)
}

// GetCycle handles GET /api/v1/cycles/:id
func (h *CycleHandler) GetCycle(c *gin.Context) {
	if _, ok := userID(c); !ok {
		return
	}

	cycle, err := h.cycles.GetCycle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, cycle)
}

// DeleteCycle handles DELETE /api/v1/cycles/:id
func (h *CycleHandler) DeleteCycle(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := h.cycles.DeleteCycle(c.Request.Context(), uid, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type recordIntakeRequest struct {
	TakenAt *time.Time `json:"taken_at"`
	Double  bool       `json:"double"`
}

// RecordIntake handles POST /api/v1/doses/:id/intake
func (h *CycleHandler) RecordIntake(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req recordIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	dose, err := h.cycles.RecordIntake(c.Request.Context(), uid, c.Param("id"), req.TakenAt, req.Double)
	if err != nil {
		if isValidationError(err) {
			respondError(c, http.StatusUnprocessableEntity, "intake_rejected", err.Error())
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dose)
}

// ClearIntake handles DELETE /api/v1/doses/:id/intake
func (h *CycleHandler) ClearIntake(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	dose, err := h.cycles.ClearIntake(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dose)
}

type updateNoteRequest struct {
	Note *string `json:"note"`
}

// UpdateNote handles PUT /api/v1/doses/:id/note
func (h *CycleHandler) UpdateNote(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.cycles.UpdateDoseNote(c.Request.Context(), uid, c.Param("id"), req.Note); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// isValidationError distinguishes input rejections from infrastructure
// failures. Service validation errors are plain messages without a
// wrapped cause.
func isValidationError(err error) bool {
	msg := err.Error()
	return !strings.Contains(msg, "failed to") &&
		(strings.Contains(msg, "required") ||
			strings.Contains(msg, "must") ||
			strings.Contains(msg, "cannot"))
}
