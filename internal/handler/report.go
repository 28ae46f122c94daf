package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/service"
)

// ReportHandler exposes adherence report generation
type ReportHandler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// Generate handles POST /api/v1/reports/generate and streams the PDF back
func (h *ReportHandler) Generate(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	report, err := h.reports.GenerateAdherenceReport(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="adherence-%s.pdf"`, report.ID))
	c.Header("X-Report-Id", report.ID)
	c.Data(http.StatusOK, "application/pdf", report.PDF)
}
