package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/adherence"
	"github.com/piriram/pilling-backend/internal/audit"
	"github.com/piriram/pilling-backend/internal/pdf"
)

// ReportService builds adherence reports for the user's current cycle
type ReportService struct {
	repo      CycleStore
	generator *pdf.Generator
	auditor   Auditor
	clock     adherence.Clock
	logger    *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(repo CycleStore, generator *pdf.Generator, auditor Auditor, clock adherence.Clock, logger *zap.Logger) *ReportService {
	return &ReportService{
		repo:      repo,
		generator: generator,
		auditor:   auditor,
		clock:     clock,
		logger:    logger,
	}
}

// Report is a generated adherence report with its summary figures.
type Report struct {
	ID            string  `json:"id"`
	CycleID       string  `json:"cycle_id"`
	AdherenceRate float64 `json:"adherence_rate"`
	TakenCount    int     `json:"taken_count"`
	MissedCount   int     `json:"missed_count"`
	PDF           []byte  `json:"-"`
}

// GenerateAdherenceReport classifies every dose of the user's current
// cycle up to now and renders a PDF summary.
func (s *ReportService) GenerateAdherenceReport(ctx context.Context, userID string) (*Report, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	cycle, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	adhCtx := adherence.BuildContext(s.clock, cycle, now)

	data := &pdf.ReportData{
		UserID:       userID,
		CycleID:      cycle.ID,
		StartDate:    cycle.StartDate,
		ActiveDays:   cycle.ActiveDays,
		RestDays:     cycle.RestDays,
		GeneratedAt:  now,
		MissedStreak: adhCtx.MissedStreak,
	}

	for i := range cycle.Doses {
		dose := &cycle.Doses[i]
		cd := adherence.ClassifyDose(s.clock, cycle, dose, now)

		row := pdf.ReportRow{
			DayNumber: dose.DayNumber,
			Date:      s.clock.StartOfDay(dose.ScheduledAt),
			Status:    string(cd.Status),
		}
		if dose.TakenAt != nil {
			row.TakenAt = dose.TakenAt.Format("15:04")
		}
		if dose.Note != nil {
			row.Note = *dose.Note
		}
		data.Rows = append(data.Rows, row)

		if cycle.IsRestDay(dose.DayNumber) {
			continue
		}
		// Only days already due count toward the adherence figures.
		if s.clock.StartOfDay(dose.ScheduledAt).After(s.clock.StartOfDay(now)) {
			continue
		}

		data.ScheduledSoFar++
		switch {
		case cd.Status == adherence.StatusTakenDouble:
			data.TakenCount++
			data.DoubleDays++
		case cd.Taken():
			data.TakenCount++
		case cd.Status == adherence.StatusRecentlyMissed || cd.Status == adherence.StatusMissed:
			data.MissedCount++
		}
	}

	if data.ScheduledSoFar > 0 {
		data.AdherenceRate = float64(data.TakenCount) / float64(data.ScheduledSoFar) * 100
	}

	raw, err := s.generator.Generate(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate adherence report: %w", err)
	}

	report := &Report{
		ID:            uuid.New().String(),
		CycleID:       cycle.ID,
		AdherenceRate: data.AdherenceRate,
		TakenCount:    data.TakenCount,
		MissedCount:   data.MissedCount,
		PDF:           raw,
	}

	if err := s.auditor.LogCreate(ctx, userID, audit.ResourceReport, report.ID); err != nil {
		s.logger.Warn("failed to audit report generation", zap.Error(err), zap.String("report_id", report.ID))
	}

	return report, nil
}
