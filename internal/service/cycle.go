package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/adherence"
	"github.com/piriram/pilling-backend/internal/audit"
	"github.com/piriram/pilling-backend/pkg/model"
)

// CycleStore is the persistence surface the services depend on.
// Implemented by repository.CycleRepository; tests substitute fakes.
type CycleStore interface {
	CreateCycle(ctx context.Context, cycle *model.Cycle) error
	FindByID(ctx context.Context, cycleID string) (*model.Cycle, error)
	FindCurrentByUser(ctx context.Context, userID string) (*model.Cycle, error)
	Delete(ctx context.Context, cycleID string) error
	FindDoseByID(ctx context.Context, doseID string) (*model.ScheduledDose, error)
	UpdateDoseIntake(ctx context.Context, dose *model.ScheduledDose) error
	UpdateDoseNote(ctx context.Context, doseID string, note *string) error
}

// Auditor records mutations to the audit trail.
type Auditor interface {
	LogCreate(ctx context.Context, userID string, resource audit.ResourceType, resourceID string) error
	LogUpdate(ctx context.Context, userID string, resource audit.ResourceType, resourceID, detail string) error
	LogDelete(ctx context.Context, userID string, resource audit.ResourceType, resourceID string) error
}

// CycleService manages medication cycles and intake recording
type CycleService struct {
	repo    CycleStore
	auditor Auditor
	clock   adherence.Clock
	logger  *zap.Logger
}

// NewCycleService creates a new CycleService
func NewCycleService(repo CycleStore, auditor Auditor, clock adherence.Clock, logger *zap.Logger) *CycleService {
	return &CycleService{
		repo:    repo,
		auditor: auditor,
		clock:   clock,
		logger:  logger,
	}
}

// CreateCycleInput carries the parameters for starting a new cycle.
type CreateCycleInput struct {
	UserID        string
	StartDate     time.Time
	ActiveDays    int
	RestDays      int
	IntakeMinutes int
}

// CreateCycle validates the cycle shape, generates one scheduled dose
// per day at the daily intake time, and persists everything atomically.
func (s *CycleService) CreateCycle(ctx context.Context, input CreateCycleInput) (*model.Cycle, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("start date is required")
	}
	if input.ActiveDays < 1 {
		return nil, fmt.Errorf("active days must be at least 1")
	}
	if input.RestDays < 0 {
		return nil, fmt.Errorf("rest days cannot be negative")
	}
	if input.IntakeMinutes < 0 || input.IntakeMinutes > 1439 {
		return nil, fmt.Errorf("intake time must be between 0 and 1439 minutes from midnight")
	}

	cycle := &model.Cycle{
		ID:            uuid.New().String(),
		UserID:        input.UserID,
		StartDate:     s.clock.StartOfDay(input.StartDate),
		ActiveDays:    input.ActiveDays,
		RestDays:      input.RestDays,
		IntakeMinutes: input.IntakeMinutes,
	}

	intakeOffset := time.Duration(input.IntakeMinutes) * time.Minute
	for day := 1; day <= cycle.TotalDays(); day++ {
		scheduledAt := s.clock.AddDays(cycle.StartDate, day-1).Add(intakeOffset)
		cycle.Doses = append(cycle.Doses, model.ScheduledDose{
			ID:          uuid.New().String(),
			CycleID:     cycle.ID,
			DayNumber:   day,
			ScheduledAt: scheduledAt,
		})
	}

	if err := s.repo.CreateCycle(ctx, cycle); err != nil {
		return nil, fmt.Errorf("failed to create cycle: %w", err)
	}

	if err := s.auditor.LogCreate(ctx, input.UserID, audit.ResourceCycle, cycle.ID); err != nil {
		s.logger.Warn("failed to audit cycle creation", zap.Error(err), zap.String("cycle_id", cycle.ID))
	}

	s.logger.Info("cycle created",
		zap.String("cycle_id", cycle.ID),
		zap.String("user_id", input.UserID),
		zap.Int("active_days", input.ActiveDays),
		zap.Int("rest_days", input.RestDays),
	)

	return cycle, nil
}

// GetCycle retrieves a cycle by ID
func (s *CycleService) GetCycle(ctx context.Context, cycleID string) (*model.Cycle, error) {
	if cycleID == "" {
		return nil, fmt.Errorf("cycle ID is required")
	}
	return s.repo.FindByID(ctx, cycleID)
}

// GetCurrentCycle retrieves the user's most recently started cycle
func (s *CycleService) GetCurrentCycle(ctx context.Context, userID string) (*model.Cycle, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	return s.repo.FindCurrentByUser(ctx, userID)
}

// DeleteCycle removes a cycle and all its scheduled doses
func (s *CycleService) DeleteCycle(ctx context.Context, userID, cycleID string) error {
	if cycleID == "" {
		return fmt.Errorf("cycle ID is required")
	}

	if err := s.repo.Delete(ctx, cycleID); err != nil {
		return err
	}

	if err := s.auditor.LogDelete(ctx, userID, audit.ResourceCycle, cycleID); err != nil {
		s.logger.Warn("failed to audit cycle deletion", zap.Error(err), zap.String("cycle_id", cycleID))
	}

	s.logger.Info("cycle deleted", zap.String("cycle_id", cycleID), zap.String("user_id", userID))
	return nil
}

// RecordIntake marks a dose as taken. A nil takenAt defaults to the
// current instant. Double intakes set the terminal double-dose flag;
// it is never cleared by a later single recording.
func (s *CycleService) RecordIntake(ctx context.Context, userID, doseID string, takenAt *time.Time, double bool) (*model.ScheduledDose, error) {
	if doseID == "" {
		return nil, fmt.Errorf("dose ID is required")
	}

	dose, err := s.repo.FindDoseByID(ctx, doseID)
	if err != nil {
		return nil, err
	}

	cycle, err := s.repo.FindByID(ctx, dose.CycleID)
	if err != nil {
		return nil, err
	}

	if cycle.IsRestDay(dose.DayNumber) {
		return nil, fmt.Errorf("cannot record an intake on a rest day")
	}

	if takenAt == nil {
		now := s.clock.Now()
		takenAt = &now
	}

	dose.TakenAt = takenAt
	if double {
		dose.TookDouble = true
	}

	if err := s.repo.UpdateDoseIntake(ctx, dose); err != nil {
		return nil, err
	}

	detail := "intake recorded"
	if double {
		detail = "double intake recorded"
	}
	if err := s.auditor.LogUpdate(ctx, userID, audit.ResourceDose, dose.ID, detail); err != nil {
		s.logger.Warn("failed to audit intake", zap.Error(err), zap.String("dose_id", dose.ID))
	}

	s.logger.Info("intake recorded",
		zap.String("dose_id", dose.ID),
		zap.String("cycle_id", dose.CycleID),
		zap.Bool("double", double),
		zap.Timep("taken_at", dose.TakenAt),
	)

	return dose, nil
}

// ClearIntake removes the intake recording from a dose, including the
// double-dose flag. Used when a recording was made by mistake.
func (s *CycleService) ClearIntake(ctx context.Context, userID, doseID string) (*model.ScheduledDose, error) {
	if doseID == "" {
		return nil, fmt.Errorf("dose ID is required")
	}

	dose, err := s.repo.FindDoseByID(ctx, doseID)
	if err != nil {
		return nil, err
	}

	dose.TakenAt = nil
	dose.TookDouble = false

	if err := s.repo.UpdateDoseIntake(ctx, dose); err != nil {
		return nil, err
	}

	if err := s.auditor.LogUpdate(ctx, userID, audit.ResourceDose, dose.ID, "intake cleared"); err != nil {
		s.logger.Warn("failed to audit intake clear", zap.Error(err), zap.String("dose_id", dose.ID))
	}

	s.logger.Info("intake cleared", zap.String("dose_id", dose.ID), zap.String("cycle_id", dose.CycleID))
	return dose, nil
}

// UpdateDoseNote sets or clears the free-text note on a dose
func (s *CycleService) UpdateDoseNote(ctx context.Context, userID, doseID string, note *string) error {
	if doseID == "" {
		return fmt.Errorf("dose ID is required")
	}

	if err := s.repo.UpdateDoseNote(ctx, doseID, note); err != nil {
		return err
	}

	if err := s.auditor.LogUpdate(ctx, userID, audit.ResourceDose, doseID, "note updated"); err != nil {
		s.logger.Warn("failed to audit note update", zap.Error(err), zap.String("dose_id", doseID))
	}

	return nil
}
