package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/adherence"
	"github.com/piriram/pilling-backend/internal/repository"
	"github.com/piriram/pilling-backend/pkg/model"
)

// SnapshotLister reads back the daily evaluations persisted by the
// snapshot scheduler.
type SnapshotLister interface {
	ListByCycle(ctx context.Context, cycleID string, limit int) ([]model.StatusSnapshot, error)
}

// StatusService evaluates the current adherence state of a user's
// cycle and renders day-by-day views for timeline and calendar clients.
type StatusService struct {
	repo      CycleStore
	snapshots SnapshotLister
	engine    *adherence.Engine
	clock     adherence.Clock
	logger    *zap.Logger
}

// NewStatusService creates a new StatusService
func NewStatusService(repo CycleStore, snapshots SnapshotLister, engine *adherence.Engine, clock adherence.Clock, logger *zap.Logger) *StatusService {
	return &StatusService{
		repo:      repo,
		snapshots: snapshots,
		engine:    engine,
		clock:     clock,
		logger:    logger,
	}
}

// StatusResult is the full evaluation outcome for the home screen.
type StatusResult struct {
	Category       adherence.MessageCategory `json:"category"`
	Message        adherence.DisplayMessage  `json:"message"`
	CycleID        string                    `json:"cycle_id,omitempty"`
	CycleDay       int                       `json:"cycle_day,omitempty"`
	TodayStatus    adherence.DoseStatus      `json:"today_status,omitempty"`
	MissedStreak   int                       `json:"missed_streak"`
	RequiresAction bool                      `json:"requires_action"`
	CanTakeDouble  bool                      `json:"can_take_double"`
	EvaluatedAt    time.Time                 `json:"evaluated_at"`
}

// TimelineEntry is one day in the recent-history strip.
type TimelineEntry struct {
	Date      time.Time                 `json:"date"`
	DayNumber int                       `json:"day_number,omitempty"`
	Status    adherence.DoseStatus      `json:"status,omitempty"`
	Category  adherence.MessageCategory `json:"category"`
	Icon      string                    `json:"icon"`
	IsToday   bool                      `json:"is_today"`
}

// CalendarDay is one dose day in the monthly calendar view.
type CalendarDay struct {
	Date      time.Time                 `json:"date"`
	DayNumber int                       `json:"day_number"`
	Status    adherence.DoseStatus      `json:"status"`
	Category  adherence.MessageCategory `json:"category"`
	IsRestDay bool                      `json:"is_rest_day"`
}

// CurrentStatus evaluates the user's current cycle through the rule
// engine. Without any cycle the result degrades to the empty category;
// a cycle whose days have all passed degrades to completed.
func (s *StatusService) CurrentStatus(ctx context.Context, userID string) (*StatusResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	now := s.clock.Now()

	cycle, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCycleNotFound) {
			return &StatusResult{
				Category:    adherence.CategoryEmpty,
				Message:     adherence.Display(adherence.CategoryEmpty),
				EvaluatedAt: now,
			}, nil
		}
		return nil, err
	}

	adhCtx := adherence.BuildContext(s.clock, cycle, now)

	// Past the last cycle day with nothing left to act on, the cycle
	// reads as finished rather than falling through to the default rule.
	if adhCtx.Today == nil && adhCtx.CatchUp == nil && s.cycleFinished(cycle, now) {
		return &StatusResult{
			Category:     adherence.CategoryCompleted,
			Message:      adherence.Display(adherence.CategoryCompleted),
			CycleID:      cycle.ID,
			CycleDay:     cycle.TotalDays(),
			MissedStreak: adhCtx.MissedStreak,
			EvaluatedAt:  now,
		}, nil
	}

	category := s.engine.Evaluate(adhCtx)

	result := &StatusResult{
		Category:     category,
		Message:      adherence.Display(category),
		CycleID:      cycle.ID,
		CycleDay:     s.cycleDay(cycle, now),
		TodayStatus:  adhCtx.TodayStatus(),
		MissedStreak: adhCtx.MissedStreak,
		EvaluatedAt:  now,
	}
	if adhCtx.Today != nil {
		result.RequiresAction = adhCtx.Today.RequiresAction()
		result.CanTakeDouble = adhCtx.Today.CanTakeDouble()
	}

	s.logger.Debug("status evaluated",
		zap.String("user_id", userID),
		zap.String("cycle_id", cycle.ID),
		zap.String("category", string(category)),
		zap.Int("missed_streak", adhCtx.MissedStreak),
	)

	return result, nil
}

// Timeline returns the last `days` days ending today, one entry per
// day. Today's entry carries the rule-engine category so it always
// agrees with the home screen; past days use the per-status mapping.
func (s *StatusService) Timeline(ctx context.Context, userID string, days int) ([]TimelineEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if days < 1 {
		days = 7
	}

	now := s.clock.Now()

	cycle, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCycleNotFound) {
			cycle = nil
		} else {
			return nil, err
		}
	}

	var todayCategory adherence.MessageCategory
	if cycle != nil {
		todayCategory = s.engine.Evaluate(adherence.BuildContext(s.clock, cycle, now))
	} else {
		todayCategory = adherence.CategoryEmpty
	}

	entries := make([]TimelineEntry, 0, days)
	for offset := days - 1; offset >= 0; offset-- {
		date := s.clock.StartOfDay(s.clock.AddDays(now, -offset))
		entry := TimelineEntry{
			Date:     date,
			Category: adherence.CategoryEmpty,
			IsToday:  offset == 0,
		}

		if dose := doseOnDay(s.clock, cycle, date); dose != nil {
			cd := adherence.ClassifyDose(s.clock, cycle, dose, now)
			entry.DayNumber = dose.DayNumber
			entry.Status = cd.Status
			entry.Category = adherence.CategoryForStatus(cd.Status)
		}
		if entry.IsToday && cycle != nil {
			entry.Category = todayCategory
		}
		entry.Icon = adherence.Display(entry.Category).Icon

		entries = append(entries, entry)
	}

	return entries, nil
}

// CalendarMonth returns every dose day of the current cycle that falls
// in the given month, classified against the present instant.
func (s *StatusService) CalendarMonth(ctx context.Context, userID string, year int, month time.Month) ([]CalendarDay, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	cycle, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCycleNotFound) {
			return []CalendarDay{}, nil
		}
		return nil, err
	}

	now := s.clock.Now()

	var cal []CalendarDay
	for i := range cycle.Doses {
		dose := &cycle.Doses[i]
		day := s.clock.StartOfDay(dose.ScheduledAt)
		if day.Year() != year || day.Month() != month {
			continue
		}
		cd := adherence.ClassifyDose(s.clock, cycle, dose, now)
		cal = append(cal, CalendarDay{
			Date:      day,
			DayNumber: dose.DayNumber,
			Status:    cd.Status,
			Category:  adherence.CategoryForStatus(cd.Status),
			IsRestDay: cycle.IsRestDay(dose.DayNumber),
		})
	}
	if cal == nil {
		cal = []CalendarDay{}
	}

	return cal, nil
}

// SnapshotHistory returns the persisted daily evaluations for one of
// the user's cycles, newest first.
func (s *StatusService) SnapshotHistory(ctx context.Context, userID, cycleID string, limit int) ([]model.StatusSnapshot, error) {
	if cycleID == "" {
		return nil, fmt.Errorf("cycle ID is required")
	}
	if limit < 1 || limit > 365 {
		limit = 90
	}

	cycle, err := s.repo.FindByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.UserID != userID {
		return nil, repository.ErrCycleNotFound
	}

	snaps, err := s.snapshots.ListByCycle(ctx, cycleID, limit)
	if err != nil {
		return nil, err
	}
	if snaps == nil {
		snaps = []model.StatusSnapshot{}
	}
	return snaps, nil
}

// cycleFinished reports whether the evaluation day is past the last
// scheduled day of the cycle.
func (s *StatusService) cycleFinished(cycle *model.Cycle, now time.Time) bool {
	if len(cycle.Doses) == 0 {
		return false
	}
	last := cycle.Doses[len(cycle.Doses)-1]
	return s.clock.StartOfDay(last.ScheduledAt).Before(s.clock.StartOfDay(now))
}

// cycleDay returns the 1-based day number the evaluation instant falls
// on, clamped to the cycle's length.
func (s *StatusService) cycleDay(cycle *model.Cycle, now time.Time) int {
	start := s.clock.StartOfDay(cycle.StartDate)
	day := int(s.clock.StartOfDay(now).Sub(start).Hours()/24+0.5) + 1
	if day < 1 {
		day = 1
	}
	if day > cycle.TotalDays() {
		day = cycle.TotalDays()
	}
	return day
}

// doseOnDay finds the cycle's dose scheduled on the given day, if any.
func doseOnDay(clock adherence.Clock, cycle *model.Cycle, day time.Time) *model.ScheduledDose {
	if cycle == nil {
		return nil
	}
	for i := range cycle.Doses {
		if clock.IsSameDay(cycle.Doses[i].ScheduledAt, day) {
			return &cycle.Doses[i]
		}
	}
	return nil
}
