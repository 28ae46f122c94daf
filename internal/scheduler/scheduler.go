package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/adherence"
	"github.com/piriram/pilling-backend/pkg/model"
)

// CycleLister lists the cycles whose day range contains a date.
type CycleLister interface {
	ListActiveOn(ctx context.Context, date time.Time) ([]model.Cycle, error)
}

// SnapshotStore persists daily status evaluations.
type SnapshotStore interface {
	Save(ctx context.Context, snap *model.StatusSnapshot) error
}

// SnapshotScheduler runs the daily evaluation job: every active cycle
// gets its rule-engine category and missed streak persisted, so
// downstream consumers can read history without re-deriving it.
type SnapshotScheduler struct {
	cycles   CycleLister
	snaps    SnapshotStore
	engine   *adherence.Engine
	clock    adherence.Clock
	cronSpec string
	logger   *zap.Logger

	runner *cron.Cron
}

// NewSnapshotScheduler creates a new SnapshotScheduler
func NewSnapshotScheduler(cycles CycleLister, snaps SnapshotStore, engine *adherence.Engine, clock adherence.Clock, cronSpec string, logger *zap.Logger) *SnapshotScheduler {
	return &SnapshotScheduler{
		cycles:   cycles,
		snaps:    snaps,
		engine:   engine,
		clock:    clock,
		cronSpec: cronSpec,
		logger:   logger,
	}
}

// Start registers the cron entry and begins scheduling
func (s *SnapshotScheduler) Start() error {
	s.runner = cron.New()

	_, err := s.runner.AddFunc(s.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.runner.Start()
	s.logger.Info("snapshot scheduler started", zap.String("cron_spec", s.cronSpec))
	return nil
}

// Stop halts scheduling and waits for a running job to finish
func (s *SnapshotScheduler) Stop() {
	if s.runner == nil {
		return
	}
	stopCtx := s.runner.Stop()
	<-stopCtx.Done()
	s.logger.Info("snapshot scheduler stopped")
}

// RunOnce evaluates and persists a snapshot for every active cycle.
// Failures on one cycle never block the rest.
func (s *SnapshotScheduler) RunOnce(ctx context.Context) {
	now := s.clock.Now()

	cycles, err := s.cycles.ListActiveOn(ctx, now)
	if err != nil {
		s.logger.Error("snapshot job failed to list active cycles", zap.Error(err))
		return
	}

	saved := 0
	for i := range cycles {
		cycle := &cycles[i]

		adhCtx := adherence.BuildContext(s.clock, cycle, now)
		category := s.engine.Evaluate(adhCtx)

		snap := &model.StatusSnapshot{
			ID:           uuid.New().String(),
			CycleID:      cycle.ID,
			SnapshotDate: s.clock.StartOfDay(now),
			Category:     string(category),
			MissedStreak: adhCtx.MissedStreak,
		}

		if err := s.snaps.Save(ctx, snap); err != nil {
			s.logger.Error("failed to save snapshot",
				zap.Error(err),
				zap.String("cycle_id", cycle.ID),
			)
			continue
		}
		saved++
	}

	s.logger.Info("snapshot job finished",
		zap.Int("cycles", len(cycles)),
		zap.Int("saved", saved),
		zap.Time("snapshot_date", s.clock.StartOfDay(now)),
	)
}
