package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/adherence"
	"github.com/piriram/pilling-backend/pkg/model"
)

type fakeLister struct {
	cycles []model.Cycle
	err    error
}

func (f *fakeLister) ListActiveOn(_ context.Context, _ time.Time) ([]model.Cycle, error) {
	return f.cycles, f.err
}

type fakeSnapshotStore struct {
	saved   []model.StatusSnapshot
	failFor string
}

func (f *fakeSnapshotStore) Save(_ context.Context, snap *model.StatusSnapshot) error {
	if snap.CycleID == f.failFor {
		return assert.AnError
	}
	f.saved = append(f.saved, *snap)
	return nil
}

func testCycle(userID string, start time.Time, activeDays, restDays int, takenDays ...int) model.Cycle {
	cycle := model.Cycle{
		ID:            uuid.New().String(),
		UserID:        userID,
		StartDate:     start,
		ActiveDays:    activeDays,
		RestDays:      restDays,
		IntakeMinutes: 540,
	}
	taken := make(map[int]bool, len(takenDays))
	for _, d := range takenDays {
		taken[d] = true
	}
	for day := 1; day <= cycle.TotalDays(); day++ {
		dose := model.ScheduledDose{
			ID:          uuid.New().String(),
			CycleID:     cycle.ID,
			DayNumber:   day,
			ScheduledAt: start.AddDate(0, 0, day-1).Add(9 * time.Hour),
		}
		if taken[day] {
			at := dose.ScheduledAt.Add(5 * time.Minute)
			dose.TakenAt = &at
		}
		cycle.Doses = append(cycle.Doses, dose)
	}
	return cycle
}

func TestSnapshotScheduler_RunOnce(t *testing.T) {
	now := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)
	clock := adherence.FixedClock{Current: now}

	onTrack := testCycle("user-1", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), 5, 2, 1, 2, 3)
	behind := testCycle("user-2", time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), 10, 2, 1, 2)

	lister := &fakeLister{cycles: []model.Cycle{onTrack, behind}}
	snaps := &fakeSnapshotStore{}

	s := NewSnapshotScheduler(lister, snaps, adherence.NewEngine(nil), clock, "0 21 * * *", zap.NewNop())
	s.RunOnce(context.Background())

	require.Len(t, snaps.saved, 2)

	byCycle := map[string]model.StatusSnapshot{}
	for _, snap := range snaps.saved {
		byCycle[snap.CycleID] = snap
	}

	first := byCycle[onTrack.ID]
	assert.Equal(t, string(adherence.CategoryTodayAfter), first.Category)
	assert.Equal(t, 0, first.MissedStreak)
	assert.True(t, first.SnapshotDate.Equal(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, first.ID)

	// Days 3-5 untaken and long past schedule.
	second := byCycle[behind.ID]
	assert.Equal(t, 3, second.MissedStreak)
	assert.Equal(t, string(adherence.CategoryWaiting), second.Category)
}

func TestSnapshotScheduler_RunOnce_ContinuesPastFailures(t *testing.T) {
	now := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)
	clock := adherence.FixedClock{Current: now}

	broken := testCycle("user-1", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), 5, 2, 1, 2, 3)
	healthy := testCycle("user-2", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), 5, 2, 1, 2, 3)

	lister := &fakeLister{cycles: []model.Cycle{broken, healthy}}
	snaps := &fakeSnapshotStore{failFor: broken.ID}

	s := NewSnapshotScheduler(lister, snaps, adherence.NewEngine(nil), clock, "0 21 * * *", zap.NewNop())
	s.RunOnce(context.Background())

	require.Len(t, snaps.saved, 1)
	assert.Equal(t, healthy.ID, snaps.saved[0].CycleID)
}

func TestSnapshotScheduler_StartRejectsBadSpec(t *testing.T) {
	s := NewSnapshotScheduler(&fakeLister{}, &fakeSnapshotStore{}, adherence.NewEngine(nil), adherence.FixedClock{Current: time.Now()}, "not a cron spec", zap.NewNop())
	assert.Error(t, s.Start())
}
