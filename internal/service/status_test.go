package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/piriram/pilling-backend/internal/adherence"
	"github.com/piriram/pilling-backend/internal/repository"
	"github.com/piriram/pilling-backend/pkg/model"
)

// fakeSnapshots is an in-memory SnapshotLister.
type fakeSnapshots struct {
	byCycle map[string][]model.StatusSnapshot
}

func (f *fakeSnapshots) ListByCycle(_ context.Context, cycleID string, limit int) ([]model.StatusSnapshot, error) {
	snaps := f.byCycle[cycleID]
	if len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

func newStatusService(store *fakeStore) *StatusService {
	return newStatusServiceWithSnapshots(store, &fakeSnapshots{byCycle: map[string][]model.StatusSnapshot{}})
}

func newStatusServiceWithSnapshots(store *fakeStore, snaps *fakeSnapshots) *StatusService {
	clock := adherence.FixedClock{Current: serviceNow}
	return NewStatusService(store, snaps, adherence.NewEngine(nil), clock, zap.NewNop())
}

// storeCycle seeds the fake store with a cycle whose doses are at 09:00
// daily. Days listed in takenDays get an intake five minutes after
// schedule.
func storeCycle(store *fakeStore, userID string, start time.Time, activeDays, restDays int, takenDays ...int) *model.Cycle {
	cycle := &model.Cycle{
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

	store.cycles[cycle.ID] = cycle
	return cycle
}

func TestStatusService_NoCycleIsEmpty(t *testing.T) {
	svc := newStatusService(newFakeStore())

	result, err := svc.CurrentStatus(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, adherence.CategoryEmpty, result.Category)
	assert.NotEmpty(t, result.Message.Title)
	assert.Empty(t, result.CycleID)
	assert.True(t, result.EvaluatedAt.Equal(serviceNow))
}

func TestStatusService_FinishedCycleIsCompleted(t *testing.T) {
	store := newFakeStore()
	// 3+1 cycle that ended in early May, every active day taken.
	cycle := storeCycle(store, "user-1", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), 3, 1, 1, 2, 3)
	svc := newStatusService(store)

	result, err := svc.CurrentStatus(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, adherence.CategoryCompleted, result.Category)
	assert.Equal(t, cycle.ID, result.CycleID)
	assert.Equal(t, cycle.TotalDays(), result.CycleDay)
}

func TestStatusService_TodayTakenOnTime(t *testing.T) {
	store := newFakeStore()
	// Day 3 is today (June 10); days 1-3 all taken on time.
	cycle := storeCycle(store, "user-1", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), 5, 2, 1, 2, 3)
	svc := newStatusService(store)

	result, err := svc.CurrentStatus(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, adherence.CategoryTodayAfter, result.Category)
	assert.Equal(t, cycle.ID, result.CycleID)
	assert.Equal(t, 3, result.CycleDay)
	assert.Equal(t, adherence.StatusTaken, result.TodayStatus)
	assert.Equal(t, 0, result.MissedStreak)
	assert.False(t, result.RequiresAction)
	assert.False(t, result.CanTakeDouble)
}

func TestStatusService_TodayOverdue(t *testing.T) {
	store := newFakeStore()
	// Today's 09:00 dose still untaken at 12:00.
	storeCycle(store, "user-1", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), 5, 2, 1, 2)
	svc := newStatusService(store)

	result, err := svc.CurrentStatus(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, adherence.CategorySlightDelayWarning, result.Category)
	assert.Equal(t, adherence.StatusNotTaken, result.TodayStatus)
	assert.True(t, result.RequiresAction)
	assert.True(t, result.CanTakeDouble)
}

func TestStatusService_RestDayToday(t *testing.T) {
	store := newFakeStore()
	// 2 active + 5 rest starting June 7 puts June 10 on rest day 4.
	storeCycle(store, "user-1", time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC), 2, 5, 1, 2)
	svc := newStatusService(store)

	result, err := svc.CurrentStatus(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, adherence.CategoryResting, result.Category)
	assert.Equal(t, adherence.StatusRest, result.TodayStatus)
	assert.False(t, result.RequiresAction)
}

func TestStatusService_Timeline(t *testing.T) {
	store := newFakeStore()
	storeCycle(store, "user-1", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), 5, 2, 1, 2)
	svc := newStatusService(store)

	entries, err := svc.Timeline(context.Background(), "user-1", 7)
	require.NoError(t, err)
	require.Len(t, entries, 7)

	// Days before the cycle started show as empty.
	for _, entry := range entries[:4] {
		assert.Equal(t, adherence.CategoryEmpty, entry.Category)
		assert.False(t, entry.IsToday)
	}

	assert.Equal(t, adherence.CategorySuccess, entries[4].Category)
	assert.Equal(t, adherence.CategorySuccess, entries[5].Category)

	// Today's entry carries the rule-engine category, matching the home screen.
	today := entries[6]
	assert.True(t, today.IsToday)
	assert.Equal(t, adherence.CategorySlightDelayWarning, today.Category)

	status, err := svc.CurrentStatus(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, status.Category, today.Category)
}

func TestStatusService_TimelineWithoutCycle(t *testing.T) {
	svc := newStatusService(newFakeStore())

	entries, err := svc.Timeline(context.Background(), "user-1", 5)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for _, entry := range entries {
		assert.Equal(t, adherence.CategoryEmpty, entry.Category)
	}
}

func TestStatusService_CalendarMonth(t *testing.T) {
	store := newFakeStore()
	// 28+4 cycle spanning the May/June boundary.
	storeCycle(store, "user-1", time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), 28, 4, 1, 2, 3)
	svc := newStatusService(store)

	days, err := svc.CalendarMonth(context.Background(), "user-1", 2025, time.June)
	require.NoError(t, err)

	// May has 12 cycle days (20th-31st), the remaining 20 fall in June.
	require.Len(t, days, 20)
	for _, day := range days {
		assert.Equal(t, time.June, day.Date.Month())
	}

	// Day 29 onward is the rest tail.
	for _, day := range days {
		assert.Equal(t, day.DayNumber > 28, day.IsRestDay)
	}
}

func TestStatusService_CalendarMonthWithoutCycle(t *testing.T) {
	svc := newStatusService(newFakeStore())

	days, err := svc.CalendarMonth(context.Background(), "user-1", 2025, time.June)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestStatusService_SnapshotHistory(t *testing.T) {
	store := newFakeStore()
	cycle := storeCycle(store, "user-1", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), 5, 2, 1, 2)

	snaps := &fakeSnapshots{byCycle: map[string][]model.StatusSnapshot{
		cycle.ID: {
			{ID: "s2", CycleID: cycle.ID, SnapshotDate: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), Category: "success"},
			{ID: "s1", CycleID: cycle.ID, SnapshotDate: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), Category: "planting_seed"},
		},
	}}
	svc := newStatusServiceWithSnapshots(store, snaps)

	history, err := svc.SnapshotHistory(context.Background(), "user-1", cycle.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "s2", history[0].ID)

	history, err = svc.SnapshotHistory(context.Background(), "user-1", cycle.ID, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// Another user's cycle reads as not found.
	_, err = svc.SnapshotHistory(context.Background(), "user-2", cycle.ID, 0)
	assert.ErrorIs(t, err, repository.ErrCycleNotFound)
}
