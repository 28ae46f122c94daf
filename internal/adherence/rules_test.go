package adherence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dose(status DoseStatus, timing MedicalTiming, tc TimeContext) *ClassifiedDose {
	return &ClassifiedDose{Status: status, Timing: timing, TimeContext: tc}
}

func newTestEngine() *Engine {
	return NewEngine(nil)
}

func TestEngine_DefaultFallback(t *testing.T) {
	engine := newTestEngine()
	assert.Equal(t, CategoryPlantingSeed, engine.Evaluate(Context{}))
}

func TestEngine_EarlyUntakenFallsToDefault(t *testing.T) {
	engine := newTestEngine()

	ctx := Context{Today: dose(StatusScheduled, TimingUpcoming, ContextPresent)}
	assert.Equal(t, CategoryPlantingSeed, engine.Evaluate(ctx))

	ctx = Context{Today: dose(StatusScheduled, TimingTooEarly, ContextPresent)}
	assert.Equal(t, CategoryPlantingSeed, engine.Evaluate(ctx))
}

func TestEngine_RestDayBeatsTimeBased(t *testing.T) {
	engine := newTestEngine()

	// Today satisfies both the rest-day rule and, timing-wise, the
	// time-based rule. The lower priority number must win.
	ctx := Context{Today: dose(StatusRest, TimingOnTime, ContextPresent)}
	assert.Equal(t, CategoryResting, engine.Evaluate(ctx))
}

func TestEngine_EarlyTaking(t *testing.T) {
	engine := newTestEngine()

	ctx := Context{
		Today:     dose(StatusTakenTooEarly, TimingTooEarly, ContextPresent),
		Yesterday: dose(StatusTaken, TimingMissed, ContextPast),
	}
	assert.Equal(t, CategoryTakenTooEarly, engine.Evaluate(ctx))

	// With yesterday missed the early-taking rule steps aside.
	ctx.Yesterday = dose(StatusMissed, TimingMissed, ContextPast)
	ctx.MissedStreak = 1
	assert.Equal(t, CategoryWarning, engine.Evaluate(ctx))
}

func TestEngine_ConsecutiveMissedStreaks(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name   string
		ctx    Context
		want   MessageCategory
	}{
		{
			"streak of three or more waits",
			Context{MissedStreak: 3, Today: dose(StatusNotTaken, TimingOnTime, ContextPresent)},
			CategoryWaiting,
		},
		{
			"streak of two warns severely",
			Context{MissedStreak: 2, Today: dose(StatusNotTaken, TimingOnTime, ContextPresent)},
			CategorySevereDelayWarning,
		},
		{
			"streak carried across rest day, today taken",
			Context{
				MissedStreak: 1,
				Yesterday:    dose(StatusRest, TimingOnTime, ContextPast),
				Today:        dose(StatusTaken, TimingOnTime, ContextPresent),
			},
			CategoryTakeTwo,
		},
		{
			"streak carried across rest day, today untaken",
			Context{
				MissedStreak: 1,
				Yesterday:    dose(StatusRest, TimingOnTime, ContextPast),
				Today:        dose(StatusNotTaken, TimingOnTime, ContextPresent),
			},
			CategorySlightDelayWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Evaluate(tt.ctx))
		})
	}
}

func TestEngine_RecentlyMissedYesterday(t *testing.T) {
	engine := newTestEngine()
	yesterday := func() *ClassifiedDose {
		d := dose(StatusRecentlyMissed, TimingRecentlyMissed, ContextPast)
		d.ScheduledAt = time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
		return d
	}
	evaluated := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	// Untaken today: take two to catch up.
	ctx := Context{
		Yesterday:    yesterday(),
		Today:        dose(StatusNotTaken, TimingOnTime, ContextPresent),
		EvaluatedAt:  evaluated,
		MissedStreak: 1,
	}
	assert.Equal(t, CategoryTakeTwo, engine.Evaluate(ctx))

	// Taken single: the rule yields nothing and the double-dosing rule
	// picks it up.
	ctx.Today = dose(StatusTaken, TimingOnTime, ContextPresent)
	assert.Equal(t, CategoryOneMorePillNeeded, engine.Evaluate(ctx))

	// Taken double: catch-up complete.
	ctx.Today = dose(StatusTakenDouble, TimingOnTime, ContextPresent)
	assert.Equal(t, CategoryDoubleDoseComplete, engine.Evaluate(ctx))
}

func TestEngine_DoubleDosingResolution(t *testing.T) {
	engine := newTestEngine()

	yesterdayMissed := func() *ClassifiedDose {
		d := dose(StatusMissed, TimingMissed, ContextPast)
		d.ScheduledAt = time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
		return d
	}
	evaluated := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		today *ClassifiedDose
		want  MessageCategory
	}{
		{"today double-dosed", dose(StatusTakenDouble, TimingOnTime, ContextPresent), CategoryTakingBefore},
		{"today single dose only", dose(StatusTaken, TimingOnTime, ContextPresent), CategoryWarning},
		{"today untaken", dose(StatusNotTaken, TimingOnTime, ContextPresent), CategoryTakeTwo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Context{
				Yesterday:    yesterdayMissed(),
				Today:        tt.today,
				EvaluatedAt:  evaluated,
				MissedStreak: 1,
			}
			assert.Equal(t, tt.want, engine.Evaluate(ctx))
		})
	}
}

func TestEngine_DoubleDosingEndToEnd(t *testing.T) {
	// Same resolution, but driven through BuildContext on a real cycle:
	// days 1-3 taken, day 4 missed, evaluating day 5 mid-morning.
	engine := newTestEngine()

	base := buildCycle(day(1), 10, 0, 1, 2, 3)
	evaluated := day(5).Add(10 * time.Hour)
	clock := FixedClock{Current: evaluated}

	// Untaken today.
	ctx := BuildContext(clock, base, evaluated)
	require.Equal(t, StatusMissed, ctx.YesterdayStatus())
	require.Equal(t, 1, ctx.MissedStreak)
	assert.Equal(t, CategoryTakeTwo, engine.Evaluate(ctx))

	// Single intake today.
	tk := day(5).Add(9*time.Hour + 30*time.Minute)
	base.Doses[4].TakenAt = &tk
	ctx = BuildContext(clock, base, evaluated)
	assert.Equal(t, CategoryWarning, engine.Evaluate(ctx))

	// Double intake today.
	base.Doses[4].TookDouble = true
	ctx = BuildContext(clock, base, evaluated)
	assert.Equal(t, CategoryTakingBefore, engine.Evaluate(ctx))
}

func TestEngine_CatchUpWindowOffersTakeTwo(t *testing.T) {
	engine := newTestEngine()

	// Yesterday's dose missed only a few hours ago (before the streak
	// even counts it), today's dose upcoming: the double-dosing rule
	// already offers take-two.
	yesterday := dose(StatusNotTaken, TimingModerateDelay, ContextPast)
	yesterday.ScheduledAt = time.Date(2025, 6, 14, 21, 0, 0, 0, time.UTC)

	ctx := Context{
		Yesterday:   yesterday,
		Today:       dose(StatusScheduled, TimingUpcoming, ContextPresent),
		EvaluatedAt: time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, CategoryTakeTwo, engine.Evaluate(ctx))
}

func TestEngine_TimeBasedMappings(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name  string
		today *ClassifiedDose
		want  MessageCategory
	}{
		{"taken on time", dose(StatusTaken, TimingOnTime, ContextPresent), CategoryTodayAfter},
		{"taken delayed", dose(StatusTakenDelayed, TimingSlightDelay, ContextPresent), CategoryTakenDelayedOK},
		{"taken double", dose(StatusTakenDouble, TimingOnTime, ContextPresent), CategoryDoubleDoseComplete},
		{"untaken on time", dose(StatusNotTaken, TimingOnTime, ContextPresent), CategoryPlantingSeed},
		{"untaken slight delay", dose(StatusNotTaken, TimingSlightDelay, ContextPresent), CategorySlightDelayWarning},
		{"untaken moderate delay", dose(StatusNotTaken, TimingModerateDelay, ContextPresent), CategorySevereDelayWarning},
		{"recently missed", dose(StatusRecentlyMissed, TimingRecentlyMissed, ContextPresent), CategoryWaiting},
		{"missed", dose(StatusMissed, TimingMissed, ContextPresent), CategoryWaiting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Evaluate(Context{Today: tt.today}))
		})
	}
}

func TestEngine_RulesSortedByPriority(t *testing.T) {
	engine := newTestEngine()
	rules := engine.Rules()
	require.NotEmpty(t, rules)
	for i := 1; i < len(rules); i++ {
		assert.LessOrEqual(t, rules[i-1].Priority, rules[i].Priority)
	}
}

func TestDisplay_EveryCategoryHasDisplayData(t *testing.T) {
	categories := []MessageCategory{
		CategoryWaiting, CategoryPlantingSeed, CategoryCompleted, CategoryResting,
		CategorySlightDelayWarning, CategorySevereDelayWarning, CategorySuccess,
		CategoryTakeTwo, CategoryEmpty, CategoryTakenTooEarly, CategoryTakenDelayedOK,
		CategoryDoubleDoseComplete, CategoryOneMorePillNeeded, CategoryTakingBefore,
		CategoryWarning, CategoryTodayAfter, CategoryUpcomingDose,
	}
	for _, cat := range categories {
		m := Display(cat)
		assert.NotEmpty(t, m.Title, "category %s", cat)
		assert.NotEmpty(t, m.Icon, "category %s", cat)
		assert.NotEmpty(t, m.Background, "category %s", cat)
	}

	// Unknown categories render the default rather than nothing.
	assert.Equal(t, Display(CategoryPlantingSeed), Display(MessageCategory("bogus")))
}
