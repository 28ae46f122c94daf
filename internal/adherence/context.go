package adherence

import (
	"time"

	"github.com/piriram/pilling-backend/pkg/model"
)

// minMissedElapsed is how long a dose must be past its schedule before
// it counts toward the consecutive-missed streak. Doses younger than
// this neither count nor break the scan.
const minMissedElapsed = moderateMax

// Context is the full adherence picture at one evaluation instant:
// today's and yesterday's classified doses, the rolling consecutive-
// missed streak, and the catch-up dose carried over from yesterday when
// today has no scheduled dose. Built fresh per evaluation, never stored.
type Context struct {
	Today        *ClassifiedDose
	Yesterday    *ClassifiedDose
	CatchUp      *ClassifiedDose
	Cycle        *model.Cycle
	EvaluatedAt  time.Time
	MissedStreak int
	Clock        Clock
}

// BuildContext locates today's and yesterday's doses in the cycle,
// classifies them against the evaluation instant, and computes the
// consecutive-missed streak for the days strictly before today.
func BuildContext(clock Clock, cycle *model.Cycle, evaluatedAt time.Time) Context {
	ctx := Context{
		Cycle:       cycle,
		EvaluatedAt: evaluatedAt,
		Clock:       clock,
	}

	yesterdayRef := clock.AddDays(evaluatedAt, -1)

	for i := range cycle.Doses {
		dose := &cycle.Doses[i]
		switch {
		case clock.IsSameDay(dose.ScheduledAt, evaluatedAt):
			cd := ClassifyDose(clock, cycle, dose, evaluatedAt)
			ctx.Today = &cd
		case clock.IsSameDay(dose.ScheduledAt, yesterdayRef):
			cd := ClassifyDose(clock, cycle, dose, evaluatedAt)
			ctx.Yesterday = &cd
		}
	}

	ctx.MissedStreak = missedStreak(clock, cycle, evaluatedAt)

	// Carry-over: with no dose scheduled today, yesterday's untaken dose
	// stays actionable while its catch-up window is open.
	if ctx.Today == nil && ctx.Yesterday != nil {
		y := ctx.Yesterday
		if !y.Taken() && y.Status != StatusRest && y.WithinCatchUpWindow(evaluatedAt) {
			ctx.CatchUp = y
		}
	}

	return ctx
}

// missedStreak scans the cycle's doses in reverse chronological order,
// starting strictly before the evaluation day. Rest days and doses not
// yet 12h past their schedule are skipped without breaking the scan; a
// taken dose ends it.
func missedStreak(clock Clock, cycle *model.Cycle, evaluatedAt time.Time) int {
	evalDay := clock.StartOfDay(evaluatedAt)

	count := 0
	for i := len(cycle.Doses) - 1; i >= 0; i-- {
		dose := &cycle.Doses[i]
		if !clock.StartOfDay(dose.ScheduledAt).Before(evalDay) {
			continue
		}
		if cycle.IsRestDay(dose.DayNumber) {
			continue
		}
		if dose.Taken() {
			break
		}
		if evaluatedAt.Sub(dose.ScheduledAt) >= minMissedElapsed {
			count++
		}
	}
	return count
}

// TodayTaken reports whether today's dose exists and has an intake.
func (c Context) TodayTaken() bool {
	return c.Today != nil && c.Today.Taken()
}

// TodayStatus returns today's status, or empty when no dose is
// scheduled today.
func (c Context) TodayStatus() DoseStatus {
	if c.Today == nil {
		return ""
	}
	return c.Today.Status
}

// YesterdayStatus returns yesterday's status, or empty when the cycle
// has no dose on the previous day.
func (c Context) YesterdayStatus() DoseStatus {
	if c.Yesterday == nil {
		return ""
	}
	return c.Yesterday.Status
}
