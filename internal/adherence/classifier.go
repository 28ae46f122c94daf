package adherence

import (
	"time"

	"github.com/piriram/pilling-backend/pkg/model"
)

// ClassifiedDose is the result of classifying one scheduled dose at one
// evaluation instant. It is a pure value with no identity.
type ClassifiedDose struct {
	Status      DoseStatus
	Timing      MedicalTiming
	TimeContext TimeContext
	ScheduledAt time.Time
	TakenAt     *time.Time
}

// Classify classifies a single scheduled dose against the evaluation
// instant and, when present, the actual intake instant. Classification
// is total: every input combination yields a value, never an error.
// Garbage instants route to an extreme timing bucket; validation is the
// caller's responsibility.
func Classify(clock Clock, scheduledAt time.Time, takenAt *time.Time, evaluatedAt time.Time, isRestDay bool) ClassifiedDose {
	tc := timeContextFor(clock, scheduledAt, evaluatedAt)

	// Rest days never classify as taken or missed, whatever else was recorded.
	if isRestDay {
		return ClassifiedDose{
			Status:      StatusRest,
			Timing:      TimingOnTime,
			TimeContext: tc,
			ScheduledAt: scheduledAt,
			TakenAt:     takenAt,
		}
	}

	timing := TimingFor(scheduledAt, evaluatedAt)

	cd := ClassifiedDose{
		Timing:      timing,
		TimeContext: tc,
		ScheduledAt: scheduledAt,
		TakenAt:     takenAt,
	}

	if takenAt != nil {
		// A recorded intake always wins over the missed buckets.
		cd.Status = intakeStatus(scheduledAt, *takenAt)
		return cd
	}

	switch timing {
	case TimingTooEarly, TimingUpcoming:
		cd.Status = StatusScheduled
	case TimingOnTime, TimingSlightDelay, TimingModerateDelay:
		cd.Status = StatusNotTaken
	case TimingRecentlyMissed:
		cd.Status = StatusRecentlyMissed
	default:
		cd.Status = StatusMissed
	}
	return cd
}

// ClassifyDose classifies a dose within its owning cycle, deriving the
// rest-day flag from the cycle shape and honoring the terminal
// double-dose state recorded on the dose itself.
func ClassifyDose(clock Clock, cycle *model.Cycle, dose *model.ScheduledDose, evaluatedAt time.Time) ClassifiedDose {
	cd := Classify(clock, dose.ScheduledAt, dose.TakenAt, evaluatedAt, cycle.IsRestDay(dose.DayNumber))
	if dose.TookDouble && cd.Status != StatusRest {
		cd.Status = StatusTakenDouble
	}
	return cd
}

// Taken reports whether an intake has been recorded for the dose.
func (d ClassifiedDose) Taken() bool {
	return d.Status.IsTaken()
}

// RequiresAction reports whether the dose still wants an intake today.
func (d ClassifiedDose) RequiresAction() bool {
	if d.TimeContext != ContextPresent || d.Taken() {
		return false
	}
	switch d.Status {
	case StatusMissed, StatusRecentlyMissed, StatusRest:
		return false
	}
	return true
}

// CanTakeDouble reports whether today's dose is in the window where a
// double intake can compensate for a missed previous day.
func (d ClassifiedDose) CanTakeDouble() bool {
	if d.TimeContext != ContextPresent || d.Taken() || d.Status != StatusNotTaken {
		return false
	}
	return d.Timing == TimingOnTime || d.Timing == TimingSlightDelay
}

// WithinCatchUpWindow reports whether the dose's missed intake can still
// be compensated by doubling up at the evaluation instant.
func (d ClassifiedDose) WithinCatchUpWindow(evaluatedAt time.Time) bool {
	return evaluatedAt.Sub(d.ScheduledAt) < catchUpWindow
}

func intakeStatus(scheduledAt, takenAt time.Time) DoseStatus {
	diff := takenAt.Sub(scheduledAt)
	switch {
	case diff < -earlyWindow:
		return StatusTakenTooEarly
	case diff <= earlyWindow && diff >= -earlyWindow:
		return StatusTaken
	default:
		return StatusTakenDelayed
	}
}

func timeContextFor(clock Clock, scheduledAt, evaluatedAt time.Time) TimeContext {
	if clock.IsSameDay(scheduledAt, evaluatedAt) {
		return ContextPresent
	}
	if clock.StartOfDay(scheduledAt).Before(clock.StartOfDay(evaluatedAt)) {
		return ContextPast
	}
	return ContextFuture
}
