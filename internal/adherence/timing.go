package adherence

import "time"

// MedicalTiming buckets the elapsed time between a dose's scheduled
// instant and the evaluation instant.
type MedicalTiming string

const (
	TimingTooEarly       MedicalTiming = "too_early"       // more than 2h before schedule
	TimingUpcoming       MedicalTiming = "upcoming"        // within 2h before schedule
	TimingOnTime         MedicalTiming = "on_time"         // up to 2h after schedule
	TimingSlightDelay    MedicalTiming = "slight_delay"    // 2h to 4h after schedule
	TimingModerateDelay  MedicalTiming = "moderate_delay"  // 4h to 12h after schedule
	TimingRecentlyMissed MedicalTiming = "recently_missed" // 12h to 24h after schedule
	TimingMissed         MedicalTiming = "missed"          // 24h or more after schedule
)

// Threshold boundaries for the timing buckets.
const (
	earlyWindow     = 2 * time.Hour
	slightDelayMax  = 4 * time.Hour
	moderateMax     = 12 * time.Hour
	missedThreshold = 24 * time.Hour

	// catchUpWindow is how long after a missed dose's schedule a
	// double dose on the following day still compensates for it:
	// the day gap plus the 12h grace of the next dose.
	catchUpWindow = missedThreshold + moderateMax
)

// TimingFor maps elapsed time since the scheduled instant to its bucket.
func TimingFor(scheduledAt, evaluatedAt time.Time) MedicalTiming {
	elapsed := evaluatedAt.Sub(scheduledAt)
	switch {
	case elapsed < -earlyWindow:
		return TimingTooEarly
	case elapsed < 0:
		return TimingUpcoming
	case elapsed < earlyWindow:
		return TimingOnTime
	case elapsed < slightDelayMax:
		return TimingSlightDelay
	case elapsed < moderateMax:
		return TimingModerateDelay
	case elapsed < missedThreshold:
		return TimingRecentlyMissed
	default:
		return TimingMissed
	}
}

// TimeContext places a dose's calendar day relative to the evaluation day.
type TimeContext string

const (
	ContextPast    TimeContext = "past"
	ContextPresent TimeContext = "present"
	ContextFuture  TimeContext = "future"
)

// DoseStatus is the base status of a dose at an evaluation instant.
type DoseStatus string

const (
	StatusTaken          DoseStatus = "taken"
	StatusTakenTooEarly  DoseStatus = "taken_too_early"
	StatusTakenDelayed   DoseStatus = "taken_delayed"
	StatusTakenDouble    DoseStatus = "taken_double"
	StatusScheduled      DoseStatus = "scheduled" // before the intake window opens
	StatusNotTaken       DoseStatus = "not_taken" // intake window open, nothing recorded
	StatusRecentlyMissed DoseStatus = "recently_missed"
	StatusMissed         DoseStatus = "missed"
	StatusRest           DoseStatus = "rest"
)

// IsTaken reports whether the status represents a recorded intake.
func (s DoseStatus) IsTaken() bool {
	switch s {
	case StatusTaken, StatusTakenTooEarly, StatusTakenDelayed, StatusTakenDouble:
		return true
	}
	return false
}
