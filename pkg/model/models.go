package model

import "time"

// Cycle represents one run of a medication regimen: a fixed number of
// active days followed by a fixed number of rest days, with one scheduled
// dose per day at the same time of day.
type Cycle struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	StartDate     time.Time       `json:"start_date"`
	ActiveDays    int             `json:"active_days"`
	RestDays      int             `json:"rest_days"`
	IntakeMinutes int             `json:"intake_minutes"` // daily intake time as minutes from midnight
	Doses         []ScheduledDose `json:"doses,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TotalDays returns the full cycle length including rest days.
func (c *Cycle) TotalDays() int {
	return c.ActiveDays + c.RestDays
}

// IsRestDay reports whether the given 1-based day number falls in the rest tail.
func (c *Cycle) IsRestDay(dayNumber int) bool {
	return dayNumber > c.ActiveDays
}

// ScheduledDose represents a single day's planned intake within a cycle.
// TookDouble is terminal once set: the day stays a double-dose day no
// matter what later evaluations would derive from timing alone.
type ScheduledDose struct {
	ID          string     `json:"id"`
	CycleID     string     `json:"cycle_id"`
	DayNumber   int        `json:"day_number"` // 1-based position within the cycle
	ScheduledAt time.Time  `json:"scheduled_at"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	TookDouble  bool       `json:"took_double"`
	Note        *string    `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Taken reports whether any intake has been recorded for this dose.
func (d *ScheduledDose) Taken() bool {
	return d.TakenAt != nil || d.TookDouble
}

// StatusSnapshot is a persisted daily evaluation result for a cycle,
// written by the snapshot scheduler and consumed downstream.
type StatusSnapshot struct {
	ID           string    `json:"id"`
	CycleID      string    `json:"cycle_id"`
	SnapshotDate time.Time `json:"snapshot_date"`
	Category     string    `json:"category"`
	MissedStreak int       `json:"missed_streak"`
	CreatedAt    time.Time `json:"created_at"`
}
