package adherence

import "time"

// Clock supplies the calendar arithmetic the adherence core needs.
// Every evaluation reads the clock once and passes the same instant
// through classification and context building, so day-boundary
// decisions stay consistent within one evaluation.
type Clock interface {
	Now() time.Time
	StartOfDay(t time.Time) time.Time
	IsSameDay(a, b time.Time) bool
	AddDays(t time.Time, n int) time.Time
}

// SystemClock is the production Clock, pinned to a single location so
// that day boundaries do not shift between calls.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock creates a SystemClock in the given location. A nil
// location falls back to time.Local.
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return SystemClock{loc: loc}
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c SystemClock) StartOfDay(t time.Time) time.Time {
	return startOfDayIn(t, c.loc)
}

func (c SystemClock) IsSameDay(a, b time.Time) bool {
	return sameDayIn(a, b, c.loc)
}

func (c SystemClock) AddDays(t time.Time, n int) time.Time {
	return t.In(c.loc).AddDate(0, 0, n)
}

// FixedClock is a Clock frozen at a single instant, used to make
// evaluations deterministic in tests.
type FixedClock struct {
	Current time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Current
}

func (c FixedClock) StartOfDay(t time.Time) time.Time {
	return startOfDayIn(t, c.Current.Location())
}

func (c FixedClock) IsSameDay(a, b time.Time) bool {
	return sameDayIn(a, b, c.Current.Location())
}

func (c FixedClock) AddDays(t time.Time, n int) time.Time {
	return t.In(c.Current.Location()).AddDate(0, 0, n)
}

func startOfDayIn(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func sameDayIn(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
