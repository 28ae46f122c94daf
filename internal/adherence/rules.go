package adherence

import (
	"sort"

	"go.uber.org/zap"
)

// Rule is one independent message rule. Applies gates the rule;
// Evaluate returns the category and true on a match. A rule that
// applies but returns false hands evaluation to the next rule, the
// deliberate escape hatch several rules use to defer to a more
// specific one.
type Rule struct {
	Priority int
	Name     string
	Applies  func(Context) bool
	Evaluate func(Context) (MessageCategory, bool)
}

// Engine evaluates the fixed rule set in ascending priority order and
// returns the first match. With no match the default is planting-seed.
type Engine struct {
	rules  []Rule
	logger *zap.Logger
}

// NewEngine creates an Engine with the default rule set.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	rules := defaultRules()
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
	return &Engine{rules: rules, logger: logger}
}

// Evaluate runs the rule set against the context. Lower priority
// numbers win; within a rule the first matching branch wins.
func (e *Engine) Evaluate(ctx Context) MessageCategory {
	for _, r := range e.rules {
		if !r.Applies(ctx) {
			continue
		}
		if cat, ok := r.Evaluate(ctx); ok {
			e.logger.Debug("message rule matched",
				zap.String("rule", r.Name),
				zap.Int("priority", r.Priority),
				zap.String("category", string(cat)),
				zap.Int("missed_streak", ctx.MissedStreak),
			)
			return cat
		}
	}
	return CategoryPlantingSeed
}

// Rules returns the engine's rules in evaluation order, for inspection
// and per-rule testing.
func (e *Engine) Rules() []Rule {
	return e.rules
}

func defaultRules() []Rule {
	return []Rule{
		{
			Priority: 50,
			Name:     "early_taking",
			Applies: func(c Context) bool {
				return c.TodayTaken() &&
					c.YesterdayStatus() != StatusMissed &&
					c.Today.Timing == TimingTooEarly
			},
			Evaluate: func(c Context) (MessageCategory, bool) {
				if c.TodayTaken() {
					return CategoryTakenTooEarly, true
				}
				return CategoryPlantingSeed, true
			},
		},
		{
			Priority: 75,
			Name:     "rest_day",
			Applies: func(c Context) bool {
				return c.TodayStatus() == StatusRest
			},
			Evaluate: func(c Context) (MessageCategory, bool) {
				return CategoryResting, true
			},
		},
		{
			Priority: 100,
			Name:     "consecutive_missed",
			Applies: func(c Context) bool {
				return c.MissedStreak > 0
			},
			Evaluate: func(c Context) (MessageCategory, bool) {
				switch {
				case c.MissedStreak >= 3:
					return CategoryWaiting, true
				case c.MissedStreak >= 2:
					return CategorySevereDelayWarning, true
				}
				// A single-day streak where yesterday itself is the
				// missed dose belongs to the specialized catch-up rules
				// below; this rule only resolves streaks carried across
				// a taken-free gap (rest days, absent doses).
				switch c.YesterdayStatus() {
				case StatusRecentlyMissed, StatusMissed:
					return "", false
				}
				if c.TodayTaken() {
					return CategoryTakeTwo, true
				}
				return CategorySlightDelayWarning, true
			},
		},
		{
			Priority: 150,
			Name:     "recently_missed_yesterday",
			Applies: func(c Context) bool {
				return c.YesterdayStatus() == StatusRecentlyMissed
			},
			Evaluate: func(c Context) (MessageCategory, bool) {
				if !c.TodayTaken() {
					return CategoryTakeTwo, true
				}
				return "", false
			},
		},
		{
			Priority: 200,
			Name:     "double_dosing",
			Applies: func(c Context) bool {
				y := c.Yesterday
				if y == nil || y.Taken() || y.Status == StatusRest {
					return false
				}
				// Once yesterday has fully aged into missed, the exact
				// yesterday-missed rule takes over.
				return y.Status != StatusMissed && y.WithinCatchUpWindow(c.EvaluatedAt)
			},
			Evaluate: func(c Context) (MessageCategory, bool) {
				if c.TodayStatus() == StatusTakenDouble {
					return CategoryDoubleDoseComplete, true
				}
				if c.TodayTaken() {
					return CategoryOneMorePillNeeded, true
				}
				if c.Today == nil {
					return CategoryTakeTwo, true
				}
				switch c.Today.Timing {
				case TimingUpcoming, TimingOnTime, TimingSlightDelay:
					return CategoryTakeTwo, true
				}
				return "", false
			},
		},
		{
			Priority: 300,
			Name:     "yesterday_missed",
			Applies: func(c Context) bool {
				return c.YesterdayStatus() == StatusMissed && c.MissedStreak == 1
			},
			Evaluate: func(c Context) (MessageCategory, bool) {
				switch {
				case c.TodayStatus() == StatusTakenDouble:
					return CategoryTakingBefore, true
				case c.TodayTaken():
					return CategoryWarning, true
				default:
					return CategoryTakeTwo, true
				}
			},
		},
		{
			Priority: 500,
			Name:     "time_based",
			Applies: func(c Context) bool {
				if c.Today == nil {
					return false
				}
				// Early untaken doses fall to the default message.
				if !c.Today.Taken() &&
					(c.Today.Timing == TimingTooEarly || c.Today.Timing == TimingUpcoming) {
					return false
				}
				return true
			},
			Evaluate: func(c Context) (MessageCategory, bool) {
				switch c.Today.Status {
				case StatusTakenDouble:
					return CategoryDoubleDoseComplete, true
				case StatusTakenTooEarly:
					return CategoryTakenTooEarly, true
				case StatusTakenDelayed:
					return CategoryTakenDelayedOK, true
				case StatusTaken:
					return CategoryTodayAfter, true
				}
				switch c.Today.Timing {
				case TimingOnTime:
					return CategoryPlantingSeed, true
				case TimingSlightDelay:
					return CategorySlightDelayWarning, true
				case TimingModerateDelay:
					return CategorySevereDelayWarning, true
				case TimingRecentlyMissed, TimingMissed:
					return CategoryWaiting, true
				}
				return "", false
			},
		},
	}
}
