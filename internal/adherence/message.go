package adherence

// MessageCategory is the single output of the rule engine: a closed set
// of user-facing message kinds. Display data lives in the mapping
// tables below; the engine never deals in display text.
type MessageCategory string

const (
	CategoryWaiting            MessageCategory = "waiting"
	CategoryPlantingSeed       MessageCategory = "planting_seed"
	CategoryCompleted          MessageCategory = "completed"
	CategoryResting            MessageCategory = "resting"
	CategorySlightDelayWarning MessageCategory = "slight_delay_warning"
	CategorySevereDelayWarning MessageCategory = "severe_delay_warning"
	CategorySuccess            MessageCategory = "success"
	CategoryTakeTwo            MessageCategory = "take_two"
	CategoryEmpty              MessageCategory = "empty"
	CategoryTakenTooEarly      MessageCategory = "taken_too_early"
	CategoryTakenDelayedOK     MessageCategory = "taken_delayed_ok"
	CategoryDoubleDoseComplete MessageCategory = "double_dose_complete"
	CategoryOneMorePillNeeded  MessageCategory = "one_more_pill_needed"
	CategoryTakingBefore       MessageCategory = "taking_before"
	CategoryWarning            MessageCategory = "warning"
	CategoryTodayAfter         MessageCategory = "today_after"
	CategoryUpcomingDose       MessageCategory = "upcoming_dose"
)

// DisplayMessage carries the presentation identifiers for one message
// category. Text is the default-locale copy; Icon and Background are
// asset identifiers resolved by the clients.
type DisplayMessage struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Icon       string `json:"icon"`
	Background string `json:"background"`
}

// displayTable maps every message category to its display data. Rules
// must agree on these semantics, so the table lives next to the engine
// even though rendering itself is a client concern.
var displayTable = map[MessageCategory]DisplayMessage{
	CategoryWaiting: {
		Title:      "Your seed is waiting",
		Body:       "A few doses were missed. Pick the routine back up today.",
		Icon:       "icon_wilted_sprout",
		Background: "bg_overcast",
	},
	CategoryPlantingSeed: {
		Title:      "Time to plant today's seed",
		Body:       "Take today's dose to keep your garden growing.",
		Icon:       "icon_seed",
		Background: "bg_morning",
	},
	CategoryCompleted: {
		Title:      "Cycle complete",
		Body:       "You finished this cycle. Start a new one when you're ready.",
		Icon:       "icon_full_bloom",
		Background: "bg_celebration",
	},
	CategoryResting: {
		Title:      "Rest day",
		Body:       "No dose today. Your garden is resting too.",
		Icon:       "icon_sleeping_sprout",
		Background: "bg_night",
	},
	CategorySlightDelayWarning: {
		Title:      "A little late",
		Body:       "Today's dose is overdue. Take it now to stay on track.",
		Icon:       "icon_drooping_sprout",
		Background: "bg_afternoon",
	},
	CategorySevereDelayWarning: {
		Title:      "Quite late now",
		Body:       "Today's dose is well overdue. Take it as soon as you can.",
		Icon:       "icon_thirsty_sprout",
		Background: "bg_dusk",
	},
	CategorySuccess: {
		Title:      "Dose taken",
		Body:       "Nice work. Your sprout grew a little today.",
		Icon:       "icon_sprout",
		Background: "bg_sunny",
	},
	CategoryTakeTwo: {
		Title:      "Take two today",
		Body:       "Yesterday's dose was missed. Take two pills today to catch up.",
		Icon:       "icon_two_pills",
		Background: "bg_attention",
	},
	CategoryEmpty: {
		Title:      "No active cycle",
		Body:       "Set up a cycle to start tracking your medication.",
		Icon:       "icon_empty_pot",
		Background: "bg_neutral",
	},
	CategoryTakenTooEarly: {
		Title:      "Taken early",
		Body:       "You took this dose well before its time. Watch the spacing to tomorrow's dose.",
		Icon:       "icon_early_bird",
		Background: "bg_dawn",
	},
	CategoryTakenDelayedOK: {
		Title:      "Taken late, still fine",
		Body:       "A late dose still counts. Aim closer to your usual time tomorrow.",
		Icon:       "icon_sprout_ok",
		Background: "bg_sunny",
	},
	CategoryDoubleDoseComplete: {
		Title:      "Caught up",
		Body:       "Both pills taken. Yesterday's miss is covered.",
		Icon:       "icon_two_sprouts",
		Background: "bg_sunny",
	},
	CategoryOneMorePillNeeded: {
		Title:      "One more to go",
		Body:       "You took one pill, but today calls for two. Take the second one.",
		Icon:       "icon_one_pill_left",
		Background: "bg_attention",
	},
	CategoryTakingBefore: {
		Title:      "Catch-up acknowledged",
		Body:       "You doubled up after yesterday's miss. Back to the usual routine tomorrow.",
		Icon:       "icon_recovering_sprout",
		Background: "bg_morning",
	},
	CategoryWarning: {
		Title:      "Only one pill taken",
		Body:       "After yesterday's miss today needs two pills, but only one was recorded.",
		Icon:       "icon_alert_sprout",
		Background: "bg_attention",
	},
	CategoryTodayAfter: {
		Title:      "All set for today",
		Body:       "Today's dose is done. See you tomorrow.",
		Icon:       "icon_watered_sprout",
		Background: "bg_evening",
	},
	CategoryUpcomingDose: {
		Title:      "Dose coming up",
		Body:       "Your next dose is scheduled soon.",
		Icon:       "icon_seed_packet",
		Background: "bg_morning",
	},
}

// Display returns the display data for a category. Unknown categories
// fall back to the planting-seed default so callers always render
// something sensible.
func Display(cat MessageCategory) DisplayMessage {
	if m, ok := displayTable[cat]; ok {
		return m
	}
	return displayTable[CategoryPlantingSeed]
}

// statusCategories maps a classified dose status to the category shown
// for that day in grid and timeline views (where the rule engine is not
// consulted per past day).
var statusCategories = map[DoseStatus]MessageCategory{
	StatusTaken:          CategorySuccess,
	StatusTakenTooEarly:  CategoryTakenTooEarly,
	StatusTakenDelayed:   CategoryTakenDelayedOK,
	StatusTakenDouble:    CategoryDoubleDoseComplete,
	StatusScheduled:      CategoryUpcomingDose,
	StatusNotTaken:       CategoryPlantingSeed,
	StatusRecentlyMissed: CategoryWaiting,
	StatusMissed:         CategoryWaiting,
	StatusRest:           CategoryResting,
}

// CategoryForStatus returns the per-day display category for a dose status.
func CategoryForStatus(status DoseStatus) MessageCategory {
	if c, ok := statusCategories[status]; ok {
		return c
	}
	return CategoryPlantingSeed
}
