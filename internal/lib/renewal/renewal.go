// Package renewal contains pure calendar math for insurance renewal dates:
// urgency classification for a single renewal date and the day distance to
// its next yearly occurrence.
package renewal

import (
	"time"
)

// State classifies how urgent a renewal is.
type State string

const (
	StateOK              State = "ok"
	StateAttention       State = "attention"
	StateSwitchingPeriod State = "switchingPeriod"
	StateExpired         State = "expired"
)

// Thresholds of the urgency windows, in days before the renewal date.
const (
	switchingWindowDays = 30
	attentionWindowDays = 60
)

// Status is the result of classifying one renewal date against a reference day.
type Status struct {
	DaysRemaining   int
	State           State
	Label           string
	ProgressPercent float64
	CanSwitch       bool
}

// labels are the Hungarian display names shown on the dashboard.
var labels = map[State]string{
	StateOK:              "Érvényes",
	StateAttention:       "Figyelem",
	StateSwitchingPeriod: "Váltási időszak",
	StateExpired:         "Lejárt",
}

// Truncate drops the time-of-day component, keeping the calendar day in UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Calculate classifies renewalDate against today. Both arguments are treated
// as calendar days; time-of-day is stripped before subtraction.
func Calculate(renewalDate, today time.Time) Status {
	days := int(Truncate(renewalDate).Sub(Truncate(today)).Hours() / 24)

	var state State
	switch {
	case days < 0:
		state = StateExpired
	case days <= switchingWindowDays:
		state = StateSwitchingPeriod
	case days <= attentionWindowDays:
		state = StateAttention
	default:
		state = StateOK
	}

	var progress float64
	switch state {
	case StateExpired:
		progress = 100
	case StateOK:
		progress = 0
	default:
		progress = float64(attentionWindowDays-days) / attentionWindowDays * 100
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
	}

	return Status{
		DaysRemaining:   days,
		State:           state,
		Label:           labels[state],
		ProgressPercent: progress,
		CanSwitch:       state == StateAttention || state == StateSwitchingPeriod,
	}
}

// DaysUntilNext returns the number of days from today until the next yearly
// occurrence of renewalDate's month and day, ignoring the stored year.
// Returns 0 when the occurrence is today. A Feb 29 anniversary falls on
// Mar 1 in non-leap years via normalized date construction.
func DaysUntilNext(renewalDate, today time.Time) int {
	today = Truncate(today)
	next := time.Date(today.Year(), renewalDate.Month(), renewalDate.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(today.Year()+1, renewalDate.Month(), renewalDate.Day(), 0, 0, 0, 0, time.UTC)
	}
	return int(next.Sub(today).Hours() / 24)
}
