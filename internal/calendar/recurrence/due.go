package recurrence

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDueTime is applied when a template carries no due time-of-day or a
// malformed one.
const DefaultDueTime = "18:00"

// DueAt derives the absolute due timestamp for a period: the period end plus
// offsetDays calendar days, with the local hour and minute overwritten by the
// template's due time-of-day ("HH:MM"). No timezone conversion is performed;
// the result stays in the period end's location.
func DueAt(periodEnd time.Time, offsetDays int, dueTime string) time.Time {
	hour, minute := parseDueTime(dueTime)
	d := periodEnd.AddDate(0, 0, offsetDays)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
}

// parseDueTime accepts "HH:MM" and falls back to the default on anything
// malformed. A bad due time must never fail materialization.
func parseDueTime(s string) (hour, minute int) {
	hour, minute, ok := splitDueTime(s)
	if !ok {
		hour, minute, _ = splitDueTime(DefaultDueTime)
	}
	return hour, minute
}

func splitDueTime(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
