package recurrence

import (
	"strings"
	"time"

	dErrors "taxcal/pkg/domain-errors"
)

// Unit is the calendar alignment of a period. It normally derives from a
// rule's frequency but a template's rule metadata may override it.
type Unit string

const (
	UnitMonth   Unit = "month"
	UnitQuarter Unit = "quarter"
	UnitYear    Unit = "year"
)

var validUnits = map[Unit]bool{
	UnitMonth:   true,
	UnitQuarter: true,
	UnitYear:    true,
}

// ParseUnit constructs a Unit from external input (case-insensitive).
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !validUnits[u] {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported period unit: "+s)
	}
	return u, nil
}

// Period is a half-open calendar-aligned interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Enumerate produces the ordered sequence of calendar-aligned periods of the
// given unit whose union covers every point of [from, to). The first period
// is the one containing from; enumeration stops once a period start reaches
// or passes to. Boundaries are true calendar boundaries: months vary in
// length, quarters are three-month blocks anchored to January, years are
// calendar years.
func Enumerate(unit Unit, from, to time.Time) []Period {
	if !from.Before(to) {
		return nil
	}

	var periods []Period
	start := AlignStart(unit, from)
	for start.Before(to) {
		end := advance(unit, start)
		periods = append(periods, Period{Start: start, End: end})
		start = end
	}
	return periods
}

// AlignStart returns the start of the period of the given unit containing t.
func AlignStart(unit Unit, t time.Time) time.Time {
	year, month, _ := t.Date()
	loc := t.Location()
	switch unit {
	case UnitQuarter:
		// Quarters anchor to January: Jan, Apr, Jul, Oct.
		quarterStart := time.Month(((int(month)-1)/3)*3 + 1)
		return time.Date(year, quarterStart, 1, 0, 0, 0, 0, loc)
	case UnitYear:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc)
	}
}

func advance(unit Unit, start time.Time) time.Time {
	switch unit {
	case UnitQuarter:
		return start.AddDate(0, 3, 0)
	case UnitYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
