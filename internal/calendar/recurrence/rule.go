// Package recurrence implements the calendar arithmetic behind obligation
// templates: rule parsing, calendar-aligned period enumeration, and due-date
// computation. It is pure (no storage, no clocks), so every behavior is
// covered by plain table tests.
package recurrence

import (
	"strconv"
	"strings"

	dErrors "taxcal/pkg/domain-errors"
)

// Frequency is the recurrence class of a rule. Only fixed frequency classes
// are recognized; this is deliberately not a full RFC 5545 implementation.
type Frequency string

const (
	FreqMonthly   Frequency = "MONTHLY"
	FreqQuarterly Frequency = "QUARTERLY"
	FreqYearly    Frequency = "YEARLY"
)

var validFrequencies = map[Frequency]bool{
	FreqMonthly:   true,
	FreqQuarterly: true,
	FreqYearly:    true,
}

// ParseFrequency constructs a Frequency from external input (case-insensitive).
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !validFrequencies[f] {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported FREQ value: "+s)
	}
	return f, nil
}

// Unit returns the period unit a frequency enumerates over.
func (f Frequency) Unit() Unit {
	switch f {
	case FreqQuarterly:
		return UnitQuarter
	case FreqYearly:
		return UnitYear
	default:
		return UnitMonth
	}
}

// Rule is a parsed recurrence rule.
//
// Interval is parsed and validated but not applied during enumeration: the
// engine generates every period of the rule's frequency regardless of
// interval. Changing that would silently shift existing calendars, so the
// field is carried as data until a migration decides otherwise.
type Rule struct {
	Freq     Frequency
	Interval int
}

// ParseRule decodes a rule string of semicolon-separated KEY=VALUE pairs,
// e.g. "FREQ=QUARTERLY;INTERVAL=1". Keys are case-insensitive and unknown
// keys are ignored. FREQ is required; INTERVAL defaults to 1 and must be a
// positive integer.
func ParseRule(s string) (Rule, error) {
	if strings.TrimSpace(s) == "" {
		return Rule{}, dErrors.New(dErrors.CodeValidation, "recurrence rule is required")
	}

	var (
		freqRaw     string
		intervalRaw string
	)
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return Rule{}, dErrors.New(dErrors.CodeValidation, "malformed rule segment: "+pair)
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "FREQ":
			freqRaw = strings.TrimSpace(value)
		case "INTERVAL":
			intervalRaw = strings.TrimSpace(value)
		}
	}

	if freqRaw == "" {
		return Rule{}, dErrors.New(dErrors.CodeValidation, "rule is missing FREQ")
	}
	freq, err := ParseFrequency(freqRaw)
	if err != nil {
		return Rule{}, err
	}

	interval := 1
	if intervalRaw != "" {
		interval, err = strconv.Atoi(intervalRaw)
		if err != nil {
			return Rule{}, dErrors.New(dErrors.CodeValidation, "INTERVAL must be an integer")
		}
		if interval <= 0 {
			return Rule{}, dErrors.New(dErrors.CodeValidation, "INTERVAL must be positive")
		}
	}

	return Rule{Freq: freq, Interval: interval}, nil
}
