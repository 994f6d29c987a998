package types

import (
	"fmt"
	"strings"
	"time"
)

// Period is the aggregation window of a review
type Period string

const (
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
)

// AllPeriods returns all valid periods
func AllPeriods() []Period {
	return []Period{
		PeriodWeekly,
		PeriodMonthly,
		PeriodQuarterly,
	}
}

// IsValid checks if the period is valid
func (p Period) IsValid() bool {
	switch p {
	case PeriodWeekly,
		PeriodMonthly,
		PeriodQuarterly:
		return true
	default:
		return false
	}
}

// String returns the string representation of the period
func (p Period) String() string {
	return string(p)
}

// Label returns the capitalized period name used in titles and select options
func (p Period) Label() string {
	s := string(p)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// StartDate returns the first day of the review window for a review run on today.
//   - weekly: Monday of the previous calendar week
//   - monthly: 1st of the previous calendar month
//   - quarterly: 1st day of the previous calendar quarter (Q1 wraps to Q4 of last year)
//
// The result is midnight in today's location.
func (p Period) StartDate(today time.Time) (time.Time, error) {
	y, m, d := today.Date()
	loc := today.Location()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch p {
	case PeriodWeekly:
		// time.Weekday starts on Sunday; shift so Monday is 0
		weekday := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -(weekday + 7)), nil

	case PeriodMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc).AddDate(0, -1, 0), nil

	case PeriodQuarterly:
		quarter := (int(m) - 1) / 3
		if quarter == 0 {
			return time.Date(y-1, time.October, 1, 0, 0, 0, 0, loc), nil
		}
		return time.Date(y, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, loc), nil

	default:
		return time.Time{}, fmt.Errorf("invalid period: %s", p)
	}
}

// ParsePeriod parses a string into a Period (case-insensitive)
func ParsePeriod(s string) (Period, error) {
	period := Period(strings.ToLower(strings.TrimSpace(s)))
	if !period.IsValid() {
		return "", fmt.Errorf("invalid period: %s", s)
	}
	return period, nil
}
