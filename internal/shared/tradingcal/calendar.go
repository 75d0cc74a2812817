// Package tradingcal provides the exchange trading calendar used for gap detection.
//
// The calendar treats every Monday to Friday as a session. Exchange holidays are not
// modeled, so a holiday inside a retention window shows up as a gap that can never be
// filled.
package tradingcal

import (
	"fmt"
	"time"
)

// Layout is the ISO 8601 calendar date format used across the price pipeline.
const Layout = "2006-01-02"

// Day returns the calendar date of t as midnight UTC.
// The date is taken in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(Layout)
}

// IsTradingDay reports whether t falls on a weekday.
func IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// Dates returns every trading date between start and end, both inclusive, in
// ascending order. It returns an empty slice when end is before start.
func Dates(start, end time.Time) []time.Time {
	from, to := Day(start), Day(end)
	if to.Before(from) {
		return []time.Time{}
	}

	// ~5/7 of the span are weekdays
	out := make([]time.Time, 0, int(to.Sub(from).Hours()/24)*5/7+2)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			out = append(out, d)
		}
	}
	return out
}
