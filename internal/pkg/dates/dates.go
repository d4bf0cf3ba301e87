// Package dates handles calendar dates (no time-of-day) as UTC-midnight time.Time values.
package dates

import (
	"fmt"
	"time"
)

// Layout is the ISO 8601 calendar date format used on the wire.
const Layout = "2006-01-02"

// Parse parses a YYYY-MM-DD string into a UTC-midnight time.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// FormatPtr renders an optional date, keeping nil as nil.
func FormatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Format(*t)
	return &s
}

// Truncate drops the time-of-day, keeping the calendar date as seen in t's location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now in the server's local zone.
func Today(now time.Time) time.Time {
	return TodayIn(now, time.Local)
}

// TodayIn returns the calendar date of now as seen in loc.
func TodayIn(now time.Time, loc *time.Location) time.Time {
	return Truncate(now.In(loc))
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// SpanDays counts the calendar days from start to end, both included.
// It is zero or negative when end precedes start.
func SpanDays(start, end time.Time) int {
	return int(Truncate(end).Sub(Truncate(start)).Hours()/24) + 1
}
