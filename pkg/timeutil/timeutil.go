// Package timeutil provides calendar-date helpers for streaks and leaderboard
// periods. A calendar date is represented as a time.Time at midnight UTC
// carrying the year, month and day the caller observed in its own location.
package timeutil

import (
	"time"
)

// Day is the length of one calendar day in UTC.
const Day = 24 * time.Hour

// CalendarDate truncates t to its calendar date. The year, month and day are
// read in t's own location, so a 23:30 activity in UTC+5 stays on that day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from t1 to t2.
func DaysBetween(t1, t2 time.Time) int {
	return int(CalendarDate(t2).Sub(CalendarDate(t1)) / Day)
}

// StartOfWeek returns Monday 00:00 UTC of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := CalendarDate(t.UTC())
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// StartOfMonth returns the first day of t's month, 00:00 UTC.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
