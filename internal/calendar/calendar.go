// Package calendar provides the date arithmetic the recurrence projector
// and alert classifier are built on. All functions are pure; dates are
// time.Time values normalized to midnight UTC.
package calendar

import "time"

// Date builds a normalized date (midnight UTC) from its components.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize truncates a timestamp to its date at midnight UTC.
func Normalize(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// LastDay returns the number of days in the given month.
func LastDay(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay realizes a fixed day-of-month (1-31) into a day that exists in
// the given month: min(day, last day of month). February 31st becomes the
// 28th or 29th, April 31st the 30th.
func ClampDay(year int, month time.Month, day int) int {
	if last := LastDay(year, month); day > last {
		return last
	}
	return day
}

// DaysBetween enumerates every date from start to end inclusive, ascending.
// It returns a fresh slice on each call; an end before start yields nil.
func DaysBetween(start, end time.Time) []time.Time {
	start, end = Normalize(start), Normalize(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// IsQuarterStartMonth reports whether the month opens a calendar quarter
// (January, April, July, October).
func IsQuarterStartMonth(month time.Month) bool {
	switch month {
	case time.January, time.April, time.July, time.October:
		return true
	}
	return false
}
