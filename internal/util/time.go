package util

import "time"

// TruncateToDay drops the time-of-day component, keeping the location.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Date builds a date-only value at UTC midnight. All meeting dates are
// normalized this way so date arithmetic is location independent.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ClockTime builds a time-of-day value on the zero date, the same shape
// a TIME column scans into.
func ClockTime(hour, minute int) time.Time {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC)
}

// At combines a date-only value and a time-of-day value into an instant
// in the given location.
func At(date, clock time.Time, loc *time.Location) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, loc)
}

// SameDate reports whether two values fall on the same calendar date,
// ignoring time-of-day and location offsets of the stored form.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysBetween returns the whole number of days from a to b (date-only
// values at the same midnight convention).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
