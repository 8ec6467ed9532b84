package occurrence

import (
	"time"
)

// ReminderWindow computes the [target, end) instant window a reminder
// tick must inspect for one lead-time offset: target is now+offset
// rounded down to the hour, end is target plus the tick cadence, clamped
// to the last minute of target's day. The clamp narrows, never widens,
// the window at day boundaries.
func ReminderWindow(now time.Time, offsetHours, tickWindowMinutes int) (time.Time, time.Time) {
	target := now.Add(time.Duration(offsetHours) * time.Hour).Truncate(time.Hour)
	end := target.Add(time.Duration(tickWindowMinutes) * time.Minute)
	dayEnd := time.Date(
		target.Year(), target.Month(), target.Day(),
		23, 59, 0, 0, target.Location())
	if end.After(dayEnd) {
		end = dayEnd
	}
	return target, end
}
