// Package occurrence turns recurrence definitions into concrete calendar
// entries: week-window arithmetic, series expansion over a date window,
// interval availability checks and the reminder tick-window math.
package occurrence

import (
	"time"

	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

// StartOfWeek returns the Monday on or before the given date. Zero
// components are resolved from now (callers pass the current UTC time at
// the boundary).
func StartOfWeek(now time.Time, year int, month time.Month, day int) time.Time {
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if day == 0 {
		day = now.Day()
	}
	date := util.Date(year, month, day)
	// ISO weekday arithmetic, Monday = 0.
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// WeekDates lists the 7 consecutive dates starting at start.
func WeekDates(start time.Time) [7]time.Time {
	var days [7]time.Time
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// NextWeekStart returns the Monday one week after start.
func NextWeekStart(start time.Time) time.Time {
	return start.AddDate(0, 0, 7)
}

// PreviousWeekStart returns the Monday one week before start.
func PreviousWeekStart(start time.Time) time.Time {
	return start.AddDate(0, 0, -7)
}

// Week is a 7-day render window anchored at a Monday, partitioning the
// expanded occurrences intersecting it into full-day and timed meetings.
type Week struct {
	Start    time.Time
	Days     [7]time.Time
	FullDay  []storage.Meeting
	Meetings []storage.Meeting
}

// NewWeek expands the given rows over the week starting at start and
// partitions the result.
func NewWeek(meetings []storage.Meeting, start time.Time) Week {
	w := Week{Start: start, Days: WeekDates(start)}
	// The expansion window end is inclusive, so the last day of the
	// week is start+6.
	for _, m := range Expand(meetings, start, start.AddDate(0, 0, 6)) {
		if m.FullDay {
			w.FullDay = append(w.FullDay, m)
		} else {
			w.Meetings = append(w.Meetings, m)
		}
	}
	return w
}
