package app

import (
	"time"

	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

// normalizeMeeting fills derived fields before validation: a missing
// end date collapses to the start date, and full-day meetings are pinned
// to the 00:00 - 00:00(+1 day) UTC convention.
func normalizeMeeting(m *storage.Meeting) {
	if m.Timezone == "" {
		m.Timezone = "UTC"
	}
	if m.DateEnd.IsZero() {
		m.DateEnd = m.Date
	}
	if m.FullDay {
		m.TimeStart = util.ClockTime(0, 0)
		m.TimeStop = util.ClockTime(0, 0)
		m.Timezone = "UTC"
		if !m.DateEnd.After(m.Date) {
			m.DateEnd = m.Date.AddDate(0, 0, 1)
		}
	}
}

// validateMeeting checks the meeting in its own timezone, before any
// conversion to the stored representation.
func validateMeeting(m storage.Meeting) error {
	if m.Name == "" {
		return invalid("name", "meeting name is required")
	}
	if m.Date.IsZero() {
		return invalid("date", "meeting date is required")
	}
	if m.DateEnd.Before(m.Date) {
		return invalid("dateEnd", "end date precedes start date")
	}
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return invalid("timezone", "unknown timezone name")
	}
	start := util.At(m.Date, m.TimeStart, loc)
	stop := util.At(m.DateEnd, m.TimeStop, loc)
	if !stop.After(start) {
		return invalid("timeStop", "stop time must be after start time")
	}

	switch {
	case m.RecursionFrequency < 0:
		return invalid("recursionFrequency", "frequency must be a positive number of days")
	case m.RecursionFrequency > 0 && m.RecursionEnds.IsZero():
		return invalid("recursionEnds", "a recurring meeting needs an end date")
	case m.RecursionFrequency == 0 && !m.RecursionEnds.IsZero():
		return invalid("recursionFrequency", "recursion end set without a frequency")
	case m.RecursionFrequency > 0 && m.RecursionEnds.Before(m.Date):
		return invalid("recursionEnds", "recursion ends before the first occurrence")
	}

	if m.Reminder != nil {
		if !storage.ValidReminderOffset(m.Reminder.Offset) {
			return invalid("reminder.offset", "unsupported lead-time offset")
		}
		if len(m.Reminder.To) == 0 {
			return invalid("reminder.to", "at least one recipient is required")
		}
	}
	return nil
}
