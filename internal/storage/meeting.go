package storage

import (
	"time"
)

// Meeting is one row of the meetings table. A row either represents a
// single meeting (RecursionFrequency == 0) or the anchor of a recurring
// series: occurrences on Date + k*RecursionFrequency days, up to and
// including RecursionEnds.
//
// Date and DateEnd are date-only values (midnight UTC). TimeStart and
// TimeStop are time-of-day values on the zero date, wall clock in the
// meeting's Timezone.
type Meeting struct {
	ID           int64     `json:"id" db:"meeting_id"`
	Name         string    `json:"name" db:"meeting_name"`
	CalendarName string    `json:"calendarName" db:"calendar_name"`
	Managers     []string  `json:"managers" db:"-"`
	Date         time.Time `json:"date" db:"meeting_date"`
	DateEnd      time.Time `json:"dateEnd" db:"meeting_date_end"`
	TimeStart    time.Time `json:"timeStart" db:"meeting_time_start"`
	TimeStop     time.Time `json:"timeStop" db:"meeting_time_stop"`
	Timezone     string    `json:"timezone" db:"meeting_timezone"`
	Information  string    `json:"information" db:"meeting_information"`
	Location     string    `json:"location" db:"meeting_location"`
	FullDay      bool      `json:"fullDay" db:"full_day"`
	Reminder     *Reminder `json:"reminder,omitempty" db:"-"`

	// RecursionFrequency is the number of days between occurrences,
	// 0 when the meeting does not recur. RecursionEnds is zero iff
	// RecursionFrequency is 0.
	RecursionFrequency int       `json:"recursionFrequency" db:"recursion_frequency"`
	RecursionEnds      time.Time `json:"recursionEnds" db:"recursion_ends"`
}

// Recursive reports whether the row describes a recurring series.
func (m Meeting) Recursive() bool {
	return m.RecursionFrequency > 0
}

// Clone returns a detached copy of the meeting. Manager lists and the
// reminder are copied, never aliased: series splits produce sibling rows
// that must each own their snapshot.
func (m Meeting) Clone() Meeting {
	c := m
	c.Managers = append([]string(nil), m.Managers...)
	if m.Reminder != nil {
		r := *m.Reminder
		r.To = append([]string(nil), m.Reminder.To...)
		c.Reminder = &r
	}
	return c
}

// HasManager reports whether username is one of the meeting managers.
// Usernames compare case-sensitively.
func (m Meeting) HasManager(username string) bool {
	for _, manager := range m.Managers {
		if manager == username {
			return true
		}
	}
	return false
}

// AddManager appends username to the manager list unless already present,
// preserving order.
func (m *Meeting) AddManager(username string) {
	if username == "" || m.HasManager(username) {
		return
	}
	m.Managers = append(m.Managers, username)
}

// TimeLocation resolves the meeting's IANA timezone, falling back to UTC
// when unset or when an unknown name was stored.
func (m Meeting) TimeLocation() *time.Location {
	if m.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
