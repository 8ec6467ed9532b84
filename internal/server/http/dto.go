package internalhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/meetcal/meetcal/internal/auth"
	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04"
)

// Identity is supplied by the external auth proxy.
const (
	headerRemoteUser   = "X-Remote-User"
	headerRemoteGroups = "X-Remote-Groups"
)

func userFromRequest(r *http.Request) auth.User {
	user := auth.User{Username: r.Header.Get(headerRemoteUser)}
	if groups := r.Header.Get(headerRemoteGroups); groups != "" {
		for _, g := range strings.Split(groups, ",") {
			if g = strings.TrimSpace(g); g != "" {
				user.Groups = append(user.Groups, g)
			}
		}
	}
	return user
}

type reminderJSON struct {
	Offset int      `json:"offset"`
	From   string   `json:"from"`
	To     []string `json:"to"`
	Text   string   `json:"text,omitempty"`
}

type meetingJSON struct {
	ID                 int64         `json:"id,omitempty"`
	Name               string        `json:"name"`
	Calendar           string        `json:"calendar"`
	Managers           []string      `json:"managers,omitempty"`
	Date               string        `json:"date"`
	DateEnd            string        `json:"dateEnd,omitempty"`
	TimeStart          string        `json:"timeStart"`
	TimeStop           string        `json:"timeStop"`
	Timezone           string        `json:"timezone,omitempty"`
	Information        string        `json:"information,omitempty"`
	Location           string        `json:"location,omitempty"`
	FullDay            bool          `json:"fullDay,omitempty"`
	Reminder           *reminderJSON `json:"reminder,omitempty"`
	RecursionFrequency int           `json:"recursionFrequency,omitempty"`
	RecursionEnds      string        `json:"recursionEnds,omitempty"`
}

func toMeetingJSON(m storage.Meeting) meetingJSON {
	out := meetingJSON{
		ID:                 m.ID,
		Name:               m.Name,
		Calendar:           m.CalendarName,
		Managers:           m.Managers,
		Date:               m.Date.Format(dateFormat),
		DateEnd:            m.DateEnd.Format(dateFormat),
		TimeStart:          m.TimeStart.Format(timeFormat),
		TimeStop:           m.TimeStop.Format(timeFormat),
		Timezone:           m.Timezone,
		Information:        m.Information,
		Location:           m.Location,
		FullDay:            m.FullDay,
		RecursionFrequency: m.RecursionFrequency,
	}
	if m.FullDay {
		// The stored end date is the day after the last full day; the
		// wire form carries the last day itself.
		out.DateEnd = m.DateEnd.AddDate(0, 0, -1).Format(dateFormat)
	}
	if m.Recursive() {
		out.RecursionEnds = m.RecursionEnds.Format(dateFormat)
	}
	if m.Reminder != nil {
		out.Reminder = &reminderJSON{
			Offset: m.Reminder.Offset,
			From:   m.Reminder.From,
			To:     m.Reminder.To,
			Text:   m.Reminder.Text,
		}
	}
	return out
}

func (j meetingJSON) meeting() (storage.Meeting, error) {
	m := storage.Meeting{
		Name:               j.Name,
		CalendarName:       j.Calendar,
		Managers:           j.Managers,
		Timezone:           j.Timezone,
		Information:        j.Information,
		Location:           j.Location,
		FullDay:            j.FullDay,
		RecursionFrequency: j.RecursionFrequency,
	}
	var err error
	if m.Date, err = parseDate(j.Date); err != nil {
		return m, err
	}
	if j.DateEnd != "" {
		if m.DateEnd, err = parseDate(j.DateEnd); err != nil {
			return m, err
		}
		if j.FullDay {
			m.DateEnd = m.DateEnd.AddDate(0, 0, 1)
		}
	}
	if j.RecursionEnds != "" {
		if m.RecursionEnds, err = parseDate(j.RecursionEnds); err != nil {
			return m, err
		}
	}
	if !j.FullDay {
		if m.TimeStart, err = parseClock(j.TimeStart); err != nil {
			return m, err
		}
		if m.TimeStop, err = parseClock(j.TimeStop); err != nil {
			return m, err
		}
	}
	if j.Reminder != nil {
		m.Reminder = &storage.Reminder{
			Offset: j.Reminder.Offset,
			From:   j.Reminder.From,
			To:     j.Reminder.To,
			Text:   j.Reminder.Text,
		}
	}
	return m, nil
}

func toMeetingListJSON(meetings []storage.Meeting) []meetingJSON {
	out := make([]meetingJSON, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, toMeetingJSON(m))
	}
	return out
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateFormat, value)
	if err != nil {
		return time.Time{}, err
	}
	return util.Date(t.Year(), t.Month(), t.Day()), nil
}

func parseClock(value string) (time.Time, error) {
	t, err := time.Parse(timeFormat, value)
	if err != nil {
		return time.Time{}, err
	}
	return util.ClockTime(t.Hour(), t.Minute()), nil
}
