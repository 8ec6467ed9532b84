package sqlstorage

import (
	"database/sql"
	"time"

	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

type calendarRow struct {
	Name        string `db:"calendar_name"`
	Contact     string `db:"calendar_contact"`
	Description string `db:"calendar_description"`
	EditorGroup string `db:"calendar_editor_group"`
	AdminGroup  string `db:"calendar_admin_group"`
	Status      string `db:"calendar_status"`
}

func (r calendarRow) calendar() storage.Calendar {
	return storage.Calendar{
		Name:         r.Name,
		Contact:      r.Contact,
		Description:  r.Description,
		EditorGroups: splitGroups(r.EditorGroup),
		AdminGroups:  splitGroups(r.AdminGroup),
		Status:       r.Status,
	}
}

type meetingRow struct {
	ID                 int64          `db:"meeting_id"`
	Name               string         `db:"meeting_name"`
	CalendarName       string         `db:"calendar_name"`
	Date               time.Time      `db:"meeting_date"`
	DateEnd            time.Time      `db:"meeting_date_end"`
	TimeStart          time.Time      `db:"meeting_time_start"`
	TimeStop           time.Time      `db:"meeting_time_stop"`
	Timezone           string         `db:"meeting_timezone"`
	Information        string         `db:"meeting_information"`
	Location           string         `db:"meeting_location"`
	FullDay            bool           `db:"full_day"`
	RecursionFrequency sql.NullInt64  `db:"recursion_frequency"`
	RecursionEnds      sql.NullTime   `db:"recursion_ends"`
	ReminderID         sql.NullInt64  `db:"reminder_id"`
	ReminderOffset     sql.NullInt64  `db:"reminder_offset"`
	ReminderFrom       sql.NullString `db:"reminder_from"`
	ReminderTo         sql.NullString `db:"reminder_to"`
	ReminderText       sql.NullString `db:"reminder_text"`
}

func (r meetingRow) meeting() storage.Meeting {
	m := storage.Meeting{
		ID:           r.ID,
		Name:         r.Name,
		CalendarName: r.CalendarName,
		Date:         normalizeDate(r.Date),
		DateEnd:      normalizeDate(r.DateEnd),
		TimeStart:    normalizeClock(r.TimeStart),
		TimeStop:     normalizeClock(r.TimeStop),
		Timezone:     r.Timezone,
		Information:  r.Information,
		Location:     r.Location,
		FullDay:      r.FullDay,
	}
	if r.RecursionFrequency.Valid {
		m.RecursionFrequency = int(r.RecursionFrequency.Int64)
		m.RecursionEnds = normalizeDate(r.RecursionEnds.Time)
	}
	if r.ReminderID.Valid {
		m.Reminder = &storage.Reminder{
			ID:     r.ReminderID.Int64,
			Offset: int(r.ReminderOffset.Int64),
			From:   r.ReminderFrom.String,
			To:     splitGroups(r.ReminderTo.String),
			Text:   r.ReminderText.String,
		}
	}
	return m
}

// Dates and times come back from the driver with driver-chosen
// locations; pin them to the storage conventions (date at UTC midnight,
// time-of-day on the zero date).
func normalizeDate(t time.Time) time.Time {
	return util.Date(t.Year(), t.Month(), t.Day())
}

func normalizeClock(t time.Time) time.Time {
	return util.ClockTime(t.Hour(), t.Minute())
}
