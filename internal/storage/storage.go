package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicateCalendar = errors.New("calendar with same name exists")
	ErrNotFoundCalendar  = errors.New("calendar not found")
	ErrCalendarNotEmpty  = errors.New("calendar still owns meetings")
	ErrNotFoundMeeting   = errors.New("meeting not found")
)

// SplitWrite is the atomic multi-row write produced by a series edit or
// deletion. Implementations apply all parts in one transaction or none.
type SplitWrite struct {
	Updates []Meeting
	Inserts []*Meeting
	Deletes []int64
}

// Empty reports whether the write would touch no rows.
func (w SplitWrite) Empty() bool {
	return len(w.Updates) == 0 && len(w.Inserts) == 0 && len(w.Deletes) == 0
}

// Storage is the relational collaborator. Queries return rows; recurrence
// expansion always happens in the caller, never server-side.
type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	AddCalendar(ctx context.Context, c *Calendar) error
	CalendarByName(ctx context.Context, name string) (Calendar, error)
	ListCalendars(ctx context.Context) ([]Calendar, error)
	UpdateCalendar(ctx context.Context, name string, c Calendar) error
	RemoveCalendar(ctx context.Context, name string) error

	AddMeeting(ctx context.Context, m *Meeting) error
	MeetingByID(ctx context.Context, id int64) (Meeting, error)
	UpdateMeeting(ctx context.Context, id int64, m Meeting) error
	RemoveMeeting(ctx context.Context, id int64) error

	// MeetingsByDate returns the rows of a calendar that may produce an
	// occurrence in [start, stop): single meetings dated inside the
	// window plus recurring rows whose series overlaps it.
	MeetingsByDate(ctx context.Context, calendarName string, start, stop time.Time) ([]Meeting, error)

	// MeetingsOfManager returns rows managed by username, either with
	// occurrences strictly before from (future=false) or with occurrences
	// on/after from (future=true).
	MeetingsOfManager(ctx context.Context, username string, from time.Time, future bool) ([]Meeting, error)

	// MeetingsToRemind returns rows carrying a reminder at the given
	// offset whose single occurrence or series reaches date.
	MeetingsToRemind(ctx context.Context, offset int, date time.Time) ([]Meeting, error)

	// ApplySplit commits a series split atomically.
	ApplySplit(ctx context.Context, w SplitWrite) error
}
