// Package app wires the recurrence engine to storage and enforces the
// write rules: validation in the meeting's timezone, permission checks
// before any mutation, and atomic series splits.
package app

import (
	"context"
	"time"

	"github.com/meetcal/meetcal/internal/auth"
	"github.com/meetcal/meetcal/internal/occurrence"
	"github.com/meetcal/meetcal/internal/series"
	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

type App struct {
	Storage    storage.Storage
	AdminGroup string
}

func New(stor storage.Storage, adminGroup string) *App {
	return &App{Storage: stor, AdminGroup: adminGroup}
}

func (a *App) isAdmin(user auth.User) bool {
	return auth.IsAdmin(user, a.AdminGroup)
}

func (a *App) CreateCalendar(ctx context.Context, user auth.User, c storage.Calendar) error {
	if !a.isAdmin(user) {
		return ErrPermissionDenied
	}
	if c.Name == "" {
		return invalid("name", "calendar name is required")
	}
	if c.Status == "" {
		c.Status = storage.CalendarEnabled
	}
	return a.Storage.AddCalendar(ctx, &c)
}

func (a *App) UpdateCalendar(ctx context.Context, user auth.User, name string, c storage.Calendar) error {
	current, err := a.Storage.CalendarByName(ctx, name)
	if err != nil {
		return err
	}
	if !a.isAdmin(user) && !auth.IsCalendarAdmin(user, current) {
		return ErrPermissionDenied
	}
	return a.Storage.UpdateCalendar(ctx, name, c)
}

func (a *App) DeleteCalendar(ctx context.Context, user auth.User, name string) error {
	if !a.isAdmin(user) {
		return ErrPermissionDenied
	}
	return a.Storage.RemoveCalendar(ctx, name)
}

func (a *App) GetCalendar(ctx context.Context, name string) (storage.Calendar, error) {
	return a.Storage.CalendarByName(ctx, name)
}

func (a *App) ListCalendars(ctx context.Context) ([]storage.Calendar, error) {
	return a.Storage.ListCalendars(ctx)
}

// CreateMeeting validates and persists a new meeting. The acting user
// is always recorded as a manager. The returned flag reports whether
// the agenda was free at the requested slot; a busy slot is a warning,
// not a failure.
func (a *App) CreateMeeting(ctx context.Context, user auth.User, m storage.Meeting) (storage.Meeting, bool, error) {
	cal, err := a.Storage.CalendarByName(ctx, m.CalendarName)
	if err != nil {
		return storage.Meeting{}, false, err
	}
	if !cal.Enabled() {
		return storage.Meeting{}, false, ErrCalendarDisabled
	}
	if !a.isAdmin(user) && !auth.IsCalendarManager(user, cal) {
		return storage.Meeting{}, false, ErrPermissionDenied
	}
	normalizeMeeting(&m)
	if err := validateMeeting(m); err != nil {
		return storage.Meeting{}, false, err
	}
	m.AddManager(user.Username)

	free, err := a.AgendaIsFree(ctx, m.CalendarName, occurrenceStart(m), occurrenceStop(m))
	if err != nil {
		return storage.Meeting{}, false, err
	}
	if err := a.Storage.AddMeeting(ctx, &m); err != nil {
		return storage.Meeting{}, false, err
	}
	return m, free, nil
}

// AgendaIsFree checks the candidate interval against every occurrence
// of the calendar, recurring ones expanded.
func (a *App) AgendaIsFree(ctx context.Context, calendarName string, candidateStart, candidateEnd time.Time) (bool, error) {
	windowStart := util.TruncateToDay(candidateStart.UTC())
	windowStop := util.TruncateToDay(candidateEnd.UTC()).AddDate(0, 0, 1)
	meetings, err := a.Storage.MeetingsByDate(ctx, calendarName, windowStart, windowStop)
	if err != nil {
		return false, err
	}
	return occurrence.IsFree(meetings, candidateStart, candidateEnd), nil
}

// EditMeeting applies an edit at the given scope. For scoped edits of a
// recurring meeting, from names the calendar date the caller was
// looking at; the targeted occurrence is the first one on or after it.
func (a *App) EditMeeting(ctx context.Context, user auth.User, id int64, scope series.Scope, from time.Time, updated storage.Meeting) error {
	current, _, err := a.meetingForWrite(ctx, user, id)
	if err != nil {
		return err
	}
	if !scope.Valid() {
		return invalid("scope", "unknown edit scope")
	}

	// Meetings never move between calendars through an edit.
	updated.CalendarName = current.CalendarName
	normalizeMeeting(&updated)
	if err := validateMeeting(updated); err != nil {
		return err
	}
	updated.Managers = mergeManagers(current.Managers, updated.Managers)
	(&updated).AddManager(user.Username)

	var w storage.SplitWrite
	switch {
	case scope == series.ScopeWhole || !current.Recursive():
		w = series.EditWhole(current, updated)
	default:
		occDate, ok := occurrence.NextOccurrence(current, from)
		if !ok {
			return invalid("from", "no occurrence on or after the given date")
		}
		if scope == series.ScopeOne {
			w = series.EditOne(current, occDate, updated)
		} else {
			if updated.Date.Equal(current.Date) {
				updated.Date = occDate
				updated.DateEnd = occDate.AddDate(0, 0, util.DaysBetween(current.Date, current.DateEnd))
			}
			w = series.EditAllFuture(current, occDate, updated)
		}
	}
	return a.Storage.ApplySplit(ctx, w)
}

// DeleteMeeting removes a meeting at the given scope: the whole row, the
// series from a date forward, or one occurrence.
func (a *App) DeleteMeeting(ctx context.Context, user auth.User, id int64, scope series.Scope, from time.Time) error {
	current, _, err := a.meetingForWrite(ctx, user, id)
	if err != nil {
		return err
	}
	if !scope.Valid() {
		return invalid("scope", "unknown delete scope")
	}

	var w storage.SplitWrite
	switch {
	case scope == series.ScopeWhole || !current.Recursive():
		w = series.DeleteWhole(current)
	case scope == series.ScopeAllFuture:
		w = series.DeleteFrom(current, from)
	default:
		occDate, ok := occurrence.NextOccurrence(current, from)
		if !ok {
			// Nothing on or after the cutoff; deletion is a no-op.
			return nil
		}
		w = series.DeleteOne(current, occDate)
	}
	if w.Empty() {
		return nil
	}
	return a.Storage.ApplySplit(ctx, w)
}

func (a *App) meetingForWrite(ctx context.Context, user auth.User, id int64) (storage.Meeting, storage.Calendar, error) {
	current, err := a.Storage.MeetingByID(ctx, id)
	if err != nil {
		return storage.Meeting{}, storage.Calendar{}, err
	}
	cal, err := a.Storage.CalendarByName(ctx, current.CalendarName)
	if err != nil {
		return storage.Meeting{}, storage.Calendar{}, err
	}
	if !cal.Enabled() {
		return storage.Meeting{}, storage.Calendar{}, ErrCalendarDisabled
	}
	if !a.isAdmin(user) &&
		!auth.IsCalendarAdmin(user, cal) &&
		!auth.IsMeetingManager(user, current) {
		return storage.Meeting{}, storage.Calendar{}, ErrPermissionDenied
	}
	return current, cal, nil
}

func (a *App) GetMeeting(ctx context.Context, id int64) (storage.Meeting, error) {
	return a.Storage.MeetingByID(ctx, id)
}

// Meetings lists the expanded occurrences of a calendar between start
// and end, both inclusive.
func (a *App) Meetings(ctx context.Context, calendarName string, start, end time.Time) ([]storage.Meeting, error) {
	if _, err := a.Storage.CalendarByName(ctx, calendarName); err != nil {
		return nil, err
	}
	rows, err := a.Storage.MeetingsByDate(ctx, calendarName, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return occurrence.Expand(rows, start, end), nil
}

// MeetingRows lists the stored rows of a calendar intersecting [start,
// end], both inclusive, without recurrence expansion. The iCalendar
// export renders recurrence rules itself.
func (a *App) MeetingRows(ctx context.Context, calendarName string, start, end time.Time) ([]storage.Meeting, error) {
	return a.Storage.MeetingsByDate(ctx, calendarName, start, end.AddDate(0, 0, 1))
}

// GetWeek returns the week view of a calendar. Zero date components are
// resolved from now.
func (a *App) GetWeek(ctx context.Context, calendarName string, now time.Time, year int, month time.Month, day int) (occurrence.Week, error) {
	start := occurrence.StartOfWeek(now, year, month, day)
	rows, err := a.Storage.MeetingsByDate(ctx, calendarName, start, start.AddDate(0, 0, 7))
	if err != nil {
		return occurrence.Week{}, err
	}
	return occurrence.NewWeek(rows, start), nil
}

// MeetingsOfManager lists the rows a user manages, past or future
// relative to from.
func (a *App) MeetingsOfManager(ctx context.Context, username string, from time.Time, future bool) ([]storage.Meeting, error) {
	rows, err := a.Storage.MeetingsOfManager(ctx, username, util.TruncateToDay(from), future)
	if err != nil {
		return nil, err
	}
	occurrence.SortMeetings(rows)
	return rows, nil
}

func mergeManagers(current, added []string) []string {
	merged := append([]string(nil), current...)
	seen := make(map[string]struct{}, len(merged))
	for _, m := range merged {
		seen[m] = struct{}{}
	}
	for _, m := range added {
		if _, ok := seen[m]; !ok && m != "" {
			merged = append(merged, m)
			seen[m] = struct{}{}
		}
	}
	return merged
}

func occurrenceStart(m storage.Meeting) time.Time {
	start, _ := occurrence.Span(m)
	return start
}

func occurrenceStop(m storage.Meeting) time.Time {
	_, stop := occurrence.Span(m)
	return stop
}
