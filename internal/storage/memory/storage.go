package memorystorage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meetcal/meetcal/internal/storage"
)

type Storage struct {
	mu         sync.RWMutex
	calendars  map[string]storage.Calendar
	meetings   map[int64]storage.Meeting
	idSeq      int64
	reminderID int64
}

func New() *Storage {
	return &Storage{
		calendars: make(map[string]storage.Calendar),
		meetings:  make(map[int64]storage.Meeting),
	}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddCalendar(_ context.Context, c *storage.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calendars[c.Name]; ok {
		return fmt.Errorf("duplicate calendar %q: %w", c.Name, storage.ErrDuplicateCalendar)
	}
	s.calendars[c.Name] = cloneCalendar(*c)
	return nil
}

func (s *Storage) CalendarByName(_ context.Context, name string) (storage.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calendars[name]
	if !ok {
		return storage.Calendar{}, fmt.Errorf("calendar %q: %w", name, storage.ErrNotFoundCalendar)
	}
	return cloneCalendar(c), nil
}

func (s *Storage) ListCalendars(_ context.Context) ([]storage.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	calendars := make([]storage.Calendar, 0, len(s.calendars))
	for _, c := range s.calendars {
		calendars = append(calendars, cloneCalendar(c))
	}
	return calendars, nil
}

func (s *Storage) UpdateCalendar(_ context.Context, name string, c storage.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calendars[name]; !ok {
		return fmt.Errorf("failed to update calendar %q: %w", name, storage.ErrNotFoundCalendar)
	}
	c.Name = name
	s.calendars[name] = cloneCalendar(c)
	return nil
}

func (s *Storage) RemoveCalendar(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calendars[name]; !ok {
		return fmt.Errorf("failed to remove calendar %q: %w", name, storage.ErrNotFoundCalendar)
	}
	for _, m := range s.meetings {
		if m.CalendarName == name {
			return fmt.Errorf("calendar %q: %w", name, storage.ErrCalendarNotEmpty)
		}
	}
	delete(s.calendars, name)
	return nil
}

func (s *Storage) AddMeeting(_ context.Context, m *storage.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addMeetingLocked(m)
	return nil
}

func (s *Storage) MeetingByID(_ context.Context, id int64) (storage.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	if !ok {
		return storage.Meeting{}, fmt.Errorf("meeting %d: %w", id, storage.ErrNotFoundMeeting)
	}
	return m.Clone(), nil
}

func (s *Storage) UpdateMeeting(_ context.Context, id int64, m storage.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateMeetingLocked(id, m)
}

func (s *Storage) RemoveMeeting(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[id]; !ok {
		return fmt.Errorf("failed to remove meeting %d: %w", id, storage.ErrNotFoundMeeting)
	}
	delete(s.meetings, id)
	return nil
}

// MeetingsByDate selects rows that may produce an occurrence inside
// [start, stop): single meetings overlapping the window and recurring
// rows whose series intersects it. Expansion stays with the caller.
func (s *Storage) MeetingsByDate(_ context.Context, calendarName string, start, stop time.Time) ([]storage.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meetings := make([]storage.Meeting, 0)
	for _, m := range s.meetings {
		if m.CalendarName != calendarName {
			continue
		}
		if inWindow(m, start, stop) {
			meetings = append(meetings, m.Clone())
		}
	}
	return meetings, nil
}

func (s *Storage) MeetingsOfManager(_ context.Context, username string, from time.Time, future bool) ([]storage.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meetings := make([]storage.Meeting, 0)
	for _, m := range s.meetings {
		if !m.HasManager(username) {
			continue
		}
		last := m.Date
		if m.Recursive() {
			last = m.RecursionEnds
		}
		if future && !last.Before(from) {
			meetings = append(meetings, m.Clone())
		}
		if !future && last.Before(from) {
			meetings = append(meetings, m.Clone())
		}
	}
	return meetings, nil
}

func (s *Storage) MeetingsToRemind(_ context.Context, offset int, date time.Time) ([]storage.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meetings := make([]storage.Meeting, 0)
	for _, m := range s.meetings {
		if m.Reminder == nil || m.Reminder.Offset != offset {
			continue
		}
		if m.Recursive() {
			if !m.Date.After(date) && !m.RecursionEnds.Before(date) {
				meetings = append(meetings, m.Clone())
			}
			continue
		}
		if m.Date.Equal(date) {
			meetings = append(meetings, m.Clone())
		}
	}
	return meetings, nil
}

// ApplySplit validates every part against the current state before
// mutating anything, so a failing split leaves the store untouched.
func (s *Storage) ApplySplit(_ context.Context, w storage.SplitWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range w.Updates {
		if _, ok := s.meetings[u.ID]; !ok {
			return fmt.Errorf("failed to update meeting %d: %w", u.ID, storage.ErrNotFoundMeeting)
		}
	}
	for _, id := range w.Deletes {
		if _, ok := s.meetings[id]; !ok {
			return fmt.Errorf("failed to remove meeting %d: %w", id, storage.ErrNotFoundMeeting)
		}
	}
	for _, u := range w.Updates {
		if err := s.updateMeetingLocked(u.ID, u); err != nil {
			return err
		}
	}
	for _, ins := range w.Inserts {
		s.addMeetingLocked(ins)
	}
	for _, id := range w.Deletes {
		delete(s.meetings, id)
	}
	return nil
}

func (s *Storage) addMeetingLocked(m *storage.Meeting) {
	if m.ID == 0 {
		s.idSeq++
		m.ID = s.idSeq
	} else if m.ID > s.idSeq {
		s.idSeq = m.ID
	}
	stored := m.Clone()
	if stored.Reminder != nil {
		s.reminderID++
		stored.Reminder.ID = s.reminderID
		m.Reminder.ID = s.reminderID
	}
	s.meetings[m.ID] = stored
}

func (s *Storage) updateMeetingLocked(id int64, m storage.Meeting) error {
	if _, ok := s.meetings[id]; !ok {
		return fmt.Errorf("failed to update meeting %d: %w", id, storage.ErrNotFoundMeeting)
	}
	m.ID = id
	stored := m.Clone()
	if stored.Reminder != nil && stored.Reminder.ID == 0 {
		s.reminderID++
		stored.Reminder.ID = s.reminderID
	}
	s.meetings[id] = stored
	return nil
}

func inWindow(m storage.Meeting, start, stop time.Time) bool {
	if m.Recursive() {
		return m.Date.Before(stop) && !m.RecursionEnds.Before(start)
	}
	return m.Date.Before(stop) && !m.DateEnd.Before(start)
}

func cloneCalendar(c storage.Calendar) storage.Calendar {
	c.EditorGroups = append([]string(nil), c.EditorGroups...)
	c.AdminGroups = append([]string(nil), c.AdminGroups...)
	return c
}
