//go:build sql

package sqlstorage_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/meetcal/meetcal/internal/storage"
	sqlstorage "github.com/meetcal/meetcal/internal/storage/sql"
	"github.com/meetcal/meetcal/internal/util"
)

var (
	host     = "127.0.0.1"
	port     = 5532
	database = "testing"
	username = "postgres"
	password = "pas"
)

func TestMain(m *testing.M) {
	if pgHost := os.Getenv("POSTGRES_HOST"); pgHost != "" {
		host = pgHost
	}
	if pgPort := os.Getenv("POSTGRES_PORT"); pgPort != "" {
		port, _ = strconv.Atoi(pgPort)
	}

	cleanupDb()
	os.Exit(m.Run())
}

func testCalendar() storage.Calendar {
	return storage.Calendar{
		Name:         "test_calendar",
		Contact:      "owner@example.com",
		Description:  "calendar for tests",
		EditorGroups: []string{"infra", "packagers"},
		AdminGroups:  []string{"infra-leads"},
		Status:       storage.CalendarEnabled,
	}
}

func testMeeting() storage.Meeting {
	return storage.Meeting{
		Name:         "team sync",
		CalendarName: "test_calendar",
		Managers:     []string{"pingou", "ralph"},
		Date:         util.Date(2014, 9, 1),
		DateEnd:      util.Date(2014, 9, 1),
		TimeStart:    util.ClockTime(9, 0),
		TimeStop:     util.ClockTime(10, 0),
		Timezone:     "UTC",
		Information:  "weekly status",
		Location:     "#meeting-channel",
	}
}

func TestStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("calendar round trip", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()

		require.NoError(t, s.AddCalendar(ctx, &cal))
		require.ErrorIs(t, s.AddCalendar(ctx, &cal), storage.ErrDuplicateCalendar)

		got, err := s.CalendarByName(ctx, cal.Name)
		require.NoError(t, err)
		require.Equal(t, cal, got)

		cal.Description = "changed"
		require.NoError(t, s.UpdateCalendar(ctx, cal.Name, cal))
		got, err = s.CalendarByName(ctx, cal.Name)
		require.NoError(t, err)
		require.Equal(t, "changed", got.Description)

		calendars, err := s.ListCalendars(ctx)
		require.NoError(t, err)
		require.Len(t, calendars, 1)

		require.NoError(t, s.RemoveCalendar(ctx, cal.Name))
		_, err = s.CalendarByName(ctx, cal.Name)
		require.ErrorIs(t, err, storage.ErrNotFoundCalendar)
	})

	t.Run("meeting round trip", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()
		require.NoError(t, s.AddCalendar(ctx, &cal))

		m := testMeeting()
		m.Reminder = &storage.Reminder{
			Offset: 24,
			From:   "calendar@example.com",
			To:     []string{"team@example.com"},
			Text:   "please attend",
		}
		require.NoError(t, s.AddMeeting(ctx, &m))
		require.NotZero(t, m.ID)
		require.NotZero(t, m.Reminder.ID)

		got, err := s.MeetingByID(ctx, m.ID)
		require.NoError(t, err)
		compareMeetings(t, m, got)

		m.Name = "renamed sync"
		m.RecursionFrequency = 7
		m.RecursionEnds = util.Date(2014, 10, 27)
		require.NoError(t, s.UpdateMeeting(ctx, m.ID, m))
		got, err = s.MeetingByID(ctx, m.ID)
		require.NoError(t, err)
		compareMeetings(t, m, got)

		require.NoError(t, s.RemoveMeeting(ctx, m.ID))
		_, err = s.MeetingByID(ctx, m.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundMeeting)
	})

	t.Run("reminder rows do not accumulate", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()
		require.NoError(t, s.AddCalendar(ctx, &cal))

		m := testMeeting()
		m.Reminder = &storage.Reminder{
			Offset: 24,
			From:   "calendar@example.com",
			To:     []string{"team@example.com"},
			Text:   "please attend",
		}
		require.NoError(t, s.AddMeeting(ctx, &m))
		require.Equal(t, 1, countReminders(t))

		m.Name = "renamed sync"
		require.NoError(t, s.UpdateMeeting(ctx, m.ID, m))
		require.NoError(t, s.UpdateMeeting(ctx, m.ID, m))
		require.Equal(t, 1, countReminders(t))

		require.NoError(t, s.RemoveMeeting(ctx, m.ID))
		require.Equal(t, 0, countReminders(t))
	})

	t.Run("calendar with meetings refuses removal", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()
		require.NoError(t, s.AddCalendar(ctx, &cal))
		m := testMeeting()
		require.NoError(t, s.AddMeeting(ctx, &m))

		require.ErrorIs(t, s.RemoveCalendar(ctx, cal.Name), storage.ErrCalendarNotEmpty)
		require.NoError(t, s.RemoveMeeting(ctx, m.ID))
		require.NoError(t, s.RemoveCalendar(ctx, cal.Name))
	})

	t.Run("meetings by date", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()
		require.NoError(t, s.AddCalendar(ctx, &cal))

		single := testMeeting()
		require.NoError(t, s.AddMeeting(ctx, &single))

		recurring := testMeeting()
		recurring.Name = "weekly"
		recurring.RecursionFrequency = 7
		recurring.RecursionEnds = util.Date(2014, 10, 27)
		require.NoError(t, s.AddMeeting(ctx, &recurring))

		meetings, err := s.MeetingsByDate(ctx, cal.Name,
			util.Date(2014, 9, 1), util.Date(2014, 9, 8))
		require.NoError(t, err)
		require.Len(t, meetings, 2)

		meetings, err = s.MeetingsByDate(ctx, cal.Name,
			util.Date(2014, 10, 1), util.Date(2014, 10, 8))
		require.NoError(t, err)
		require.Len(t, meetings, 1)
		require.Equal(t, "weekly", meetings[0].Name)

		meetings, err = s.MeetingsByDate(ctx, cal.Name,
			util.Date(2014, 11, 1), util.Date(2014, 11, 8))
		require.NoError(t, err)
		require.Empty(t, meetings)
	})

	t.Run("meetings of manager", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()
		require.NoError(t, s.AddCalendar(ctx, &cal))

		past := testMeeting()
		past.Date = util.Date(2014, 8, 4)
		past.DateEnd = util.Date(2014, 8, 4)
		require.NoError(t, s.AddMeeting(ctx, &past))

		upcoming := testMeeting()
		upcoming.Name = "upcoming"
		require.NoError(t, s.AddMeeting(ctx, &upcoming))

		from := util.Date(2014, 8, 15)
		meetings, err := s.MeetingsOfManager(ctx, "pingou", from, true)
		require.NoError(t, err)
		require.Len(t, meetings, 1)
		require.Equal(t, "upcoming", meetings[0].Name)
		require.Equal(t, []string{"pingou", "ralph"}, meetings[0].Managers)

		meetings, err = s.MeetingsOfManager(ctx, "pingou", from, false)
		require.NoError(t, err)
		require.Len(t, meetings, 1)

		meetings, err = s.MeetingsOfManager(ctx, "nobody", from, true)
		require.NoError(t, err)
		require.Empty(t, meetings)
	})

	t.Run("meetings to remind", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()
		require.NoError(t, s.AddCalendar(ctx, &cal))

		m := testMeeting()
		m.Reminder = &storage.Reminder{
			Offset: 24,
			From:   "calendar@example.com",
			To:     []string{"team@example.com"},
		}
		require.NoError(t, s.AddMeeting(ctx, &m))

		silent := testMeeting()
		silent.Name = "silent"
		require.NoError(t, s.AddMeeting(ctx, &silent))

		meetings, err := s.MeetingsToRemind(ctx, 24, util.Date(2014, 9, 1))
		require.NoError(t, err)
		require.Len(t, meetings, 1)
		require.NotNil(t, meetings[0].Reminder)

		meetings, err = s.MeetingsToRemind(ctx, 48, util.Date(2014, 9, 1))
		require.NoError(t, err)
		require.Empty(t, meetings)
	})

	t.Run("apply split", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()
		require.NoError(t, s.AddCalendar(ctx, &cal))

		m := testMeeting()
		m.RecursionFrequency = 7
		m.RecursionEnds = util.Date(2014, 10, 27)
		require.NoError(t, s.AddMeeting(ctx, &m))

		truncated := m.Clone()
		truncated.RecursionEnds = util.Date(2014, 10, 19)
		future := m.Clone()
		future.ID = 0
		future.Date = util.Date(2014, 10, 27)
		future.DateEnd = util.Date(2014, 10, 27)

		require.NoError(t, s.ApplySplit(ctx, storage.SplitWrite{
			Updates: []storage.Meeting{truncated},
			Inserts: []*storage.Meeting{&future},
		}))
		require.NotZero(t, future.ID)

		got, err := s.MeetingByID(ctx, m.ID)
		require.NoError(t, err)
		require.Equal(t, util.Date(2014, 10, 19), got.RecursionEnds)

		sibling, err := s.MeetingByID(ctx, future.ID)
		require.NoError(t, err)
		require.Equal(t, util.Date(2014, 10, 27), sibling.Date)

		require.NoError(t, s.ApplySplit(ctx, storage.SplitWrite{
			Deletes: []int64{m.ID, future.ID},
		}))
		_, err = s.MeetingByID(ctx, m.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundMeeting)
	})

	t.Run("failing split rolls back", func(t *testing.T) {
		s := createStorage(t)
		cal := testCalendar()
		require.NoError(t, s.AddCalendar(ctx, &cal))

		m := testMeeting()
		require.NoError(t, s.AddMeeting(ctx, &m))

		missing := m.Clone()
		missing.ID = 999999
		insert := m.Clone()
		insert.ID = 0
		err := s.ApplySplit(ctx, storage.SplitWrite{
			Updates: []storage.Meeting{missing},
			Inserts: []*storage.Meeting{&insert},
		})
		require.ErrorIs(t, err, storage.ErrNotFoundMeeting)

		meetings, err := s.MeetingsByDate(ctx, cal.Name,
			util.Date(2014, 9, 1), util.Date(2014, 9, 2))
		require.NoError(t, err)
		require.Len(t, meetings, 1)
	})
}

func TestStorageNegativeCases(t *testing.T) {
	ctx := context.Background()
	s := createStorage(t)

	require.ErrorIs(t,
		s.UpdateCalendar(ctx, "missing", testCalendar()), storage.ErrNotFoundCalendar)
	require.ErrorIs(t,
		s.RemoveCalendar(ctx, "missing"), storage.ErrNotFoundCalendar)
	require.ErrorIs(t,
		s.UpdateMeeting(ctx, 999999, testMeeting()), storage.ErrNotFoundMeeting)
	require.ErrorIs(t,
		s.RemoveMeeting(ctx, 999999), storage.ErrNotFoundMeeting)

	_, err := s.MeetingByID(ctx, 999999)
	require.ErrorIs(t, err, storage.ErrNotFoundMeeting)
}

func compareMeetings(t *testing.T, expected, actual storage.Meeting) {
	t.Helper()
	require.True(t, expected.Date.Equal(actual.Date),
		"date mismatch %q != %q", expected.Date, actual.Date)
	require.True(t, expected.TimeStart.Equal(actual.TimeStart),
		"start time mismatch %q != %q", expected.TimeStart, actual.TimeStart)
	expected.Date = actual.Date
	expected.DateEnd = actual.DateEnd
	expected.TimeStart = actual.TimeStart
	expected.TimeStop = actual.TimeStop
	expected.RecursionEnds = actual.RecursionEnds
	if expected.Reminder != nil && actual.Reminder != nil {
		expected.Reminder.ID = actual.Reminder.ID
	}
	require.Equal(t, expected, actual)
}

func countReminders(t *testing.T) int {
	t.Helper()
	db, err := sqlx.Connect(
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			host, port, database, username, password),
	)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM reminders"))
	return n
}

func cleanupDb() error {
	db, err := sqlx.Connect(
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			host, port, database, username, password),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(
		"TRUNCATE TABLE meetings_managers, meetings, reminders, calendars")
	return err
}

func createStorage(t *testing.T) *sqlstorage.Storage {
	t.Helper()
	s := sqlstorage.New(sqlstorage.Config{
		Host:     host,
		Port:     port,
		Database: database,
		Username: username,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() {
		s.Close(ctx)
		cancel()
		require.NoError(t, cleanupDb())
	})
	return s
}
