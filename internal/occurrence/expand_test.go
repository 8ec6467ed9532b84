package occurrence_test

import (
	"testing"
	"time"

	"github.com/meetcal/meetcal/internal/occurrence"
	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
	"github.com/stretchr/testify/require"
)

func weeklyMeeting() storage.Meeting {
	return storage.Meeting{
		ID:                 1,
		Name:               "test recurring",
		CalendarName:       "test_calendar",
		Managers:           []string{"pingou"},
		Date:               util.Date(2014, 9, 1),
		DateEnd:            util.Date(2014, 9, 1),
		TimeStart:          util.ClockTime(9, 0),
		TimeStop:           util.ClockTime(10, 0),
		Timezone:           "UTC",
		RecursionFrequency: 7,
		RecursionEnds:      util.Date(2014, 10, 27),
	}
}

func dates(meetings []storage.Meeting) []string {
	out := make([]string, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, m.Date.Format("2006-01-02"))
	}
	return out
}

func TestExpand(t *testing.T) {
	t.Run("weekly series over full window", func(t *testing.T) {
		meetings := occurrence.Expand(
			[]storage.Meeting{weeklyMeeting()},
			util.Date(2014, 9, 1), util.Date(2014, 10, 27))
		require.Equal(t, []string{
			"2014-09-01", "2014-09-08", "2014-09-15", "2014-09-22",
			"2014-09-29", "2014-10-06", "2014-10-13", "2014-10-20",
			"2014-10-27",
		}, dates(meetings))
		for _, m := range meetings {
			require.Equal(t, int64(1), m.ID)
		}
	})

	t.Run("window end clamps to recursion end", func(t *testing.T) {
		meetings := occurrence.Expand(
			[]storage.Meeting{weeklyMeeting()},
			util.Date(2014, 9, 1), util.Date(2015, 3, 1))
		require.Len(t, meetings, 9)
		last := meetings[len(meetings)-1]
		require.Equal(t, util.Date(2014, 10, 27), last.Date)
	})

	t.Run("window start skips early occurrences", func(t *testing.T) {
		meetings := occurrence.Expand(
			[]storage.Meeting{weeklyMeeting()},
			util.Date(2014, 10, 1), util.Date(2014, 10, 27))
		require.Equal(t, []string{
			"2014-10-06", "2014-10-13", "2014-10-20", "2014-10-27",
		}, dates(meetings))
	})

	t.Run("single day window", func(t *testing.T) {
		day := util.Date(2014, 9, 15)
		meetings := occurrence.Expand([]storage.Meeting{weeklyMeeting()}, day, day)
		require.Len(t, meetings, 1)
		require.Equal(t, day, meetings[0].Date)
	})

	t.Run("non-recurring passes through", func(t *testing.T) {
		m := weeklyMeeting()
		m.RecursionFrequency = 0
		m.RecursionEnds = time.Time{}
		meetings := occurrence.Expand(
			[]storage.Meeting{m}, util.Date(2014, 9, 1), util.Date(2014, 10, 27))
		require.Len(t, meetings, 1)
		require.Equal(t, m.Date, meetings[0].Date)
	})

	t.Run("non-recurring outside window is dropped", func(t *testing.T) {
		m := weeklyMeeting()
		m.RecursionFrequency = 0
		m.RecursionEnds = time.Time{}
		meetings := occurrence.Expand(
			[]storage.Meeting{m}, util.Date(2014, 10, 1), util.Date(2014, 10, 27))
		require.Empty(t, meetings)
	})

	t.Run("non-recurring spanning into the window is kept", func(t *testing.T) {
		m := weeklyMeeting()
		m.RecursionFrequency = 0
		m.RecursionEnds = time.Time{}
		m.DateEnd = util.Date(2014, 9, 3)
		meetings := occurrence.Expand(
			[]storage.Meeting{m}, util.Date(2014, 9, 2), util.Date(2014, 9, 8))
		require.Len(t, meetings, 1)
		require.Equal(t, util.Date(2014, 9, 1), meetings[0].Date)
		require.Equal(t, util.Date(2014, 9, 3), meetings[0].DateEnd)
	})

	t.Run("multi day span preserved", func(t *testing.T) {
		m := weeklyMeeting()
		m.DateEnd = util.Date(2014, 9, 3)
		meetings := occurrence.Expand(
			[]storage.Meeting{m}, util.Date(2014, 9, 8), util.Date(2014, 9, 8))
		require.Len(t, meetings, 1)
		require.Equal(t, util.Date(2014, 9, 10), meetings[0].DateEnd)
	})

	t.Run("expansion is idempotent", func(t *testing.T) {
		first := occurrence.Expand(
			[]storage.Meeting{weeklyMeeting()},
			util.Date(2014, 9, 1), util.Date(2014, 10, 27))
		second := occurrence.Expand(
			[]storage.Meeting{weeklyMeeting()},
			util.Date(2014, 9, 1), util.Date(2014, 10, 27))
		require.Equal(t, first, second)
	})

	t.Run("every covered date appears", func(t *testing.T) {
		m := weeklyMeeting()
		for d := m.Date; !d.After(m.RecursionEnds); d = d.AddDate(0, 0, m.RecursionFrequency) {
			meetings := occurrence.Expand([]storage.Meeting{m}, d, d)
			require.Len(t, meetings, 1, "missing occurrence on %s", d)
			require.Equal(t, d, meetings[0].Date)
		}
	})

	t.Run("never past window or series end", func(t *testing.T) {
		end := util.Date(2014, 10, 5)
		for _, m := range occurrence.Expand([]storage.Meeting{weeklyMeeting()}, time.Time{}, end) {
			require.False(t, m.Date.After(end))
		}
	})

	t.Run("sorted by date time and name", func(t *testing.T) {
		a := weeklyMeeting()
		a.Name = "beta"
		b := weeklyMeeting()
		b.ID = 2
		b.Name = "alpha"
		c := weeklyMeeting()
		c.ID = 3
		c.Name = "early bird"
		c.TimeStart = util.ClockTime(8, 0)

		day := util.Date(2014, 9, 8)
		meetings := occurrence.Expand([]storage.Meeting{a, b, c}, day, day)
		require.Len(t, meetings, 3)
		require.Equal(t, "early bird", meetings[0].Name)
		require.Equal(t, "alpha", meetings[1].Name)
		require.Equal(t, "beta", meetings[2].Name)
	})

	t.Run("clones do not alias managers", func(t *testing.T) {
		m := weeklyMeeting()
		meetings := occurrence.Expand(
			[]storage.Meeting{m}, util.Date(2014, 9, 1), util.Date(2014, 9, 8))
		require.Len(t, meetings, 2)
		meetings[0].Managers[0] = "someone-else"
		require.Equal(t, []string{"pingou"}, meetings[1].Managers)
	})
}

func TestNextOccurrence(t *testing.T) {
	m := weeklyMeeting()

	t.Run("resolves within the series", func(t *testing.T) {
		date, ok := occurrence.NextOccurrence(m, util.Date(2014, 10, 10))
		require.True(t, ok)
		require.Equal(t, util.Date(2014, 10, 13), date)
	})

	t.Run("exact occurrence date resolves to itself", func(t *testing.T) {
		date, ok := occurrence.NextOccurrence(m, util.Date(2014, 9, 15))
		require.True(t, ok)
		require.Equal(t, util.Date(2014, 9, 15), date)
	})

	t.Run("past series end", func(t *testing.T) {
		_, ok := occurrence.NextOccurrence(m, util.Date(2014, 10, 28))
		require.False(t, ok)
	})

	t.Run("zero from resolves to anchor", func(t *testing.T) {
		date, ok := occurrence.NextOccurrence(m, time.Time{})
		require.True(t, ok)
		require.Equal(t, m.Date, date)
	})
}

func TestOnDate(t *testing.T) {
	m := weeklyMeeting()
	require.True(t, occurrence.OnDate(m, util.Date(2014, 9, 1)))
	require.True(t, occurrence.OnDate(m, util.Date(2014, 10, 27)))
	require.False(t, occurrence.OnDate(m, util.Date(2014, 9, 2)))
	require.False(t, occurrence.OnDate(m, util.Date(2014, 8, 25)))
	require.False(t, occurrence.OnDate(m, util.Date(2014, 11, 3)))
}
