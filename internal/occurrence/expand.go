package occurrence

import (
	"sort"
	"time"

	"github.com/meetcal/meetcal/internal/storage"
)

// Expand produces the virtual occurrences of the given rows intersecting
// the date window [windowStart, windowEnd], both bounds inclusive and
// either of them optional (zero value). Single meetings pass through
// unchanged whenever their [Date, DateEnd] span touches the window;
// recurring rows are expanded from their anchor date in steps of
// RecursionFrequency days, never past RecursionEnds.
//
// The result is stably sorted by (date, start time, name). This is the
// single source of truth for turning a recurrence definition into
// concrete calendar entries; callers must always pass window bounds
// consistently, the expansion itself clamps to RecursionEnds.
func Expand(meetings []storage.Meeting, windowStart, windowEnd time.Time) []storage.Meeting {
	out := make([]storage.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if !m.Recursive() {
			if !windowStart.IsZero() && m.DateEnd.Before(windowStart) {
				continue
			}
			if !windowEnd.IsZero() && m.Date.After(windowEnd) {
				continue
			}
			out = append(out, m)
			continue
		}
		end := windowEnd
		if end.IsZero() || end.After(m.RecursionEnds) {
			end = m.RecursionEnds
		}
		for k := 0; ; k++ {
			date := m.Date.AddDate(0, 0, k*m.RecursionFrequency)
			if date.After(end) {
				break
			}
			if !windowStart.IsZero() && date.Before(windowStart) {
				continue
			}
			occ := m.Clone()
			occ.Date = date
			occ.DateEnd = m.DateEnd.AddDate(0, 0, k*m.RecursionFrequency)
			out = append(out, occ)
		}
	}
	SortMeetings(out)
	return out
}

// SortMeetings orders meetings by date, then start time, then name.
func SortMeetings(meetings []storage.Meeting) {
	sort.SliceStable(meetings, func(i, j int) bool {
		a, b := meetings[i], meetings[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.TimeStart.Equal(b.TimeStart) {
			return a.TimeStart.Before(b.TimeStart)
		}
		return a.Name < b.Name
	})
}

// NextOccurrence resolves the first occurrence date of m on or after
// from, answering "which occurrence am I editing". The second return is
// false when the series (or single date) is already past from, or when
// from lands beyond RecursionEnds.
func NextOccurrence(m storage.Meeting, from time.Time) (time.Time, bool) {
	if !m.Recursive() {
		if m.Date.Before(from) {
			return time.Time{}, false
		}
		return m.Date, true
	}
	date := m.Date
	for date.Before(from) {
		date = date.AddDate(0, 0, m.RecursionFrequency)
	}
	if date.After(m.RecursionEnds) {
		return time.Time{}, false
	}
	return date, true
}

// OnDate reports whether the series of m produces an occurrence exactly
// on date.
func OnDate(m storage.Meeting, date time.Time) bool {
	if !m.Recursive() {
		return m.Date.Equal(date)
	}
	if date.Before(m.Date) || date.After(m.RecursionEnds) {
		return false
	}
	days := int(date.Sub(m.Date).Hours() / 24)
	return days%m.RecursionFrequency == 0
}
