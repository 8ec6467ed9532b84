package occurrence

import (
	"time"

	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

// Span returns the absolute start and stop instants of an occurrence,
// resolved in the meeting's own timezone.
func Span(m storage.Meeting) (time.Time, time.Time) {
	loc := m.TimeLocation()
	return util.At(m.Date, m.TimeStart, loc), util.At(m.DateEnd, m.TimeStop, loc)
}

// Overlaps is the canonical interval-overlap test: two instant intervals
// intersect iff each starts before the other ends. Intervals that merely
// touch (one's end equals the other's start) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// IsFree reports whether the candidate interval [candidateStart,
// candidateEnd) collides with no existing occurrence of the calendar.
// Recurring rows are expanded over the candidate's date range first.
func IsFree(meetings []storage.Meeting, candidateStart, candidateEnd time.Time) bool {
	windowStart := util.TruncateToDay(candidateStart.UTC())
	windowEnd := util.TruncateToDay(candidateEnd.UTC())
	for _, m := range Expand(meetings, windowStart, windowEnd) {
		start, stop := Span(m)
		if Overlaps(candidateStart, candidateEnd, start, stop) {
			return false
		}
	}
	return true
}
