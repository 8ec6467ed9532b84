// Package series implements the recurring-series editor: the pure
// computation that turns an edit or deletion of part of a series into an
// atomic multi-row write. A recurring row may be split into up to three
// rows: the truncated past portion, the single affected occurrence, and
// the re-opened future portion.
package series

import (
	"time"

	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

// Scope selects how far an edit or deletion reaches into a series.
type Scope string

const (
	// ScopeOne affects a single occurrence, detaching it from the series.
	ScopeOne Scope = "one"
	// ScopeAllFuture affects the targeted occurrence and everything after it.
	ScopeAllFuture Scope = "all-future"
	// ScopeWhole affects every occurrence of the row.
	ScopeWhole Scope = "whole-series"
)

// Valid reports whether s is a known scope token.
func (s Scope) Valid() bool {
	switch s {
	case ScopeOne, ScopeAllFuture, ScopeWhole:
		return true
	}
	return false
}

// EditWhole mutates the row in place: every field, including the
// recursion parameters, is taken from updated. Removing recursion clears
// both recursion fields.
func EditWhole(current storage.Meeting, updated storage.Meeting) storage.SplitWrite {
	edited := updated.Clone()
	edited.ID = current.ID
	if edited.RecursionFrequency == 0 {
		edited.RecursionEnds = time.Time{}
	}
	return storage.SplitWrite{Updates: []storage.Meeting{edited}}
}

// EditOne detaches the occurrence at occurrenceDate from the series and
// applies the edits to it alone. The original row keeps its identifier
// and becomes the single edited occurrence; the portions of the series
// before and after the occurrence are re-created as independent sibling
// rows. The split point is the occurrence's stored date, not the date
// the edit moves it to, so every other occurrence keeps its place.
func EditOne(current storage.Meeting, occurrenceDate time.Time, updated storage.Meeting) storage.SplitWrite {
	if !current.Recursive() {
		return EditWhole(current, updated)
	}

	w := storage.SplitWrite{}
	if past, ok := pastPortion(current, occurrenceDate); ok {
		w.Inserts = append(w.Inserts, past)
	}
	if future, ok := futurePortion(current, occurrenceDate); ok {
		w.Inserts = append(w.Inserts, future)
	}

	edited := updated.Clone()
	edited.ID = current.ID
	edited.RecursionFrequency = 0
	edited.RecursionEnds = time.Time{}
	w.Updates = append(w.Updates, edited)
	return w
}

// EditAllFuture closes the series out just before the targeted
// occurrence and applies the edits to the original row, which keeps
// recurring from its new anchor.
func EditAllFuture(current storage.Meeting, occurrenceDate time.Time, updated storage.Meeting) storage.SplitWrite {
	if !current.Recursive() {
		return EditWhole(current, updated)
	}

	w := storage.SplitWrite{}
	if past, ok := pastPortion(current, occurrenceDate); ok {
		w.Inserts = append(w.Inserts, past)
	}

	edited := updated.Clone()
	edited.ID = current.ID
	if edited.RecursionFrequency == 0 {
		edited.RecursionEnds = time.Time{}
	}
	w.Updates = append(w.Updates, edited)
	return w
}

// DeleteWhole removes the row and everything it owns.
func DeleteWhole(current storage.Meeting) storage.SplitWrite {
	return storage.SplitWrite{Deletes: []int64{current.ID}}
}

// DeleteFrom truncates the series so that no occurrence remains on or
// after fromDate. When the cutoff precedes the anchor the whole row is
// deleted; when it lies beyond the series end nothing changes.
func DeleteFrom(current storage.Meeting, fromDate time.Time) storage.SplitWrite {
	if !current.Recursive() {
		if current.Date.Before(fromDate) {
			return storage.SplitWrite{}
		}
		return DeleteWhole(current)
	}
	if fromDate.After(current.RecursionEnds) {
		return storage.SplitWrite{}
	}
	newEnds := fromDate.AddDate(0, 0, -1)
	if newEnds.Before(current.Date) {
		return DeleteWhole(current)
	}
	truncated := current.Clone()
	truncated.RecursionEnds = newEnds
	return storage.SplitWrite{Updates: []storage.Meeting{truncated}}
}

// DeleteOne removes the single occurrence at occurrenceDate. The
// original row is truncated to the past portion (or moved forward when
// the anchor itself is removed) and the future portion re-opens as a
// sibling row.
func DeleteOne(current storage.Meeting, occurrenceDate time.Time) storage.SplitWrite {
	if !current.Recursive() {
		return DeleteWhole(current)
	}

	if occurrenceDate.After(current.Date) {
		w := storage.SplitWrite{}
		truncated := current.Clone()
		truncated.RecursionEnds = occurrenceDate.AddDate(0, 0, -1)
		w.Updates = append(w.Updates, truncated)
		if future, ok := futurePortion(current, occurrenceDate); ok {
			w.Inserts = append(w.Inserts, future)
		}
		return w
	}

	// Removing the anchor occurrence itself: the row either slides to
	// the next occurrence or, for a one-occurrence series, disappears.
	next := current.Date.AddDate(0, 0, current.RecursionFrequency)
	if next.After(current.RecursionEnds) {
		return DeleteWhole(current)
	}
	moved := current.Clone()
	span := util.DaysBetween(current.Date, current.DateEnd)
	moved.Date = next
	moved.DateEnd = next.AddDate(0, 0, span)
	return storage.SplitWrite{Updates: []storage.Meeting{moved}}
}

// pastPortion builds the sibling row holding the occurrences strictly
// before occurrenceDate. There is none when the anchor itself is edited.
func pastPortion(current storage.Meeting, occurrenceDate time.Time) (*storage.Meeting, bool) {
	ends := occurrenceDate.AddDate(0, 0, -1)
	if ends.Before(current.Date) {
		return nil, false
	}
	past := current.Clone()
	past.ID = 0
	past.RecursionEnds = ends
	return &past, true
}

// futurePortion builds the sibling row holding the occurrences strictly
// after occurrenceDate. There is none when the edited occurrence was the
// last of the series.
func futurePortion(current storage.Meeting, occurrenceDate time.Time) (*storage.Meeting, bool) {
	next := occurrenceDate.AddDate(0, 0, current.RecursionFrequency)
	if next.After(current.RecursionEnds) {
		return nil, false
	}
	future := current.Clone()
	future.ID = 0
	span := util.DaysBetween(current.Date, current.DateEnd)
	future.Date = next
	future.DateEnd = next.AddDate(0, 0, span)
	return &future, true
}
