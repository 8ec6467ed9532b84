package app

import (
	"context"
	"time"

	"github.com/meetcal/meetcal/internal/occurrence"
	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

// DueReminders finds the occurrences whose reminder falls due in the
// next tick window. For each allowed lead-time offset the target hour is
// now+offset rounded down; a meeting is due when one of its occurrences
// starts inside [target, target+tick), the window clamped at midnight.
//
// The caller guarantees at-most-once delivery by invoking this at a
// cadence equal to tickWindowMinutes; nothing here tracks sent state.
func (a *App) DueReminders(ctx context.Context, now time.Time, tickWindowMinutes int) ([]storage.Meeting, error) {
	type key struct {
		id   int64
		date time.Time
	}
	seen := make(map[key]struct{})
	due := make([]storage.Meeting, 0)

	for _, offset := range storage.ReminderOffsets {
		target, windowEnd := occurrence.ReminderWindow(now.UTC(), offset, tickWindowMinutes)
		targetDate := util.Date(target.Year(), target.Month(), target.Day())

		rows, err := a.Storage.MeetingsToRemind(ctx, offset, targetDate)
		if err != nil {
			return nil, err
		}
		for _, m := range rows {
			if m.Recursive() && !occurrence.OnDate(m, targetDate) {
				continue
			}
			start := util.At(targetDate, m.TimeStart, time.UTC)
			if start.Before(target) || !start.Before(windowEnd) {
				continue
			}
			k := key{id: m.ID, date: targetDate}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}

			occ := m.Clone()
			span := util.DaysBetween(m.Date, m.DateEnd)
			occ.Date = targetDate
			occ.DateEnd = targetDate.AddDate(0, 0, span)
			due = append(due, occ)
		}
	}
	occurrence.SortMeetings(due)
	return due, nil
}
