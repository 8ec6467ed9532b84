// Package ical maps meetings onto the iCalendar export collaborator.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/meetcal/meetcal/internal/occurrence"
	"github.com/meetcal/meetcal/internal/storage"
)

const prodID = "-//meetcal//calendar//EN"

// Export renders a calendar and its meetings as an iCalendar document.
// With expand=false, recurring rows whose frequency maps onto a weekly
// RRULE (multiples of 7 days) are exported as one VEVENT with an RRULE;
// every other row is expanded into concrete occurrences first.
func Export(cal storage.Calendar, meetings []storage.Meeting, windowStart, windowEnd time.Time, expand bool) (string, error) {
	c := ics.NewCalendar()
	c.SetMethod(ics.MethodPublish)
	c.SetProductId(prodID)
	c.SetXWRCalName(cal.Name)
	if cal.Description != "" {
		c.SetXWRCalDesc(cal.Description)
	}

	var toExpand []storage.Meeting
	for _, m := range meetings {
		if !expand && m.Recursive() && m.RecursionFrequency%7 == 0 {
			if err := addRecurringEvent(c, m); err != nil {
				return "", err
			}
			continue
		}
		toExpand = append(toExpand, m)
	}
	for _, m := range occurrence.Expand(toExpand, windowStart, windowEnd) {
		addEvent(c, m)
	}
	return c.Serialize(), nil
}

func addEvent(c *ics.Calendar, m storage.Meeting) {
	e := c.AddEvent(eventUID(m))
	fillEvent(e, m)
}

func addRecurringEvent(c *ics.Calendar, m storage.Meeting) error {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: m.RecursionFrequency / 7,
		Until:    m.RecursionEnds.AddDate(0, 0, 1).UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to build recurrence rule: %w", err)
	}
	e := c.AddEvent(eventUID(m))
	fillEvent(e, m)
	e.AddRrule(rule.String())
	return nil
}

func fillEvent(e *ics.VEvent, m storage.Meeting) {
	start, stop := occurrence.Span(m)
	e.SetDtStampTime(start.UTC())
	e.SetSummary(m.Name)
	if m.Information != "" {
		e.SetDescription(m.Information)
	}
	if m.Location != "" {
		e.SetLocation(m.Location)
	}
	if m.FullDay {
		// Full-day entries carry date values and do not block the day.
		e.SetAllDayStartAt(m.Date)
		e.SetAllDayEndAt(m.DateEnd)
		e.SetTimeTransparency(ics.TransparencyTransparent)
		return
	}
	e.SetStartAt(start)
	e.SetEndAt(stop)
}

func eventUID(m storage.Meeting) string {
	return fmt.Sprintf("meeting-%d-%s@%s", m.ID, m.Date.Format("20060102"), m.CalendarName)
}
