// Package calendar renders the resolved shift schedule and upcoming
// reminders as iCalendar data.
package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/shiftwell/shiftwell/internal/domain"
)

const productID = "-//ShiftWell//Schedule//EN"

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	return cal
}

// DayUID is the stable event UID of one shift day, so republishing
// replaces instead of duplicating.
func DayUID(day time.Time) string {
	return fmt.Sprintf("shift-%s@shiftwell", day.Format("20060102"))
}

func dayEvent(d domain.DayShift) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, DayUID(d.Date))
	event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s %s", d.Kind.Icon(), d.Kind.Label()))
	event.Props.SetDate(ical.PropDateTimeStart, d.Date)
	event.Props.SetDate(ical.PropDateTimeEnd, d.Date.AddDate(0, 0, 1))
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	return event
}

// ShiftCalendar renders the working days of the schedule as all-day
// events over [from, from+days).
func ShiftCalendar(schedule domain.ShiftSchedule, from time.Time, days int) *ical.Calendar {
	cal := newCalendar()
	for _, d := range schedule.Preview(from, days) {
		if !d.Kind.IsWorking() {
			continue
		}
		cal.Children = append(cal.Children, dayEvent(d).Component)
	}
	return cal
}

// DayCalendar wraps a single shift day in its own calendar, the shape
// CalDAV collections store objects in.
func DayCalendar(d domain.DayShift) *ical.Calendar {
	cal := newCalendar()
	cal.Children = append(cal.Children, dayEvent(d).Component)
	return cal
}

// ReminderCalendar renders upcoming reminder instants as short events.
func ReminderCalendar(instants []domain.ReminderInstant, alarms []domain.Alarm, duration time.Duration) *ical.Calendar {
	purposeOf := make(map[string]domain.Purpose, len(alarms))
	for _, a := range alarms {
		purposeOf[a.ID] = a.Purpose
	}

	cal := newCalendar()
	for _, in := range instants {
		purpose := purposeOf[in.AlarmID]
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, in.Identifier()+"@shiftwell")
		event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s %s", purpose.Icon(), purpose.Label()))
		event.Props.SetDateTime(ical.PropDateTimeStart, in.At.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, in.At.Add(duration).UTC())
		event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}

// Encode serializes a calendar to its .ics text.
func Encode(cal *ical.Calendar) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode calendar: %w", err)
	}
	return buf.String(), nil
}
