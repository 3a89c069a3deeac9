// Package expand turns alarm rules into concrete reminder instants
// over a finite horizon. Expansion is pure: past instants are kept so
// that filtering against "now" stays the reconciler's decision.
package expand

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/shiftwell/shiftwell/internal/domain"
)

// weekday numbers use the 1=Sunday convention of the alarm model.
var rruleWeekdays = map[int]rrule.Weekday{
	1: rrule.SU,
	2: rrule.MO,
	3: rrule.TU,
	4: rrule.WE,
	5: rrule.TH,
	6: rrule.FR,
	7: rrule.SA,
}

// Expand produces the ordered reminder instants of one alarm within
// [from, from+horizonDays) of calendar days. schedule may be nil for
// weekday-mode alarms; interval-mode alarms require one.
func Expand(a domain.Alarm, schedule *domain.ShiftSchedule, from time.Time, horizonDays int) ([]domain.ReminderInstant, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid alarm %s: %w", a.ID, err)
	}
	if horizonDays <= 0 {
		return nil, nil
	}

	switch a.Mode {
	case domain.ModeWeekday:
		return expandWeekday(a, from, horizonDays)
	case domain.ModeInterval:
		if schedule == nil {
			return nil, fmt.Errorf("interval alarm %s needs a shift schedule", a.ID)
		}
		return expandInterval(a, *schedule, from, horizonDays), nil
	}
	return nil, fmt.Errorf("unknown alarm mode %q", a.Mode)
}

// expandWeekday emits one instant per matching weekday at the alarm's
// time of day, via a WEEKLY recurrence rule.
func expandWeekday(a domain.Alarm, from time.Time, horizonDays int) ([]domain.ReminderInstant, error) {
	windowStart := domain.StartOfDay(from)
	windowEnd := windowStart.AddDate(0, 0, horizonDays).Add(-time.Second)

	byweekday := make([]rrule.Weekday, 0, len(a.WeekDays))
	for _, d := range a.WeekDays {
		byweekday = append(byweekday, rruleWeekdays[d])
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byweekday,
		Dtstart:   a.Time.On(windowStart),
	})
	if err != nil {
		return nil, fmt.Errorf("build rrule for alarm %s: %w", a.ID, err)
	}

	var out []domain.ReminderInstant
	for _, t := range rule.Between(windowStart, windowEnd, true) {
		out = append(out, domain.ReminderInstant{AlarmID: a.ID, At: t})
	}
	return out, nil
}

// expandInterval walks each working day of the horizon and steps
// through the day's shift window every IntervalHours, starting at
// window start plus OffsetMinutes. The window end is exclusive; a
// window whose start equals its end yields nothing. Overnight windows
// (end clock before start clock) end on the following day.
func expandInterval(a domain.Alarm, s domain.ShiftSchedule, from time.Time, horizonDays int) []domain.ReminderInstant {
	first := domain.StartOfDay(from)
	interval := time.Duration(a.IntervalHours) * time.Hour
	offset := time.Duration(a.OffsetMinutes) * time.Minute

	var out []domain.ReminderInstant
	for i := 0; i < horizonDays; i++ {
		day := first.AddDate(0, 0, i)
		kind := s.ShiftOn(day)
		if !kind.IsWorking() {
			continue
		}
		window, ok := s.WindowFor(kind)
		if !ok {
			continue
		}
		start, end := window.Bounds(day)
		for t := start.Add(offset); t.Before(end); t = t.Add(interval) {
			out = append(out, domain.ReminderInstant{AlarmID: a.ID, At: t})
		}
	}

	// Overnight spillover can interleave with the next day's window.
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
