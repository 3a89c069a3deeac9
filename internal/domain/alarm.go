package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Purpose is what a reminder is for. Display only; it never affects
// when reminders fire.
type Purpose string

const (
	PurposeWater    Purpose = "water"
	PurposeStretch  Purpose = "stretch"
	PurposeMedicine Purpose = "medicine"
	PurposeCoffee   Purpose = "coffee"
	PurposeEyeRest  Purpose = "eye_rest"
	PurposeWalk     Purpose = "walk"
)

// Label returns the display name for the purpose.
func (p Purpose) Label() string {
	switch p {
	case PurposeWater:
		return "Drink water"
	case PurposeStretch:
		return "Stretch"
	case PurposeMedicine:
		return "Take medicine"
	case PurposeCoffee:
		return "Coffee break"
	case PurposeEyeRest:
		return "Rest your eyes"
	case PurposeWalk:
		return "Take a walk"
	}
	return string(p)
}

// Icon returns the icon token for the purpose.
func (p Purpose) Icon() string {
	switch p {
	case PurposeWater:
		return "💧"
	case PurposeStretch:
		return "🤸"
	case PurposeMedicine:
		return "💊"
	case PurposeCoffee:
		return "☕"
	case PurposeEyeRest:
		return "👁️"
	case PurposeWalk:
		return "🚶"
	}
	return "🔔"
}

// Purposes returns the purpose catalog.
func Purposes() []Purpose {
	return []Purpose{PurposeWater, PurposeStretch, PurposeMedicine, PurposeCoffee, PurposeEyeRest, PurposeWalk}
}

// AlarmMode selects how an alarm's reminder times are generated.
type AlarmMode string

const (
	// ModeWeekday repeats at a fixed time of day on a set of weekdays.
	ModeWeekday AlarmMode = "weekday"
	// ModeInterval repeats every interval during the current work shift.
	ModeInterval AlarmMode = "interval"
)

// Alarm is a user-configured reminder rule.
//
// Weekday mode uses Time and WeekDays (1..7, 1 = Sunday). Interval mode
// uses IntervalHours and OffsetMinutes relative to the shift window
// start, and only fires on working days of the shift schedule.
type Alarm struct {
	ID            string    `json:"id"`
	Purpose       Purpose   `json:"purpose"`
	Enabled       bool      `json:"enabled"`
	Mode          AlarmMode `json:"mode"`
	Time          ClockTime `json:"time,omitempty"`
	WeekDays      []int     `json:"week_days,omitempty"`
	IntervalHours int       `json:"interval_hours,omitempty"`
	OffsetMinutes int       `json:"offset_minutes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewWeekdayAlarm builds an enabled weekday-mode alarm. An empty
// weekday set is rejected; callers wanting a workweek default pass
// DefaultWorkWeek explicitly.
func NewWeekdayAlarm(purpose Purpose, at ClockTime, weekDays []int) (Alarm, error) {
	a := Alarm{
		ID:        uuid.New().String(),
		Purpose:   purpose,
		Enabled:   true,
		Mode:      ModeWeekday,
		Time:      at,
		WeekDays:  append([]int(nil), weekDays...),
		CreatedAt: time.Now(),
	}
	if err := a.Validate(); err != nil {
		return Alarm{}, err
	}
	return a, nil
}

// NewIntervalAlarm builds an enabled shift-relative interval alarm.
func NewIntervalAlarm(purpose Purpose, intervalHours, offsetMinutes int) (Alarm, error) {
	a := Alarm{
		ID:            uuid.New().String(),
		Purpose:       purpose,
		Enabled:       true,
		Mode:          ModeInterval,
		IntervalHours: intervalHours,
		OffsetMinutes: offsetMinutes,
		CreatedAt:     time.Now(),
	}
	if err := a.Validate(); err != nil {
		return Alarm{}, err
	}
	return a, nil
}

// Validate rejects rules that could never fire or would loop forever.
func (a Alarm) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("alarm id cannot be empty")
	}
	switch a.Mode {
	case ModeWeekday:
		if len(a.WeekDays) == 0 {
			return fmt.Errorf("weekday alarm needs at least one weekday")
		}
		for _, d := range a.WeekDays {
			if d < 1 || d > 7 {
				return fmt.Errorf("invalid weekday %d (want 1..7)", d)
			}
		}
	case ModeInterval:
		if a.IntervalHours < 1 {
			return fmt.Errorf("interval must be at least 1 hour, got %d", a.IntervalHours)
		}
		if a.OffsetMinutes < 0 {
			return fmt.Errorf("offset cannot be negative, got %d", a.OffsetMinutes)
		}
	default:
		return fmt.Errorf("unknown alarm mode %q", a.Mode)
	}
	return nil
}

// DefaultWorkWeek is Monday through Friday in 1=Sunday numbering.
func DefaultWorkWeek() []int {
	return []int{2, 3, 4, 5, 6}
}
