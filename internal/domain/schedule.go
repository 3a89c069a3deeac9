package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ClockTime is a time of day without a date, stored as "HH:MM".
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM". The whole string must match; trailing
// characters are rejected.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On places the clock time on the given calendar day.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ShiftWindow is the working window of one shift kind. An end clock
// earlier than the start clock means the window crosses midnight and
// ends on the following calendar day.
type ShiftWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Overnight reports whether the window spans two calendar days.
func (w ShiftWindow) Overnight() bool {
	return w.End.Minutes() < w.Start.Minutes()
}

// Bounds returns the absolute start and end of the window on the given day.
func (w ShiftWindow) Bounds(day time.Time) (time.Time, time.Time) {
	start := w.Start.On(day)
	end := w.End.On(day)
	if w.Overnight() {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// ShiftSchedule anchors a shift pattern to a start date and maps each
// working kind in the cycle to its time window. Replaced wholesale on
// edit, never mutated in place.
type ShiftSchedule struct {
	Anchor  time.Time                 `json:"anchor"`
	Pattern ShiftPattern              `json:"pattern"`
	Windows map[ShiftKind]ShiftWindow `json:"windows"`
}

// NewShiftSchedule builds a schedule with default windows for every
// working kind in the pattern's cycle.
func NewShiftSchedule(pattern ShiftPattern, anchor time.Time) ShiftSchedule {
	windows := make(map[ShiftKind]ShiftWindow)
	for _, k := range pattern.WorkingKinds() {
		windows[k] = k.DefaultWindow()
	}
	return ShiftSchedule{
		Anchor:  StartOfDay(anchor),
		Pattern: pattern,
		Windows: windows,
	}
}

// Validate checks that every working kind in the cycle has a window.
func (s ShiftSchedule) Validate() error {
	for _, k := range s.Pattern.WorkingKinds() {
		if _, ok := s.Windows[k]; !ok {
			return fmt.Errorf("no time window for %s shift", k)
		}
	}
	return nil
}

// ShiftOn resolves the shift kind for a calendar date. The time-of-day
// component of both the anchor and the date is discarded first.
func (s ShiftSchedule) ShiftOn(date time.Time) ShiftKind {
	return s.Pattern.ShiftAt(DaysBetween(s.Anchor, date))
}

// WindowFor returns the time window of a working kind.
func (s ShiftSchedule) WindowFor(kind ShiftKind) (ShiftWindow, bool) {
	w, ok := s.Windows[kind]
	return w, ok
}

// DayShift pairs a calendar day with its resolved shift kind.
type DayShift struct {
	Date time.Time
	Kind ShiftKind
}

// Preview resolves the next days of the schedule, starting at from.
func (s ShiftSchedule) Preview(from time.Time, days int) []DayShift {
	var out []DayShift
	day := StartOfDay(from)
	for i := 0; i < days; i++ {
		d := day.AddDate(0, 0, i)
		out = append(out, DayShift{Date: d, Kind: s.ShiftOn(d)})
	}
	return out
}

// RegularSchedule is the fixed daily work window of a non-shift worker.
type RegularSchedule struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// DefaultRegularSchedule returns the 09:00-18:00 default.
func DefaultRegularSchedule() RegularSchedule {
	return RegularSchedule{Start: ClockTime{Hour: 9}, End: ClockTime{Hour: 18}}
}

// StartOfDay strips the time-of-day component.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports calendar-day equality in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the whole calendar days from a to b, negative
// when b is before a. Rounding absorbs DST days that are not 24h long.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24))
}
