package domain

import (
	"fmt"
	"strings"
)

// ShiftKind is the work state of a single calendar day.
type ShiftKind string

const (
	ShiftDay     ShiftKind = "day"
	ShiftNight   ShiftKind = "night"
	ShiftEvening ShiftKind = "evening"
	ShiftOff     ShiftKind = "off"
)

// Label returns the display name for the shift kind.
func (k ShiftKind) Label() string {
	switch k {
	case ShiftDay:
		return "Day shift"
	case ShiftNight:
		return "Night shift"
	case ShiftEvening:
		return "Evening shift"
	case ShiftOff:
		return "Off"
	}
	return string(k)
}

// Icon returns the icon token shown next to the shift kind.
func (k ShiftKind) Icon() string {
	switch k {
	case ShiftDay:
		return "🌞"
	case ShiftNight:
		return "🌙"
	case ShiftEvening:
		return "🌆"
	case ShiftOff:
		return "⚪"
	}
	return "⚪"
}

// IsWorking reports whether the kind is a working day.
func (k ShiftKind) IsWorking() bool {
	return k != ShiftOff && k != ""
}

// DefaultWindow returns the default time window for the shift kind.
func (k ShiftKind) DefaultWindow() ShiftWindow {
	switch k {
	case ShiftDay:
		return ShiftWindow{Start: ClockTime{Hour: 9}, End: ClockTime{Hour: 21}}
	case ShiftNight:
		return ShiftWindow{Start: ClockTime{Hour: 21}, End: ClockTime{Hour: 9}}
	case ShiftEvening:
		return ShiftWindow{Start: ClockTime{Hour: 15}, End: ClockTime{Hour: 23}}
	}
	return ShiftWindow{}
}

// ShiftPattern is a fixed-length repeating cycle of shift kinds
// anchored to a start date on the schedule that uses it.
type ShiftPattern struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Cycle       []ShiftKind `json:"cycle"`
}

// NewShiftPattern builds a pattern with a non-empty cycle.
func NewShiftPattern(id, name string, cycle []ShiftKind) (ShiftPattern, error) {
	if strings.TrimSpace(id) == "" {
		return ShiftPattern{}, fmt.Errorf("pattern id cannot be empty")
	}
	if len(cycle) == 0 {
		return ShiftPattern{}, fmt.Errorf("pattern cycle cannot be empty")
	}
	return ShiftPattern{ID: id, Name: name, Cycle: append([]ShiftKind(nil), cycle...)}, nil
}

// CycleLength returns the number of days in one cycle.
func (p ShiftPattern) CycleLength() int {
	return len(p.Cycle)
}

// ShiftAt resolves the shift kind for a day offset from the anchor.
// Negative offsets (days before the anchor) are valid: the index uses
// floor modulo so the cycle extends backwards in time as well.
// A zero-length cycle resolves every day to Off.
func (p ShiftPattern) ShiftAt(daysSinceAnchor int) ShiftKind {
	n := len(p.Cycle)
	if n == 0 {
		return ShiftOff
	}
	idx := ((daysSinceAnchor % n) + n) % n
	return p.Cycle[idx]
}

// WorkingKinds returns the distinct working kinds appearing in the cycle.
func (p ShiftPattern) WorkingKinds() []ShiftKind {
	seen := make(map[ShiftKind]bool)
	var kinds []ShiftKind
	for _, k := range p.Cycle {
		if k.IsWorking() && !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Preset patterns matching the classic two/three/four-shift rotations.
// Custom cycles are ordinary ShiftPattern values built from user input.
var (
	PatternTwoShift = ShiftPattern{
		ID:          "two-shift",
		Name:        "2-shift",
		Description: "2 days on, 2 days off",
		Cycle:       []ShiftKind{ShiftDay, ShiftDay, ShiftOff, ShiftOff},
	}
	PatternThreeShift = ShiftPattern{
		ID:          "three-shift",
		Name:        "3-shift",
		Description: "2 day, 2 night, 2 off",
		Cycle:       []ShiftKind{ShiftDay, ShiftDay, ShiftNight, ShiftNight, ShiftOff, ShiftOff},
	}
	PatternFourShift = ShiftPattern{
		ID:          "four-shift",
		Name:        "4-shift",
		Description: "2 day, 2 night, 2 evening, 2 off",
		Cycle:       []ShiftKind{ShiftDay, ShiftDay, ShiftNight, ShiftNight, ShiftEvening, ShiftEvening, ShiftOff, ShiftOff},
	}
)

// PresetPatterns returns the built-in rotations.
func PresetPatterns() []ShiftPattern {
	return []ShiftPattern{PatternTwoShift, PatternThreeShift, PatternFourShift}
}
