package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftAt_FloorModulo(t *testing.T) {
	p := ShiftPattern{ID: "p", Cycle: []ShiftKind{ShiftDay, ShiftNight, ShiftOff}}

	assert.Equal(t, ShiftDay, p.ShiftAt(0))
	assert.Equal(t, ShiftNight, p.ShiftAt(1))
	assert.Equal(t, ShiftOff, p.ShiftAt(2))
	assert.Equal(t, ShiftDay, p.ShiftAt(3))

	// Days before the anchor wrap backwards, never a negative index.
	assert.Equal(t, ShiftOff, p.ShiftAt(-1))
	assert.Equal(t, ShiftNight, p.ShiftAt(-2))
	assert.Equal(t, ShiftDay, p.ShiftAt(-3))
	assert.Equal(t, ShiftOff, p.ShiftAt(-4))
}

func TestShiftAt_ZeroLengthCycle(t *testing.T) {
	p := ShiftPattern{ID: "empty"}
	for _, d := range []int{-100, -1, 0, 1, 100} {
		assert.Equal(t, ShiftOff, p.ShiftAt(d))
	}
}

func TestNewShiftPattern_RejectsEmptyCycle(t *testing.T) {
	_, err := NewShiftPattern("p", "P", nil)
	assert.Error(t, err)

	_, err = NewShiftPattern("", "P", []ShiftKind{ShiftDay})
	assert.Error(t, err)

	p, err := NewShiftPattern("p", "P", []ShiftKind{ShiftDay, ShiftOff})
	require.NoError(t, err)
	assert.Equal(t, 2, p.CycleLength())
}

func TestPresetPatterns(t *testing.T) {
	presets := PresetPatterns()
	require.Len(t, presets, 3)

	assert.Equal(t, 4, PatternTwoShift.CycleLength())
	assert.Equal(t, 6, PatternThreeShift.CycleLength())
	assert.Equal(t, 8, PatternFourShift.CycleLength())

	// Four-shift rotation: 2 day, 2 night, 2 evening, 2 off.
	assert.Equal(t, ShiftDay, PatternFourShift.ShiftAt(0))
	assert.Equal(t, ShiftNight, PatternFourShift.ShiftAt(2))
	assert.Equal(t, ShiftEvening, PatternFourShift.ShiftAt(4))
	assert.Equal(t, ShiftOff, PatternFourShift.ShiftAt(6))
}

func TestWorkingKinds(t *testing.T) {
	kinds := PatternThreeShift.WorkingKinds()
	assert.Equal(t, []ShiftKind{ShiftDay, ShiftNight}, kinds)
}

func TestShiftOn_UsesCalendarDays(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	s := NewShiftSchedule(PatternTwoShift, anchor)

	// Time-of-day on the reference date is irrelevant.
	assert.Equal(t, ShiftDay, s.ShiftOn(time.Date(2024, 6, 3, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, ShiftDay, s.ShiftOn(time.Date(2024, 6, 4, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, ShiftOff, s.ShiftOn(time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, ShiftOff, s.ShiftOn(time.Date(2024, 6, 6, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, ShiftDay, s.ShiftOn(time.Date(2024, 6, 7, 12, 0, 0, 0, time.UTC)))

	// Before the anchor the cycle extends backwards.
	assert.Equal(t, ShiftOff, s.ShiftOn(time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)))
}
