package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 9, Minute: 30}, c)
	assert.Equal(t, "09:30", c.String())
	assert.Equal(t, 570, c.Minutes())

	short, err := ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 9, Minute: 5}, short)

	// Trailing characters are not silently ignored.
	for _, bad := range []string{"24:00", "12:60", "-1:00", "noon", "9:30:59", "9:30xx"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockTime_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(ClockTime{Hour: 21, Minute: 5})
	require.NoError(t, err)
	assert.Equal(t, `"21:05"`, string(data))

	var c ClockTime
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, ClockTime{Hour: 21, Minute: 5}, c)
}

func TestShiftWindow_Bounds(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	w := ShiftWindow{Start: ClockTime{Hour: 9}, End: ClockTime{Hour: 21}}
	assert.False(t, w.Overnight())
	start, end := w.Bounds(day)
	assert.Equal(t, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC), end)

	// End clock before start clock: window ends the next day.
	night := ShiftWindow{Start: ClockTime{Hour: 21}, End: ClockTime{Hour: 9}}
	assert.True(t, night.Overnight())
	start, end = night.Bounds(day)
	assert.Equal(t, time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC), end)

	// start == end is an empty window, not a 24h one.
	empty := ShiftWindow{Start: ClockTime{Hour: 9}, End: ClockTime{Hour: 9}}
	assert.False(t, empty.Overnight())
	start, end = empty.Bounds(day)
	assert.Equal(t, start, end)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(a, time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, DaysBetween(a, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 7, DaysBetween(a, time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, DaysBetween(a, time.Date(2024, 6, 2, 23, 59, 0, 0, time.UTC)))
}

func TestShiftSchedule_Validate(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	s := NewShiftSchedule(PatternThreeShift, anchor)
	require.NoError(t, s.Validate())

	// Off needs no window.
	delete(s.Windows, ShiftOff)
	require.NoError(t, s.Validate())

	delete(s.Windows, ShiftNight)
	assert.Error(t, s.Validate())
}

func TestPreview(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	s := NewShiftSchedule(PatternTwoShift, anchor)

	days := s.Preview(anchor, 4)
	require.Len(t, days, 4)
	assert.Equal(t, ShiftDay, days[0].Kind)
	assert.Equal(t, ShiftDay, days[1].Kind)
	assert.Equal(t, ShiftOff, days[2].Kind)
	assert.Equal(t, ShiftOff, days[3].Kind)

	assert.Empty(t, s.Preview(anchor, 0))
}
