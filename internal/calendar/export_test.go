package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwell/shiftwell/internal/domain"
)

var calNow = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func TestShiftCalendar_WorkingDaysOnly(t *testing.T) {
	sched := domain.NewShiftSchedule(domain.PatternTwoShift, calNow)

	cal := ShiftCalendar(sched, calNow, 4)
	// Two working days out of the four-day cycle.
	require.Len(t, cal.Children, 2)

	ics, err := Encode(cal)
	require.NoError(t, err)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "PRODID:"+productID)
	assert.Contains(t, ics, DayUID(calNow))
	assert.Contains(t, ics, DayUID(calNow.AddDate(0, 0, 1)))
	assert.NotContains(t, ics, DayUID(calNow.AddDate(0, 0, 2)))
}

func TestDayUID_Stable(t *testing.T) {
	assert.Equal(t, "shift-20240603@shiftwell", DayUID(calNow))
	// Time of day never leaks into the UID.
	assert.Equal(t, DayUID(calNow), DayUID(calNow.Add(13*time.Hour)))
}

func TestDayCalendar(t *testing.T) {
	cal := DayCalendar(domain.DayShift{Date: calNow, Kind: domain.ShiftNight})
	require.Len(t, cal.Children, 1)

	ics, err := Encode(cal)
	require.NoError(t, err)
	assert.Contains(t, ics, domain.ShiftNight.Label())
}

func TestReminderCalendar(t *testing.T) {
	alarm := domain.Alarm{ID: "a1", Purpose: domain.PurposeWater}
	instants := []domain.ReminderInstant{
		{AlarmID: "a1", At: calNow.Add(9 * time.Hour)},
		{AlarmID: "a1", At: calNow.Add(11 * time.Hour)},
		{AlarmID: "unknown", At: calNow.Add(13 * time.Hour)},
	}

	cal := ReminderCalendar(instants, []domain.Alarm{alarm}, 5*time.Minute)
	require.Len(t, cal.Children, 3)

	ics, err := Encode(cal)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(ics, domain.PurposeWater.Label()))
	assert.Contains(t, ics, instants[0].Identifier()+"@shiftwell")
}
