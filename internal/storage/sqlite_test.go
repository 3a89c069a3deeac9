package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwell/shiftwell/internal/domain"
	"github.com/shiftwell/shiftwell/internal/notify"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAlarmsRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	// Nothing stored yet.
	alarms, err := s.LoadRegularAlarms()
	require.NoError(t, err)
	assert.Empty(t, alarms)

	weekday, err := domain.NewWeekdayAlarm(domain.PurposeWater, domain.ClockTime{Hour: 9, Minute: 30}, domain.DefaultWorkWeek())
	require.NoError(t, err)
	interval, err := domain.NewIntervalAlarm(domain.PurposeStretch, 2, 15)
	require.NoError(t, err)

	require.NoError(t, s.SaveRegularAlarms([]domain.Alarm{weekday}))
	require.NoError(t, s.SaveShiftAlarms([]domain.Alarm{interval}))

	regular, err := s.LoadRegularAlarms()
	require.NoError(t, err)
	require.Len(t, regular, 1)
	assert.Equal(t, weekday.ID, regular[0].ID)
	assert.Equal(t, weekday.Time, regular[0].Time)
	assert.Equal(t, weekday.WeekDays, regular[0].WeekDays)

	shift, err := s.LoadShiftAlarms()
	require.NoError(t, err)
	require.Len(t, shift, 1)
	assert.Equal(t, interval.IntervalHours, shift[0].IntervalHours)
	assert.Equal(t, interval.OffsetMinutes, shift[0].OffsetMinutes)

	// The two alarm lists are independent documents.
	require.NoError(t, s.SaveShiftAlarms(nil))
	regular, err = s.LoadRegularAlarms()
	require.NoError(t, err)
	assert.Len(t, regular, 1)
}

func TestShiftScheduleRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	// Absent document falls back to the two-shift preset.
	sched, err := s.LoadShiftSchedule()
	require.NoError(t, err)
	assert.Equal(t, domain.PatternTwoShift.ID, sched.Pattern.ID)

	anchor := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	custom := domain.NewShiftSchedule(domain.PatternThreeShift, anchor)
	require.NoError(t, s.SaveShiftSchedule(custom))

	loaded, err := s.LoadShiftSchedule()
	require.NoError(t, err)
	assert.Equal(t, custom.Pattern.ID, loaded.Pattern.ID)
	assert.True(t, loaded.Anchor.Equal(anchor))
	assert.Equal(t, custom.Windows[domain.ShiftNight], loaded.Windows[domain.ShiftNight])
}

func TestCorruptDocumentFallsBackToDefault(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.db.Exec(`INSERT INTO documents (key, value) VALUES (?, ?)`, KeySettings, "{not json")
	require.NoError(t, err)

	settings, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	settings := domain.DefaultSettings()
	settings.NotificationsEnabled = false
	settings.DefaultStart = domain.ClockTime{Hour: 7, Minute: 45}
	require.NoError(t, s.SaveSettings(settings))

	loaded, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestRecordsAppendAndAcknowledge(t *testing.T) {
	s := newTestStorage(t)
	scheduled := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendRecord(domain.NewReminderRecord("alarm-1", scheduled)))

	records, err := s.LoadRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Completed)
	assert.Nil(t, records[0].ActualAt)

	acked := scheduled.Add(5 * time.Minute)
	require.NoError(t, s.AcknowledgeRecord("alarm-1", scheduled, acked))

	records, err = s.LoadRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Completed)
	delay, ok := records[0].DelayMinutes()
	require.True(t, ok)
	assert.Equal(t, 5, delay)

	// Acknowledging an unrecorded firing creates the record.
	other := scheduled.Add(2 * time.Hour)
	require.NoError(t, s.AcknowledgeRecord("alarm-2", other, other))
	records, err = s.LoadRecords()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[1].Completed)

	require.NoError(t, s.DeleteAllRecords())
	records, err = s.LoadRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPendingQueue(t *testing.T) {
	s := newTestStorage(t)
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	reqs := []notify.PendingRequest{
		{Identifier: "a-1", AlarmID: "a", TriggerAt: now.Add(2 * time.Hour), Title: "ShiftWell", Body: "later"},
		{Identifier: "a-2", AlarmID: "a", TriggerAt: now.Add(-time.Minute), Title: "ShiftWell", Body: "due"},
		{Identifier: "b-1", AlarmID: "b", TriggerAt: now.Add(time.Hour), Title: "ShiftWell", Body: "soon"},
	}
	for _, req := range reqs {
		require.NoError(t, s.InsertPending(req))
	}

	pending, err := s.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 3)
	// Ordered by trigger time.
	assert.Equal(t, "a-2", pending[0].Identifier)
	assert.Equal(t, "b-1", pending[1].Identifier)
	assert.Equal(t, "a-1", pending[2].Identifier)
	assert.True(t, pending[0].TriggerAt.Equal(now.Add(-time.Minute)))

	due, err := s.ListDuePending(now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "a-2", due[0].Identifier)
	assert.Equal(t, "due", due[0].Body)

	// Re-inserting the same identifier updates in place.
	require.NoError(t, s.InsertPending(notify.PendingRequest{
		Identifier: "a-1", AlarmID: "a", TriggerAt: now.Add(3 * time.Hour), Title: "ShiftWell", Body: "moved",
	}))
	pending, err = s.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 3)

	require.NoError(t, s.DeletePending([]string{"a-1", "a-2"}))
	pending, err = s.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b-1", pending[0].Identifier)

	require.NoError(t, s.DeletePending(nil))

	require.NoError(t, s.DeleteAllPending())
	pending, err = s.ListPending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestClearAll(t *testing.T) {
	s := newTestStorage(t)

	alarm, err := domain.NewIntervalAlarm(domain.PurposeCoffee, 3, 0)
	require.NoError(t, err)
	require.NoError(t, s.SaveShiftAlarms([]domain.Alarm{alarm}))
	require.NoError(t, s.AppendRecord(domain.NewReminderRecord(alarm.ID, time.Now())))
	require.NoError(t, s.InsertPending(notify.PendingRequest{Identifier: "x-1", AlarmID: "x", TriggerAt: time.Now()}))

	require.NoError(t, s.ClearAll())

	alarms, err := s.LoadShiftAlarms()
	require.NoError(t, err)
	assert.Empty(t, alarms)
	records, err := s.LoadRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
	pending, err := s.ListPending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
