package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReminderInstant is one concrete future firing of an alarm. It is the
// reconciliation key between the desired reminder set and the
// outstanding notification queue, never persisted on its own.
type ReminderInstant struct {
	AlarmID string
	At      time.Time
}

// Identifier returns the stable notification identifier for the
// instant. Deterministic from (alarm, time) so repeated reconciliation
// passes produce the same identifier.
func (r ReminderInstant) Identifier() string {
	return fmt.Sprintf("%s-%d", r.AlarmID, r.At.Unix())
}

// ReminderRecord is the persisted outcome of one fired reminder.
// ActualAt is nil until the reminder is acknowledged; a record that
// stays unacknowledged counts as missed.
type ReminderRecord struct {
	ID          string     `json:"id"`
	AlarmID     string     `json:"alarm_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	ActualAt    *time.Time `json:"actual_at,omitempty"`
	Completed   bool       `json:"completed"`
}

// NewReminderRecord builds an unacknowledged record for a fired reminder.
func NewReminderRecord(alarmID string, scheduledAt time.Time) ReminderRecord {
	return ReminderRecord{
		ID:          uuid.New().String(),
		AlarmID:     alarmID,
		ScheduledAt: scheduledAt,
	}
}

// Acknowledge marks the record completed at the given time.
func (r *ReminderRecord) Acknowledge(at time.Time) {
	r.ActualAt = &at
	r.Completed = true
}

// DelayMinutes returns how many whole minutes after the scheduled time
// the reminder was acknowledged. ok is false when unacknowledged.
func (r ReminderRecord) DelayMinutes() (int, bool) {
	if r.ActualAt == nil {
		return 0, false
	}
	return int(r.ActualAt.Sub(r.ScheduledAt).Minutes()), true
}

// Settings are app-wide preferences the presentation layer edits.
type Settings struct {
	NotificationsEnabled bool      `json:"notifications_enabled"`
	SoundEnabled         bool      `json:"sound_enabled"`
	VibrationEnabled     bool      `json:"vibration_enabled"`
	DefaultStart         ClockTime `json:"default_start"`
	DefaultEnd           ClockTime `json:"default_end"`
}

// DefaultSettings returns the initial settings.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled: true,
		SoundEnabled:         true,
		VibrationEnabled:     true,
		DefaultStart:         ClockTime{Hour: 9},
		DefaultEnd:           ClockTime{Hour: 18},
	}
}
