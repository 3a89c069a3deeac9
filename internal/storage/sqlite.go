// Package storage persists the app's aggregates as keyed JSON
// documents in sqlite, plus the outstanding notification queue.
// Loads fall back to defaults when a document is missing or corrupt;
// save failures surface to the caller.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shiftwell/shiftwell/internal/domain"
	"github.com/shiftwell/shiftwell/internal/notify"

	_ "github.com/mattn/go-sqlite3"
)

// Document keys, one per persisted aggregate.
const (
	KeyRegularAlarms   = "regular_alarms"
	KeyShiftAlarms     = "shift_alarms"
	KeyRegularSchedule = "regular_work_schedule"
	KeyShiftSchedule   = "shift_work_schedule"
	KeyStatistics      = "statistics"
	KeySettings        = "settings"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS pending_notifications (
			identifier TEXT PRIMARY KEY,
			alarm_id TEXT NOT NULL,
			trigger_at INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_trigger ON pending_notifications(trigger_at)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_alarm ON pending_notifications(alarm_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

// === Documents ===

func (s *Storage) saveDoc(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO documents (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// loadDoc fills dest from the stored document. Returns false when the
// document is absent or does not decode; the caller falls back to its
// default value in that case.
func (s *Storage) loadDoc(key string, dest any) (bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *Storage) deleteDoc(key string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE key = ?`, key)
	return err
}

// === Alarms ===

func (s *Storage) SaveRegularAlarms(alarms []domain.Alarm) error {
	return s.saveDoc(KeyRegularAlarms, alarms)
}

func (s *Storage) LoadRegularAlarms() ([]domain.Alarm, error) {
	return s.loadAlarms(KeyRegularAlarms)
}

func (s *Storage) SaveShiftAlarms(alarms []domain.Alarm) error {
	return s.saveDoc(KeyShiftAlarms, alarms)
}

func (s *Storage) LoadShiftAlarms() ([]domain.Alarm, error) {
	return s.loadAlarms(KeyShiftAlarms)
}

func (s *Storage) loadAlarms(key string) ([]domain.Alarm, error) {
	var alarms []domain.Alarm
	if _, err := s.loadDoc(key, &alarms); err != nil {
		return nil, err
	}
	return alarms, nil
}

// === Schedules ===

func (s *Storage) SaveRegularSchedule(sched domain.RegularSchedule) error {
	return s.saveDoc(KeyRegularSchedule, sched)
}

func (s *Storage) LoadRegularSchedule() (domain.RegularSchedule, error) {
	sched := domain.DefaultRegularSchedule()
	if _, err := s.loadDoc(KeyRegularSchedule, &sched); err != nil {
		return domain.DefaultRegularSchedule(), err
	}
	return sched, nil
}

func (s *Storage) SaveShiftSchedule(sched domain.ShiftSchedule) error {
	return s.saveDoc(KeyShiftSchedule, sched)
}

// LoadShiftSchedule falls back to the two-shift preset anchored today.
func (s *Storage) LoadShiftSchedule() (domain.ShiftSchedule, error) {
	var sched domain.ShiftSchedule
	found, err := s.loadDoc(KeyShiftSchedule, &sched)
	if err != nil {
		return domain.ShiftSchedule{}, err
	}
	if !found {
		return domain.NewShiftSchedule(domain.PatternTwoShift, time.Now()), nil
	}
	return sched, nil
}

// === Settings ===

func (s *Storage) SaveSettings(settings domain.Settings) error {
	return s.saveDoc(KeySettings, settings)
}

func (s *Storage) LoadSettings() (domain.Settings, error) {
	settings := domain.DefaultSettings()
	if _, err := s.loadDoc(KeySettings, &settings); err != nil {
		return domain.DefaultSettings(), err
	}
	return settings, nil
}

// === Reminder records ===

func (s *Storage) SaveRecords(records []domain.ReminderRecord) error {
	return s.saveDoc(KeyStatistics, records)
}

func (s *Storage) LoadRecords() ([]domain.ReminderRecord, error) {
	var records []domain.ReminderRecord
	if _, err := s.loadDoc(KeyStatistics, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// AppendRecord adds one outcome record to the statistics document.
func (s *Storage) AppendRecord(record domain.ReminderRecord) error {
	records, err := s.LoadRecords()
	if err != nil {
		return err
	}
	return s.SaveRecords(append(records, record))
}

// AcknowledgeRecord completes the record matching (alarm, scheduled).
// A record is created on the spot when the firing was never persisted,
// so a late acknowledgement still counts.
func (s *Storage) AcknowledgeRecord(alarmID string, scheduledAt, ackedAt time.Time) error {
	records, err := s.LoadRecords()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].AlarmID == alarmID && records[i].ScheduledAt.Equal(scheduledAt) {
			records[i].Acknowledge(ackedAt)
			return s.SaveRecords(records)
		}
	}
	record := domain.NewReminderRecord(alarmID, scheduledAt)
	record.Acknowledge(ackedAt)
	return s.SaveRecords(append(records, record))
}

func (s *Storage) DeleteAllRecords() error {
	return s.deleteDoc(KeyStatistics)
}

// ClearAll wipes every persisted document and the pending queue.
func (s *Storage) ClearAll() error {
	for _, key := range []string{KeyRegularAlarms, KeyShiftAlarms, KeyRegularSchedule, KeyShiftSchedule, KeyStatistics, KeySettings} {
		if err := s.deleteDoc(key); err != nil {
			return err
		}
	}
	return s.DeleteAllPending()
}

// === Pending notification queue (notify.PendingStore) ===

func (s *Storage) InsertPending(req notify.PendingRequest) error {
	_, err := s.db.Exec(
		`INSERT INTO pending_notifications (identifier, alarm_id, trigger_at, title, body) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(identifier) DO UPDATE SET trigger_at = excluded.trigger_at, title = excluded.title, body = excluded.body`,
		req.Identifier, req.AlarmID, req.TriggerAt.Unix(), req.Title, req.Body,
	)
	return err
}

func (s *Storage) DeletePending(identifiers []string) error {
	if len(identifiers) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(identifiers))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(identifiers))
	for i, id := range identifiers {
		args[i] = id
	}
	_, err := s.db.Exec(
		`DELETE FROM pending_notifications WHERE identifier IN (`+placeholders+`)`, args...,
	)
	return err
}

func (s *Storage) DeleteAllPending() error {
	_, err := s.db.Exec(`DELETE FROM pending_notifications`)
	return err
}

func (s *Storage) ListPending() ([]notify.PendingRequest, error) {
	return s.queryPending(`SELECT identifier, alarm_id, trigger_at, title, body FROM pending_notifications ORDER BY trigger_at`)
}

func (s *Storage) ListDuePending(now time.Time) ([]notify.PendingRequest, error) {
	return s.queryPending(
		`SELECT identifier, alarm_id, trigger_at, title, body FROM pending_notifications WHERE trigger_at <= ? ORDER BY trigger_at`,
		now.Unix(),
	)
}

func (s *Storage) queryPending(query string, args ...any) ([]notify.PendingRequest, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []notify.PendingRequest
	for rows.Next() {
		var req notify.PendingRequest
		var trigger int64
		if err := rows.Scan(&req.Identifier, &req.AlarmID, &trigger, &req.Title, &req.Body); err != nil {
			return nil, err
		}
		req.TriggerAt = time.Unix(trigger, 0)
		pending = append(pending, req)
	}
	return pending, rows.Err()
}
