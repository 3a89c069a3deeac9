// Package service owns the schedule/alarm aggregates. Every mutation
// runs sequentially against the in-memory state, persists, then kicks
// a reconciliation pass; passes themselves are single-flight.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shiftwell/shiftwell/internal/domain"
	"github.com/shiftwell/shiftwell/internal/expand"
	"github.com/shiftwell/shiftwell/internal/notify"
	"github.com/shiftwell/shiftwell/internal/storage"
)

// WorkMode selects which aggregate an alarm mutation targets.
type WorkMode string

const (
	ModeRegular WorkMode = "regular"
	ModeShift   WorkMode = "shift"
)

// Planner is the aggregate root over both work modes. It is the single
// logical owner of the alarm lists and schedules; the notification
// queue is external state it reconciles but does not own.
type Planner struct {
	store       *storage.Storage
	reconciler  *notify.Reconciler
	logger      *zap.Logger
	horizonDays int
	now         func() time.Time

	mu              sync.Mutex
	regularAlarms   []domain.Alarm
	shiftAlarms     []domain.Alarm
	regularSchedule domain.RegularSchedule
	shiftSchedule   domain.ShiftSchedule
	settings        domain.Settings

	// single-flight reconciliation state
	runMu   sync.Mutex
	running bool
	dirty   bool
	resync  bool
}

// New loads all persisted aggregates and returns the planner.
func New(store *storage.Storage, reconciler *notify.Reconciler, horizonDays int, logger *zap.Logger) (*Planner, error) {
	p := &Planner{
		store:       store,
		reconciler:  reconciler,
		logger:      logger,
		horizonDays: horizonDays,
		now:         time.Now,
	}

	var err error
	if p.regularAlarms, err = store.LoadRegularAlarms(); err != nil {
		return nil, fmt.Errorf("load regular alarms: %w", err)
	}
	if p.shiftAlarms, err = store.LoadShiftAlarms(); err != nil {
		return nil, fmt.Errorf("load shift alarms: %w", err)
	}
	if p.regularSchedule, err = store.LoadRegularSchedule(); err != nil {
		return nil, fmt.Errorf("load regular schedule: %w", err)
	}
	if p.shiftSchedule, err = store.LoadShiftSchedule(); err != nil {
		return nil, fmt.Errorf("load shift schedule: %w", err)
	}
	if p.settings, err = store.LoadSettings(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return p, nil
}

// SetClock overrides the planner's clock.
func (p *Planner) SetClock(now func() time.Time) {
	p.now = now
	p.reconciler.SetClock(now)
}

// === Alarm commands ===

// checkMode rejects alarm rules the aggregate cannot expand. Interval
// rules bind to the shift schedule; the regular aggregate has no shift
// windows to expand them against.
func checkMode(mode WorkMode, alarm domain.Alarm) error {
	if mode == ModeRegular && alarm.Mode == domain.ModeInterval {
		return fmt.Errorf("interval alarm %s requires the shift work mode", alarm.ID)
	}
	return nil
}

func (p *Planner) AddAlarm(mode WorkMode, alarm domain.Alarm) error {
	if err := alarm.Validate(); err != nil {
		return err
	}
	if err := checkMode(mode, alarm); err != nil {
		return err
	}
	err := p.mutateAlarms(mode, func(alarms []domain.Alarm) ([]domain.Alarm, error) {
		return append(alarms, alarm), nil
	})
	if err != nil {
		return err
	}
	p.Kick()
	return nil
}

func (p *Planner) UpdateAlarm(mode WorkMode, alarm domain.Alarm) error {
	if err := alarm.Validate(); err != nil {
		return err
	}
	if err := checkMode(mode, alarm); err != nil {
		return err
	}
	err := p.mutateAlarms(mode, func(alarms []domain.Alarm) ([]domain.Alarm, error) {
		for i := range alarms {
			if alarms[i].ID == alarm.ID {
				alarms[i] = alarm
				return alarms, nil
			}
		}
		return nil, fmt.Errorf("alarm %s not found", alarm.ID)
	})
	if err != nil {
		return err
	}
	p.Kick()
	return nil
}

func (p *Planner) ToggleAlarm(mode WorkMode, alarmID string) error {
	err := p.mutateAlarms(mode, func(alarms []domain.Alarm) ([]domain.Alarm, error) {
		for i := range alarms {
			if alarms[i].ID == alarmID {
				alarms[i].Enabled = !alarms[i].Enabled
				return alarms, nil
			}
		}
		return nil, fmt.Errorf("alarm %s not found", alarmID)
	})
	if err != nil {
		return err
	}
	p.Kick()
	return nil
}

func (p *Planner) DeleteAlarm(mode WorkMode, alarmID string) error {
	err := p.mutateAlarms(mode, func(alarms []domain.Alarm) ([]domain.Alarm, error) {
		for i := range alarms {
			if alarms[i].ID == alarmID {
				return append(alarms[:i], alarms[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("alarm %s not found", alarmID)
	})
	if err != nil {
		return err
	}
	p.Kick()
	return nil
}

func (p *Planner) DeleteAllAlarms(mode WorkMode) error {
	err := p.mutateAlarms(mode, func([]domain.Alarm) ([]domain.Alarm, error) {
		return nil, nil
	})
	if err != nil {
		return err
	}
	p.Kick()
	return nil
}

// mutateAlarms applies fn to the mode's alarm list and persists the
// result. On save failure the in-memory state is rolled back so the
// caller can retry without corruption.
func (p *Planner) mutateAlarms(mode WorkMode, fn func([]domain.Alarm) ([]domain.Alarm, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch mode {
	case ModeRegular:
		next, err := fn(append([]domain.Alarm(nil), p.regularAlarms...))
		if err != nil {
			return err
		}
		if err := p.store.SaveRegularAlarms(next); err != nil {
			return err
		}
		p.regularAlarms = next
	case ModeShift:
		next, err := fn(append([]domain.Alarm(nil), p.shiftAlarms...))
		if err != nil {
			return err
		}
		if err := p.store.SaveShiftAlarms(next); err != nil {
			return err
		}
		p.shiftAlarms = next
	default:
		return fmt.Errorf("unknown work mode %q", mode)
	}
	return nil
}

// Alarms returns a copy of the mode's alarm list.
func (p *Planner) Alarms(mode WorkMode) []domain.Alarm {
	p.mu.Lock()
	defer p.mu.Unlock()
	if mode == ModeRegular {
		return append([]domain.Alarm(nil), p.regularAlarms...)
	}
	return append([]domain.Alarm(nil), p.shiftAlarms...)
}

// AllAlarms returns alarms across both modes, for purpose joins.
func (p *Planner) AllAlarms() []domain.Alarm {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]domain.Alarm(nil), p.regularAlarms...)
	return append(out, p.shiftAlarms...)
}

// === Schedule commands ===

// UpdateShiftSchedule replaces the shift schedule wholesale and forces
// a full clear-and-resubmit on the next pass.
func (p *Planner) UpdateShiftSchedule(sched domain.ShiftSchedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	if err := p.store.SaveShiftSchedule(sched); err != nil {
		p.mu.Unlock()
		return err
	}
	p.shiftSchedule = sched
	p.mu.Unlock()

	p.markResync()
	p.Kick()
	return nil
}

func (p *Planner) UpdateRegularSchedule(sched domain.RegularSchedule) error {
	p.mu.Lock()
	if err := p.store.SaveRegularSchedule(sched); err != nil {
		p.mu.Unlock()
		return err
	}
	p.regularSchedule = sched
	p.mu.Unlock()

	p.markResync()
	p.Kick()
	return nil
}

func (p *Planner) ShiftSchedule() domain.ShiftSchedule {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shiftSchedule
}

func (p *Planner) RegularSchedule() domain.RegularSchedule {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regularSchedule
}

// SchedulePreview resolves the shift calendar for the next days.
func (p *Planner) SchedulePreview(days int) []domain.DayShift {
	return p.ShiftSchedule().Preview(p.now(), days)
}

// === Settings ===

func (p *Planner) Settings() domain.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

func (p *Planner) UpdateSettings(settings domain.Settings) error {
	p.mu.Lock()
	if err := p.store.SaveSettings(settings); err != nil {
		p.mu.Unlock()
		return err
	}
	p.settings = settings
	p.mu.Unlock()

	p.Kick()
	return nil
}

// NotificationsEnabled feeds the authorization gate.
func (p *Planner) NotificationsEnabled() bool {
	return p.Settings().NotificationsEnabled
}

// === Outcome records ===

// OnFired records the outcome of a fired queue entry; an undelivered
// (stale) firing still counts as a missed reminder.
func (p *Planner) OnFired(alarmID string, scheduledAt time.Time, delivered bool) {
	if err := p.store.AppendRecord(domain.NewReminderRecord(alarmID, scheduledAt)); err != nil {
		p.logger.Error("append reminder record",
			zap.String("alarm_id", alarmID),
			zap.Error(err),
		)
	}
	if !delivered {
		p.logger.Info("reminder recorded as missed",
			zap.String("alarm_id", alarmID),
			zap.Time("scheduled", scheduledAt),
		)
	}
}

// Acknowledge completes the record for one fired reminder.
func (p *Planner) Acknowledge(alarmID string, scheduledAt, ackedAt time.Time) error {
	return p.store.AcknowledgeRecord(alarmID, scheduledAt, ackedAt)
}

func (p *Planner) Records() ([]domain.ReminderRecord, error) {
	return p.store.LoadRecords()
}

func (p *Planner) DeleteAllRecords() error {
	return p.store.DeleteAllRecords()
}

// ClearAllData wipes every aggregate and the notification queue.
func (p *Planner) ClearAllData() error {
	p.mu.Lock()
	if err := p.store.ClearAll(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.regularAlarms = nil
	p.shiftAlarms = nil
	p.regularSchedule = domain.DefaultRegularSchedule()
	p.shiftSchedule = domain.NewShiftSchedule(domain.PatternTwoShift, p.now())
	p.settings = domain.DefaultSettings()
	p.mu.Unlock()
	return nil
}

// === Reconciliation ===

// Desired computes the full desired reminder set across both modes,
// merged in ascending time order. An alarm whose rule fails to expand
// is skipped with a warning, so one bad stored rule never starves the
// reminders of every other alarm.
func (p *Planner) Desired() []domain.ReminderInstant {
	p.mu.Lock()
	regular := append([]domain.Alarm(nil), p.regularAlarms...)
	shift := append([]domain.Alarm(nil), p.shiftAlarms...)
	sched := p.shiftSchedule
	p.mu.Unlock()

	now := p.now()
	out := p.expandSet(regular, nil, now)
	out = append(out, p.expandSet(shift, &sched, now)...)
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func (p *Planner) expandSet(alarms []domain.Alarm, sched *domain.ShiftSchedule, now time.Time) []domain.ReminderInstant {
	var out []domain.ReminderInstant
	for _, a := range alarms {
		if !a.Enabled {
			continue
		}
		instants, err := expand.Expand(a, sched, now, p.horizonDays)
		if err != nil {
			p.logger.Warn("skipping unexpandable alarm",
				zap.String("alarm_id", a.ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, instants...)
	}
	return out
}

func (p *Planner) payloadFor(in domain.ReminderInstant) notify.Payload {
	purpose := domain.Purpose("")
	for _, a := range p.AllAlarms() {
		if a.ID == in.AlarmID {
			purpose = a.Purpose
			break
		}
	}
	return notify.Payload{
		Title:   "ShiftWell",
		Body:    fmt.Sprintf("%s %s", purpose.Icon(), purpose.Label()),
		AlarmID: in.AlarmID,
	}
}

// Kick schedules a reconciliation pass. A pass already in flight marks
// the state dirty and re-runs when it finishes, so the last mutation
// always wins; stale submissions from an earlier pass are removed by
// the later pass's diff.
func (p *Planner) Kick() {
	p.runMu.Lock()
	if p.running {
		p.dirty = true
		p.runMu.Unlock()
		return
	}
	p.running = true
	p.runMu.Unlock()

	go func() {
		for {
			p.runPass(context.Background())

			p.runMu.Lock()
			if !p.dirty {
				p.running = false
				p.runMu.Unlock()
				return
			}
			p.dirty = false
			p.runMu.Unlock()
		}
	}()
}

func (p *Planner) markResync() {
	p.runMu.Lock()
	p.resync = true
	p.runMu.Unlock()
}

// ReconcileNow runs one synchronous pass. Scheduler jobs use this for
// the rolling horizon refresh.
func (p *Planner) ReconcileNow(ctx context.Context) error {
	res, err := p.reconciler.Reconcile(ctx, p.Desired(), p.payloadFor)
	if err != nil {
		return err
	}
	p.logResult(res)
	return nil
}

func (p *Planner) runPass(ctx context.Context) {
	desired := p.Desired()

	p.runMu.Lock()
	full := p.resync
	p.resync = false
	p.runMu.Unlock()

	var res notify.Result
	var err error
	if full {
		res, err = p.reconciler.Resync(ctx, desired, p.payloadFor)
	} else {
		res, err = p.reconciler.Reconcile(ctx, desired, p.payloadFor)
	}
	if err != nil {
		// Desired state is still the source of truth; the next pass retries.
		p.logger.Error("reconcile notifications", zap.Error(err))
		return
	}
	p.logResult(res)
}

func (p *Planner) logResult(res notify.Result) {
	p.logger.Info("reconciled notifications",
		zap.Int("added", res.Added),
		zap.Int("removed", res.Removed),
		zap.Int("dropped", res.Dropped),
		zap.Int("failed", res.Failed),
	)
}
