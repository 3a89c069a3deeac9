package notify

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/shiftwell/shiftwell/internal/domain"
)

// DefaultCapacity matches the platform ceiling of ~64 outstanding
// one-shot notification requests.
const DefaultCapacity = 64

// DeliveryGrace is how long past its trigger a due entry remains
// deliverable. The delivery sweep, not the reconciliation diff, decides
// the outcome of entries inside this window: the diff leaves them in
// the queue so they are fired and recorded rather than cancelled.
const DeliveryGrace = 30 * time.Minute

// Plan is the diff between the desired reminder set and the
// outstanding queue. Dropped holds future instants that did not fit
// under the capacity; dropping is reported, never silent.
type Plan struct {
	ToAdd    []domain.ReminderInstant
	ToRemove []string
	Dropped  []domain.ReminderInstant
}

// Result summarizes one applied reconciliation pass.
type Result struct {
	Added   int
	Removed int
	Dropped int
	Failed  int
}

// BuildPlan computes the add/remove sets for one reconciliation pass.
//
// Instants older than DeliveryGrace at now are discarded. Due instants
// inside the grace window are kept: they stay in the queue (and are
// submitted when missing) so the delivery sweep fires and records them
// instead of a diff silently cancelling an almost-delivered reminder.
// When more future instants remain than capacity, the soonest-first
// subset is kept and the rest reported in Dropped. Outstanding
// identifiers that no longer belong to the kept set are scheduled for
// removal, which also sweeps out alarms that were deleted or disabled.
func BuildPlan(desired []domain.ReminderInstant, outstanding []string, now time.Time, capacity int) Plan {
	cutoff := now.Add(-DeliveryGrace)
	var future, due []domain.ReminderInstant
	seen := make(map[string]bool, len(desired))
	for _, in := range desired {
		if !in.At.After(cutoff) {
			continue
		}
		id := in.Identifier()
		if seen[id] {
			continue
		}
		seen[id] = true
		if in.At.After(now) {
			future = append(future, in)
		} else {
			due = append(due, in)
		}
	}
	sort.Slice(future, func(i, j int) bool { return future[i].At.Before(future[j].At) })
	sort.Slice(due, func(i, j int) bool { return due[i].At.Before(due[j].At) })

	var plan Plan
	kept := future
	if capacity >= 0 && len(future) > capacity {
		kept = future[:capacity]
		plan.Dropped = future[capacity:]
	}
	// Due entries are about to leave the queue through the sweep, so
	// they do not count against the capacity.
	keep := append(due, kept...)

	keepIDs := make(map[string]bool, len(keep))
	for _, in := range keep {
		keepIDs[in.Identifier()] = true
	}

	scheduled := make(map[string]bool, len(outstanding))
	for _, id := range outstanding {
		scheduled[id] = true
		if !keepIDs[id] {
			plan.ToRemove = append(plan.ToRemove, id)
		}
	}
	sort.Strings(plan.ToRemove)

	for _, in := range keep {
		if !scheduled[in.Identifier()] {
			plan.ToAdd = append(plan.ToAdd, in)
		}
	}
	return plan
}

// Reconciler applies plans against a notification API. Reconcile is
// idempotent: re-running with the same desired set and an unchanged
// queue submits and cancels nothing.
type Reconciler struct {
	api      API
	gate     Gate
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

func NewReconciler(api API, gate Gate, capacity int, logger *zap.Logger) *Reconciler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Reconciler{
		api:      api,
		gate:     gate,
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the reconciler's clock.
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// Reconcile diffs desired against the outstanding queue and applies
// the plan. payloadFor supplies the notification content per instant.
func (r *Reconciler) Reconcile(ctx context.Context, desired []domain.ReminderInstant, payloadFor func(domain.ReminderInstant) Payload) (Result, error) {
	outstanding, err := r.api.ListOutstanding(ctx)
	if err != nil {
		return Result{}, err
	}
	plan := BuildPlan(desired, outstanding, r.now(), r.capacity)
	return r.apply(ctx, plan, payloadFor)
}

// Resync clears the whole queue and resubmits from scratch. Used on
// coarse schedule changes; ends in the same state Reconcile would.
func (r *Reconciler) Resync(ctx context.Context, desired []domain.ReminderInstant, payloadFor func(domain.ReminderInstant) Payload) (Result, error) {
	if err := r.api.CancelAll(ctx); err != nil {
		return Result{}, err
	}
	plan := BuildPlan(desired, nil, r.now(), r.capacity)
	return r.apply(ctx, plan, payloadFor)
}

func (r *Reconciler) apply(ctx context.Context, plan Plan, payloadFor func(domain.ReminderInstant) Payload) (Result, error) {
	res := Result{Removed: len(plan.ToRemove), Dropped: len(plan.Dropped)}

	if len(plan.ToRemove) > 0 {
		if err := r.api.Cancel(ctx, plan.ToRemove); err != nil {
			return res, err
		}
	}

	if r.gate != nil && r.gate.Status() != AuthGranted {
		r.logger.Warn("notifications not authorized, skipping submissions",
			zap.Int("skipped", len(plan.ToAdd)),
		)
		return res, nil
	}

	for _, in := range plan.ToAdd {
		if err := r.api.Submit(ctx, in.Identifier(), in.At, payloadFor(in)); err != nil {
			// One failed add must not abort the batch; the desired
			// state stays the source of truth and the next pass retries.
			res.Failed++
			r.logger.Warn("submit notification failed",
				zap.String("identifier", in.Identifier()),
				zap.Error(err),
			)
			continue
		}
		res.Added++
	}

	if res.Dropped > 0 {
		r.logger.Warn("desired reminders exceed notification capacity",
			zap.Int("capacity", r.capacity),
			zap.Int("dropped", res.Dropped),
		)
	}
	return res, nil
}
