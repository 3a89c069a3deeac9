package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PendingRequest is one outstanding one-shot notification.
type PendingRequest struct {
	Identifier string
	AlarmID    string
	TriggerAt  time.Time
	Title      string
	Body       string
}

// PendingStore persists the outstanding queue across restarts.
type PendingStore interface {
	InsertPending(req PendingRequest) error
	DeletePending(identifiers []string) error
	DeleteAllPending() error
	ListPending() ([]PendingRequest, error)
	ListDuePending(now time.Time) ([]PendingRequest, error)
}

// Sender delivers a fired notification to the user.
type Sender interface {
	Send(ctx context.Context, req PendingRequest) error
}

// FiredFunc receives the outcome of each fired queue entry.
// delivered is false when the entry was too stale to deliver.
type FiredFunc func(alarmID string, scheduledAt time.Time, delivered bool)

// LocalCenter is the local notification queue: it implements API over
// a persistent store and fires due entries through a Sender when the
// scheduler sweeps it. It stands in for a platform notification center.
type LocalCenter struct {
	store  PendingStore
	sender Sender
	logger *zap.Logger

	// Entries older than staleAfter at sweep time are recorded missed
	// instead of delivered late (covers downtime across sweeps). Must
	// not exceed DeliveryGrace or reconciliation cancels the entry
	// before the sweep can record it.
	staleAfter time.Duration
}

func NewLocalCenter(store PendingStore, sender Sender, logger *zap.Logger) *LocalCenter {
	return &LocalCenter{
		store:      store,
		sender:     sender,
		logger:     logger,
		staleAfter: DeliveryGrace,
	}
}

func (c *LocalCenter) Submit(ctx context.Context, identifier string, trigger time.Time, payload Payload) error {
	return c.store.InsertPending(PendingRequest{
		Identifier: identifier,
		AlarmID:    payload.AlarmID,
		TriggerAt:  trigger,
		Title:      payload.Title,
		Body:       payload.Body,
	})
}

func (c *LocalCenter) Cancel(ctx context.Context, identifiers []string) error {
	return c.store.DeletePending(identifiers)
}

func (c *LocalCenter) ListOutstanding(ctx context.Context) ([]string, error) {
	pending, err := c.store.ListPending()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.Identifier)
	}
	return ids, nil
}

func (c *LocalCenter) CancelAll(ctx context.Context) error {
	return c.store.DeleteAllPending()
}

// FireDue delivers every entry whose trigger time has passed and
// removes it from the queue. Delivery failures keep the entry so the
// next sweep retries it. onFired reports outcomes for record keeping.
func (c *LocalCenter) FireDue(ctx context.Context, now time.Time, onFired FiredFunc) {
	due, err := c.store.ListDuePending(now)
	if err != nil {
		c.logger.Error("list due notifications", zap.Error(err))
		return
	}

	var done []string
	for _, req := range due {
		if now.Sub(req.TriggerAt) > c.staleAfter {
			c.logger.Info("dropping stale notification",
				zap.String("identifier", req.Identifier),
				zap.Time("trigger", req.TriggerAt),
			)
			done = append(done, req.Identifier)
			if onFired != nil {
				onFired(req.AlarmID, req.TriggerAt, false)
			}
			continue
		}

		if err := c.sender.Send(ctx, req); err != nil {
			c.logger.Warn("deliver notification failed",
				zap.String("identifier", req.Identifier),
				zap.Error(err),
			)
			continue
		}
		done = append(done, req.Identifier)
		if onFired != nil {
			onFired(req.AlarmID, req.TriggerAt, true)
		}
	}

	if len(done) > 0 {
		if err := c.store.DeletePending(done); err != nil {
			c.logger.Error("remove fired notifications", zap.Error(err))
		}
	}
}
