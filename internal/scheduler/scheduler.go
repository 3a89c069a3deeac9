package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/shiftwell/shiftwell/internal/notify"
	"github.com/shiftwell/shiftwell/internal/service"
	"github.com/shiftwell/shiftwell/internal/stats"
)

// Publisher pushes the resolved shift calendar to an external
// calendar collection.
type Publisher interface {
	IsConfigured() bool
	PublishSchedule(ctx context.Context, planner *service.Planner, days int) error
}

// Scheduler drives the periodic work: firing due notifications,
// rolling the expansion horizon forward, and publishing the calendar.
type Scheduler struct {
	cron      *cron.Cron
	planner   *service.Planner
	center    *notify.LocalCenter
	publisher Publisher
	logger    *zap.Logger
}

func New(location *time.Location, planner *service.Planner, center *notify.LocalCenter, publisher Publisher, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(location)),
		planner:   planner,
		center:    center,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Fire due notifications every minute
	if _, err := s.cron.AddFunc("* * * * *", s.fireDue); err != nil {
		return fmt.Errorf("add notification sweep: %w", err)
	}

	// Roll the horizon forward and re-reconcile hourly
	if _, err := s.cron.AddFunc("0 * * * *", s.refreshHorizon); err != nil {
		return fmt.Errorf("add horizon refresh: %w", err)
	}

	// Publish the shift calendar nightly
	if _, err := s.cron.AddFunc("30 3 * * *", s.publishCalendar); err != nil {
		return fmt.Errorf("add calendar publish: %w", err)
	}

	// Evening compliance digest
	if _, err := s.cron.AddFunc("0 21 * * *", s.logDigest); err != nil {
		return fmt.Errorf("add compliance digest: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started")

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) fireDue() {
	s.center.FireDue(context.Background(), time.Now(), s.planner.OnFired)
}

func (s *Scheduler) refreshHorizon() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.planner.ReconcileNow(ctx); err != nil {
		s.logger.Error("horizon refresh failed", zap.Error(err))
	}
}

// logDigest summarizes the last week of reminder outcomes.
func (s *Scheduler) logDigest() {
	records, err := s.planner.Records()
	if err != nil {
		s.logger.Error("load reminder records", zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}

	now := time.Now()
	fields := []zap.Field{
		zap.Float64("week_completion_pct", stats.CompletionRateBetween(records, now.AddDate(0, 0, -7), now)),
		zap.Int("avg_delay_min", stats.AverageDelayMinutes(records)),
	}
	if hour, ok := stats.BestHour(records); ok {
		fields = append(fields, zap.Int("best_hour", hour))
	}
	s.logger.Info("compliance digest", fields...)
}

func (s *Scheduler) publishCalendar() {
	if s.publisher == nil || !s.publisher.IsConfigured() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.publisher.PublishSchedule(ctx, s.planner, 30); err != nil {
		s.logger.Error("publish shift calendar failed", zap.Error(err))
	}
}
