package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shiftwell/shiftwell/config"
	"github.com/shiftwell/shiftwell/internal/clients/caldav"
	"github.com/shiftwell/shiftwell/internal/notify"
	"github.com/shiftwell/shiftwell/internal/scheduler"
	"github.com/shiftwell/shiftwell/internal/service"
	"github.com/shiftwell/shiftwell/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to init storage", zap.Error(err))
	}
	defer store.Close()

	// Delivery channel: Telegram when configured, otherwise the log.
	var sender notify.Sender
	var telegram *notify.TelegramSender
	if cfg.TelegramToken != "" {
		telegram, err = notify.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Fatal("Failed to init telegram sender", zap.Error(err))
		}
		sender = telegram
	} else {
		sender = notify.LogSender{Logger: logger}
	}

	center := notify.NewLocalCenter(store, sender, logger)

	// The gate reads the persisted notifications toggle; bound late so
	// the reconciler and the planner can reference each other.
	var planner *service.Planner
	gate := notify.SettingsGate{Enabled: func() bool {
		if planner == nil {
			return true
		}
		return planner.NotificationsEnabled()
	}}

	reconciler := notify.NewReconciler(center, gate, cfg.NotifyCapacity, logger)

	planner, err = service.New(store, reconciler, cfg.HorizonDays, logger)
	if err != nil {
		logger.Fatal("Failed to init planner", zap.Error(err))
	}

	publisher := caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendar, logger)

	sched := scheduler.New(cfg.Timezone, planner, center, publisher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			logger.Error("Scheduler error", zap.Error(err))
		}
	}()

	if telegram != nil {
		go telegram.Listen(ctx, planner.Acknowledge)
	}

	// Fire anything that came due during downtime first, so the boot
	// reconcile cannot cancel entries the sweep still owes records for.
	center.FireDue(ctx, time.Now(), planner.OnFired)

	// Bring the queue in line with stored state on boot.
	planner.Kick()

	logger.Info("ShiftWell started",
		zap.Int("horizon_days", cfg.HorizonDays),
		zap.Int("notify_capacity", cfg.NotifyCapacity),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down...")
	cancel()
	sched.Stop()
	logger.Info("ShiftWell stopped")
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	var zcfg zap.Config
	if cfg.LogFormat == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
