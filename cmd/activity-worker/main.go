package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/database"
	"github.com/iliyamo/green-city-platform/internal/logger"
	"github.com/iliyamo/green-city-platform/internal/queue"
	"github.com/iliyamo/green-city-platform/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Initialize(cfg.LogLevel, cfg.LogFormat)
	events := config.LoadEventsConfig()
	wlog := logger.WithService("activity-worker")

	db, err := database.Open(cfg)
	if err != nil {
		fatal("open database", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zones := repository.NewZoneRepo(db)
	tasks := repository.NewTaskRepo(db)

	c := cron.New(cron.WithLocation(time.UTC), cron.WithSeconds())
	if _, err := c.AddFunc(events.Backlog, func() { reportBacklog(ctx, zones, tasks) }); err != nil {
		fatal("schedule backlog report", err)
	}
	c.Start()
	defer c.Stop()
	wlog.Info("backlog report scheduled", "schedule", events.Backlog)

	if !events.Enabled {
		wlog.Warn("EVENTS_ENABLED is false; only the backlog report runs")
		<-ctx.Done()
		return
	}
	if err := queue.NewConsumer(events).Run(ctx); err != nil && ctx.Err() == nil {
		fatal("consumer", err)
	}
	wlog.Info("activity worker stopped")
}

// reportBacklog logs how much moderation work is waiting.
func reportBacklog(ctx context.Context, zones *repository.ZoneRepo, tasks *repository.TaskRepo) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pending, err := zones.CountPending(ctx)
	if err != nil {
		logger.Error("count pending zones", "error", err)
		return
	}
	verify, err := tasks.CountAwaitingVerification(ctx)
	if err != nil {
		logger.Error("count tasks awaiting verification", "error", err)
		return
	}
	logger.Info("moderation backlog", "pending_zones", pending, "tasks_awaiting_verification", verify)
}

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
