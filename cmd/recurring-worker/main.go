package main

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// recurring-worker materializes due recurring transaction templates into
// concrete transactions. It runs once at startup to catch anything missed
// while the process was down, then on a cron schedule plus a coarse
// interval ticker as a safety net for hosts with unreliable clocks.
func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store, closeStore := cli.OpenStore(logger, cfg)

	processor := services.NewRecurringProcessor(store)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := closeStore(); err != nil {
			logger.Error("Store close error", "error", err)
		}
	})

	runOnce := func(now time.Time) {
		count, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Recurring processing failed", "error", err)
			return
		}
		logger.Info("Recurring processing complete", "transactions_created", count)
	}

	// Catch up on anything due while the worker was down.
	logger.Info("Running initial recurring processing...")
	if ctx.Err() == nil {
		runOnce(time.Now())
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RecurringSchedule, func() { runOnce(time.Now()) }); err != nil {
		logger.Error("Invalid cron schedule", "error", err, "schedule", cfg.RecurringSchedule)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Recurring processor scheduled",
		"schedule", cfg.RecurringSchedule,
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				runOnce(now)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for in-flight cron jobs")
	}
	logger.Info("Recurring-worker stopped gracefully")
}
