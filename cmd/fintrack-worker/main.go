package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/record"
)

// fintrack-worker consumes budget alert messages published by the API
// server and persists them as notifications, so alerts survive restarts
// and show up in the notification center even when no browser is open.
func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store, closeStore := cli.OpenStore(logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
		if err := closeStore(); err != nil {
			logger.Error("Store close error", "error", err)
		}
	})

	handler := func(msg *amqp.BudgetAlertMessage) error {
		now := msg.Timestamp
		if now.IsZero() {
			now = time.Now()
		}
		n := record.Notification{
			Severity:  msg.Alert.Severity,
			Category:  msg.Alert.Category,
			PeriodKey: msg.Alert.PeriodKey,
			Message:   msg.Alert.Message,
			CreatedAt: core.Date{Time: now},
		}
		created, err := store.CreateNotification(ctx, n)
		if err != nil {
			return err
		}
		logger.Info("Notification stored",
			"id", created.ID,
			applog.FieldCategory, created.Category,
			applog.FieldPeriodKey, created.PeriodKey,
			"severity", string(created.Severity))
		return nil
	}

	go func() {
		if err := amqpClient.ConsumeBudgetAlerts(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
		}
	}()

	logger.Info("Consuming budget alerts", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
