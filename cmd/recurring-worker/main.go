package main

import (
	"context"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentRecurrence)
	logger.Info("Starting recurring-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Materialized occurrences are announced so ledger-worker can mirror them.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", applog.FieldError, err)
		} else {
			client.SetLogger(logger)
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized - occurrences will sync via ledger-worker")
		}
	} else {
		logger.Info("AMQP disabled - occurrences will not be mirrored to the ledger")
	}

	processor := services.NewRecurringProcessor(repo, publisher, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	interval := cfg.RecurringInterval
	logger.Info("Recurring processor configured",
		"interval", interval.String(),
		"sqlite_db", cfg.SQLiteDBPath)

	run := func(ctx context.Context, now time.Time, trigger string) {
		today := core.DateOf(now)
		report, err := processor.ProcessDue(ctx, today, 0)
		if err != nil {
			logger.ErrorContext(ctx, "Recurring processing failed",
				applog.FieldError, err,
				applog.FieldDate, today.String(),
				"trigger", trigger)
			return
		}
		logger.InfoContext(ctx, "Recurring processing complete",
			applog.FieldDate, today.String(),
			"trigger", trigger,
			"candidates", report.Candidates,
			"materialized", len(report.Materialized),
			"skipped", report.Skipped,
			"warnings", len(report.Warnings),
			"failures", len(report.Failures),
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	run(ctx, time.Now(), "startup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			logger.Info("Recurring-worker stopped")
			return
		case now := <-ticker.C:
			run(ctx, now, "tick")
		}
	}
}
