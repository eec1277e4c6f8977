package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting ledger-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for ledger-worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	ledgerCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid ledger configuration", applog.FieldError, err)
		os.Exit(1)
	}
	ledger, err := backend.NewFactory(logger).CreateLedger(ctx, ledgerCfg)
	if err != nil {
		logger.Error("Failed to create ledger", applog.FieldError, err, "type", ledgerCfg.Type.String())
		os.Exit(1)
	}
	if ledger.Cleanup != nil {
		defer func() {
			if err := ledger.Cleanup(); err != nil {
				logger.Error("Ledger cleanup failed", applog.FieldError, err)
			}
		}()
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	client.SetLogger(logger)
	defer client.Close()

	ledgerWorker := worker.NewLedgerWorker(repo, ledger.Ledger, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, ledgerWorker.HandleEvent)
	})
	g.Go(func() error {
		// periodic database health check
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				pingCtx, cancel := context.WithTimeout(gctx, 5*time.Second)
				if err := repo.Ping(pingCtx); err != nil {
					logger.WarnContext(gctx, "SQLite ping failed", applog.FieldError, err)
				}
				cancel()
			}
		}
	})

	logger.Info("Consuming transaction events",
		"queue", cfg.AMQPQueue,
		"ledger", ledger.Type.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Ledger worker failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Ledger-worker stopped")
}
