package main

import (
	"context"
	"errors"
	"os"
	_ "time/tzdata"

	"tracker/internal/amqp"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/log"
	gsheet "tracker/internal/sheets/google"
	"tracker/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting tracker-worker", "backend", cfg.DataBackend)
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process; the ledger will only mirror its seed data")
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg, false)
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	sheetsClient, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ledger := worker.NewLedgerWorker(be.Store, sheetsClient, logger)

	// Catch up on changes published while the worker was down.
	if err := ledger.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup ledger check failed", log.FieldError, err)
	}

	go ledger.Run(ctx, cfg.LedgerSyncInterval)

	if err := amqpClient.ConsumeChanges(ctx, ledger.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Change consumption stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
