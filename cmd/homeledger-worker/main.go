package main

import (
	"context"
	"errors"
	"os"
	"time"

	"homeledger/internal/amqp"
	"homeledger/internal/cli"
	gsheet "homeledger/internal/sheets/google"
	"homeledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting homeledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, sheetsClient)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Mirror once at startup so changes published while the worker was
	// down still reach the spreadsheet.
	startupCtx, cancel := context.WithTimeout(ctx, time.Minute)
	if err := syncWorker.MirrorOnce(startupCtx); err != nil {
		logger.Error("Startup mirror failed", "error", err)
		// Keep running; the next change message retries the mirror.
	}
	cancel()

	go func() {
		if err := amqpClient.ConsumeLedgerChanges(ctx, func(msg *amqp.LedgerChangeMessage) error {
			return syncWorker.HandleChange(ctx, msg)
		}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
