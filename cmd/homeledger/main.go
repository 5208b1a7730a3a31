package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"homeledger/internal/amqp"
	"homeledger/internal/cli"
	apphttp "homeledger/internal/http"
	"homeledger/internal/ledger"
	"homeledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	snap, err := repo.Load(context.Background())
	if err != nil {
		logger.Error("Failed to load snapshot", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	l := ledger.FromSnapshot(snap)
	logger.Info("Ledger loaded",
		"accounts", len(snap.Accounts),
		"loans", len(snap.Loans),
		"transactions", len(snap.Transactions))

	// The change feed is optional; without AMQP the worker simply never
	// hears about mutations and the Sheets mirror goes stale.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP change feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	persist := services.NewPersistService(l, repo, publisher, services.PersistConfig{
		Debounce:    cfg.SaveDebounce,
		SaveTimeout: 10 * time.Second,
	})
	if err := persist.Start(context.Background()); err != nil {
		logger.Error("Failed to start persistence service", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, l)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		// Flush any pending snapshot before the process exits.
		if err := persist.Stop(shutdownCtx); err != nil {
			logger.Error("Persistence shutdown error", "error", err)
		}
	})

	logger.Info("Starting homeledger server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
