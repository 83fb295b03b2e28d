package main

import (
	"context"
	"errors"
	"os"
	"time"

	"schoolaccounts/internal/cli"
	"schoolaccounts/internal/config"
	"schoolaccounts/internal/log"
	gsheet "schoolaccounts/internal/sheets/google"
	"schoolaccounts/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	logger.Info("Starting ledger mirror")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateMirror)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	mirror := worker.NewMirrorWorker(res.Store, sheetsClient, cfg.SyncBatchSize)

	// Rows written while the mirror was down are still pending.
	logger.Info("Performing startup sync check...")
	if err := mirror.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	reconciler := worker.NewReconciler(mirror, res.Store, worker.ReconcilerConfig{PollInterval: cfg.SyncInterval})
	if err := reconciler.Start(ctx); err != nil {
		logger.Error("Failed to start reconciler", log.FieldError, err)
		os.Exit(1)
	}

	if res.Publisher != nil {
		go func() {
			err := res.Publisher.ConsumeLedgerEvents(ctx, mirror.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Ledger event consumption stopped", log.FieldError, err)
			}
		}()
	} else {
		logger.Warn("AMQP unavailable, mirroring by reconciliation only",
			"interval", cfg.SyncInterval.String())
	}

	cli.WaitForShutdown(ctx, done)

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := reconciler.Stop(stopCtx); err != nil {
		logger.Warn("Reconciler did not stop cleanly", log.FieldError, err)
	}
	logger.Info("Ledger mirror stopped")
}
