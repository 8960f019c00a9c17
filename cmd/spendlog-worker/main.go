package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/backend"
	"spendlog/internal/cli"
	"spendlog/internal/log"
	"spendlog/internal/metrics"
	"spendlog/internal/persist"
	gsheet "spendlog/internal/sheets/google"
	"spendlog/internal/worker"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	envErr := cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	if envErr != nil {
		logger.Warn("Could not read .env file", log.FieldError, envErr)
	}
	logger.Info("Starting spendlog-worker")

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return 1
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "timezone", cfg.Timezone, log.FieldError, err)
		return 1
	}
	if !cfg.SheetsEnabled() {
		logger.Error("Google Sheets export disabled, nothing to do - set GOOGLE_SPREADSHEET_ID")
		return 1
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		return 1
	}
	// The worker reads what the server wrote, so the store has to be shared.
	if !backendCfg.Type.Shared() {
		logger.Error("Worker needs a shared backend", "backend", backendCfg.Type.String(), "supported", "sqlite, postgres, mysql")
		return 1
	}

	ctx := context.Background()
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "backend", cfg.DataBackend, log.FieldError, err)
		return 1
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	exporter, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		return 1
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	w := worker.NewExportWorker(
		persist.New(res.Store, logger),
		exporter,
		metrics.NewEngine(loc, cfg.TrendWindowDays),
		cfg.ExportTimeout,
		logger,
	)
	sched, err := worker.NewScheduler(cfg.ExportSchedule, loc, w, logger)
	if err != nil {
		logger.Error("Failed to create export scheduler", log.FieldError, err)
		return 1
	}

	runCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	// Catch up on anything written while the worker was down
	if err := w.ExportAll(runCtx); err != nil {
		logger.Error("Startup export failed", log.FieldOperation, log.OpStartup, log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return sched.Run(gctx) })
	if res.Changes != nil {
		g.Go(func() error { return res.Changes.ConsumeChanges(gctx, w.HandleChange) })
	} else {
		logger.Info("AMQP not configured, exporting on schedule only", "schedule", cfg.ExportSchedule)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
	}
	if runCtx.Err() != nil {
		<-done
	}

	stats := w.Stats()
	logger.Info("Worker stopped",
		"exports", stats.Exports,
		"failures", stats.Failures,
		"last_export", stats.LastExport)
	return 0
}
