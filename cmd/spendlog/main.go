package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"spendlog/internal/backend"
	"spendlog/internal/cli"
	apphttp "spendlog/internal/http"
	"spendlog/internal/ledger"
	"spendlog/internal/log"
	"spendlog/internal/metrics"
	"spendlog/internal/persist"
)

func main() {
	// Load .env file for local development (missing file is fine in docker)
	envErr := cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentApp)
	if envErr != nil {
		logger.Warn("Could not read .env file", log.FieldError, envErr)
	}

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "timezone", cfg.Timezone, log.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "backend", cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if res.Changes != nil {
		opts = append(opts, ledger.WithNotifier(res.Changes))
	}
	book, err := ledger.Open(ctx, persist.New(res.Store, logger), opts...)
	if err != nil {
		logger.Error("Failed to load ledger", log.FieldOperation, log.OpLoad, log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}
	logger.Info("Ledger loaded",
		log.FieldOperation, log.OpStartup,
		"expenses", len(book.Expenses.List()),
		"categories", len(book.Categories.List()),
		"sources", book.Sources())

	srv := apphttp.NewServer(":"+cfg.Port, book, apphttp.Options{
		Engine:             metrics.NewEngine(loc, cfg.TrendWindowDays),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Ping:               res.Ping,
	})

	_, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		requests, limits := srv.Metrics()
		logger.Info("Request totals",
			"requests", requests.TotalRequests,
			"avg_response_us", requests.AverageResponseTime,
			"rate_limited", limits.TotalHits)
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting spendlog server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String(),
		"change_events", res.Changes != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
