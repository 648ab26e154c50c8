package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"lifedash/internal/cache"
	"lifedash/internal/cli"
	apphttp "lifedash/internal/http"
	applog "lifedash/internal/log"
	"lifedash/internal/services"
	gsheet "lifedash/internal/sheets/google"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Stdout, applog.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(os.Stdout, applog.ComponentApp, cfg.LogLevel)

	backend := cli.OpenBackend(context.Background(), logger.WithComponent(applog.ComponentBackend), cfg)

	caches := cache.NewManager()
	lookup := cli.NewPriceLookup(cfg, caches)

	// A nil *amqp.Client must not become a non-nil Publisher.
	var publisher services.Publisher
	amqpClient := cli.ConnectAMQP(logger.WithComponent(applog.ComponentAMQP), cfg)
	if amqpClient != nil {
		publisher = amqpClient
	}

	svc := apphttp.Services{
		Finance:    services.NewFinanceService(backend.Store, lookup, publisher),
		Workouts:   services.NewWorkoutService(backend.Store, publisher),
		Vocabulary: services.NewVocabularyService(backend.Store, publisher),
		Habits:     services.NewHabitService(backend.Store, publisher),
	}
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Warn("Google Sheets unavailable, spreadsheet import disabled", "error", err)
		} else {
			svc.Sheets = sheetsClient
			logger.Info("Google Sheets import enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:    logger.WithComponent(applog.ComponentHTTP),
		RateLimit: cfg.RateLimit,
		Caches:    caches,
		Ready:     cli.ReadyCheck(backend.Store),
	})
	srv.MaxHeaderBytes = 1 << 16

	caches.StartCleanup(5 * time.Minute)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if err := backend.Close(); err != nil {
			logger.Warn("Backend close error", "error", err)
		}
	})

	logger.Info("Starting lifedash server",
		applog.FieldOperation, applog.OpStartup,
		"version", version,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"prices", cfg.PriceAPIKey != "")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
