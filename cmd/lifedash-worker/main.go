package main

import (
	"context"
	"errors"
	"os"
	"time"

	"lifedash/internal/cli"
	applog "lifedash/internal/log"
	gsheet "lifedash/internal/sheets/google"
	"lifedash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Stdout, applog.ComponentWorker, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(os.Stdout, applog.ComponentWorker, cfg.LogLevel)

	logger.Info("Starting lifedash-worker", applog.FieldOperation, applog.OpStartup)
	cli.Must(logger, "Worker configuration invalid", cfg.ValidateWorker())

	backend := cli.OpenBackend(context.Background(), logger.WithComponent(applog.ComponentBackend), cfg)

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	cli.Must(logger, "Failed to initialize Google Sheets client", err)
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient := cli.ConnectAMQP(logger.WithComponent(applog.ComponentAMQP), cfg)
	if amqpClient == nil {
		logger.Error("AMQP broker unreachable", "url_set", cfg.AMQPURL != "")
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(backend.Store, backend.Tracker, sheetsClient, cfg.SyncBatchSize)
	processor := worker.NewPendingProcessor(syncWorker, worker.ProcessorConfig{PollInterval: cfg.SyncInterval})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := processor.Stop(ctx); err != nil {
			logger.Warn("Pending processor stop error", "error", err)
		}
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", "error", err)
		}
		if err := backend.Close(); err != nil {
			logger.Warn("Backend close error", "error", err)
		}
	})

	// Catches up on documents whose events were lost while the worker was down.
	if backend.Tracker != nil {
		cli.Must(logger, "Failed to start pending processor", processor.Start(ctx))
	}

	go func() {
		err := amqpClient.ConsumeDocumentEvents(ctx, syncWorker.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
