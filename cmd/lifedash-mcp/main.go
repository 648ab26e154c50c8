package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"lifedash/internal/cache"
	"lifedash/internal/cli"
	applog "lifedash/internal/log"
	"lifedash/internal/mcp"
	"lifedash/internal/services"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()

	// stdout carries the protocol, so every log line goes to stderr.
	logger := cli.SetupLogger(os.Stderr, applog.ComponentMCP, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(os.Stderr, applog.ComponentMCP, cfg.LogLevel)

	backend := cli.OpenBackend(context.Background(), logger.WithComponent(applog.ComponentBackend), cfg)
	defer backend.Close()

	caches := cache.NewManager()
	defer caches.Stop()
	lookup := cli.NewPriceLookup(cfg, caches)

	s := mcp.New(mcp.Services{
		Finance:    services.NewFinanceService(backend.Store, lookup, nil),
		Workouts:   services.NewWorkoutService(backend.Store, nil),
		Vocabulary: services.NewVocabularyService(backend.Store, nil),
		Habits:     services.NewHabitService(backend.Store, nil),
	}, version, logger.Logger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting lifedash MCP server", applog.FieldOperation, applog.OpStartup, "version", version, "backend", cfg.DataBackend)
	if err := mcp.ServeStdio(ctx, s, logger.Logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("MCP server error", "error", err)
		os.Exit(1)
	}
}
