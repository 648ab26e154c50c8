// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/lifedash, cmd/lifedash-worker, and cmd/lifedash-mcp.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lifedash/internal/amqp"
	"lifedash/internal/backend"
	"lifedash/internal/cache"
	"lifedash/internal/config"
	"lifedash/internal/docstore"
	applog "lifedash/internal/log"
	"lifedash/internal/prices"
)

// SetupLogger initializes structured logging for a component and makes it
// the default logger. The MCP server passes os.Stderr since stdout carries
// the protocol.
func SetupLogger(w io.Writer, component, level string) *applog.Logger {
	logger := applog.New(applog.NewTextConfig(w, applog.ParseLevel(level), component))
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err,
			applog.FieldOperation, applog.OpValidate,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend creates the configured document store.
// Returns the backend or exits the process on failure.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", bcfg.Type,
			applog.FieldErrorType, applog.ErrorTypeDatabase)
		os.Exit(1)
	}
	return res
}

// ConnectAMQP returns a connected client, or nil when AMQP is not configured
// or unreachable. Services run without events in that case.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err,
			applog.FieldErrorType, applog.ErrorTypeNetwork)
		return nil
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// NewPriceLookup returns the EODHD client when an API key is configured and
// prices.Unavailable otherwise. The quote cache is registered with caches
// when it is not nil.
func NewPriceLookup(cfg *config.Config, caches *cache.Manager) prices.Lookup {
	if cfg.PriceAPIKey == "" {
		return prices.Unavailable{}
	}
	quotes := cache.NewLRUCache[prices.Quote](cfg.PriceCacheSize, cfg.PriceCacheTTL)
	if caches != nil {
		caches.Register(quotes)
	}
	return prices.NewEODHDClient(cfg.PriceAPIKey,
		prices.WithBaseURL(cfg.PriceBaseURL),
		prices.WithCache(quotes))
}

// ReadyCheck pings the store when it supports it. Stores without a
// connection are always ready.
func ReadyCheck(store docstore.Store) func(context.Context) error {
	p, ok := store.(interface{ Ping(context.Context) error })
	if !ok {
		return func(context.Context) error { return nil }
	}
	return p.Ping
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

// Must logs err and exits when it is not nil.
func Must(logger *applog.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}
}
