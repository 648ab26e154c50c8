package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	applog "lifedash/internal/log"
)

// ProcessorConfig holds configuration for the pending processor
type ProcessorConfig struct {
	// PollInterval is how often to scan for unsynced documents (default: 30s)
	PollInterval time.Duration
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{PollInterval: 30 * time.Second}
}

// PendingProcessor periodically runs SyncWorker.ProcessPending as a backup
// for lost AMQP events.
type PendingProcessor struct {
	worker *SyncWorker
	config ProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPendingProcessor(worker *SyncWorker, config ProcessorConfig) *PendingProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultProcessorConfig().PollInterval
	}
	return &PendingProcessor{worker: worker, config: config}
}

// Start begins the processing loop. Returns an error if already running.
func (p *PendingProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pending processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Pending processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop signals the loop and waits for it to finish or for ctx to end.
func (p *PendingProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Pending processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Pending processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *PendingProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PendingProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	p.process(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.process(ctx)
		}
	}
}

func (p *PendingProcessor) process(ctx context.Context) {
	n, err := p.worker.ProcessPending(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Pending scan failed", applog.FieldOperation, applog.OpSync, "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pending documents synced", "count", n)
	}
}
