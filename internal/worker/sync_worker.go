package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lifedash/internal/amqp"
	"lifedash/internal/core"
	"lifedash/internal/docstore"
	applog "lifedash/internal/log"
	"lifedash/internal/sheets"
	"lifedash/internal/storage"
)

// SyncTracker records which documents have reached the spreadsheet.
// Both SQL repositories implement it.
type SyncTracker interface {
	ListUnsynced(ctx context.Context, limit int) ([]storage.Pending, error)
	MarkSynced(ctx context.Context, id string) error
}

// SyncWorker mirrors stored documents into the spreadsheet.
type SyncWorker struct {
	store     docstore.Reader
	tracker   SyncTracker
	mirror    sheets.DocumentMirror
	batchSize int
}

// NewSyncWorker builds a worker. tracker may be nil, in which case only
// events are handled and there is no pending scan.
func NewSyncWorker(store docstore.Reader, tracker SyncTracker, mirror sheets.DocumentMirror, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		tracker:   tracker,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single document event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.DocumentEvent) error {
	slog.DebugContext(ctx, "Processing document event",
		"collection", msg.Collection,
		"id", msg.ID,
		"op", msg.Op)

	if msg.Op == amqp.OpDeleted {
		if err := w.mirror.RemoveDocument(ctx, msg.Collection, msg.ID); err != nil {
			return fmt.Errorf("remove %s/%s from sheet: %w", msg.Collection, msg.ID, err)
		}
		slog.InfoContext(ctx, "Removed document from sheet", "collection", msg.Collection, "id", msg.ID)
		return nil
	}
	return w.syncDocument(ctx, msg.Collection, msg.ID)
}

// ProcessPending mirrors documents whose events were lost or failed. It
// returns how many documents were synced.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	if w.tracker == nil {
		return 0, nil
	}
	pending, err := w.tracker.ListUnsynced(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending documents: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending documents", "count", len(pending))

	synced := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.syncDocument(ctx, p.Collection, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync document",
				applog.FieldOperation, applog.OpSync,
				"collection", p.Collection, "id", p.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (w *SyncWorker) syncDocument(ctx context.Context, collection, id string) error {
	doc, err := w.store.Get(ctx, collection, id)
	if errors.Is(err, core.ErrNotFound) {
		// deleted after the event was published; its delete event follows
		slog.WarnContext(ctx, "Document gone before sync", "collection", collection, "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	ref, err := w.mirror.MirrorDocument(ctx, doc)
	if err != nil {
		return fmt.Errorf("mirror to sheet: %w", err)
	}

	if w.tracker != nil {
		if err := w.tracker.MarkSynced(ctx, id); err != nil {
			// the row exists; a repeat mirror only rewrites it
			slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
		}
	}

	slog.InfoContext(ctx, "Successfully synced document",
		applog.FieldOperation, applog.OpSync,
		"collection", collection,
		"id", id,
		"row_ref", ref)
	return nil
}
