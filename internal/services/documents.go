package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lifedash/internal/amqp"
	"lifedash/internal/core"
	"lifedash/internal/docstore"
)

// Publisher announces document changes to the sync worker.
type Publisher interface {
	PublishDocumentEvent(ctx context.Context, collection, id string, op amqp.Operation) error
}

// Stored pairs a decoded record with its document metadata.
type Stored[T any] struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Record    T         `json:"record"`
}

// documents holds what every service needs to persist typed records.
type documents struct {
	store     docstore.Store
	publisher Publisher
}

// storeError keeps not-found and validation failures as they are and reports
// everything else as the store being unavailable.
func storeError(op string, err error) error {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrValidation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", core.ErrExternalUnavailable, op, err)
}

func (d documents) create(ctx context.Context, collection string, v any) (string, error) {
	fields, err := docstore.Encode(v)
	if err != nil {
		return "", err
	}
	id, err := d.store.Save(ctx, collection, fields)
	if err != nil {
		return "", storeError("save "+collection, err)
	}
	d.publish(ctx, collection, id, amqp.OpCreated)
	return id, nil
}

func (d documents) update(ctx context.Context, collection, id string, partial docstore.Fields) error {
	if err := d.store.UpdateFields(ctx, collection, id, partial); err != nil {
		return storeError("update "+collection, err)
	}
	d.publish(ctx, collection, id, amqp.OpUpdated)
	return nil
}

func (d documents) remove(ctx context.Context, collection, id string) error {
	if err := d.store.DeleteOne(ctx, collection, id); err != nil {
		return storeError("delete "+collection, err)
	}
	d.publish(ctx, collection, id, amqp.OpDeleted)
	return nil
}

// publish never fails the caller: the document is already stored and the
// worker's pending scan picks up anything whose event was lost.
func (d documents) publish(ctx context.Context, collection, id string, op amqp.Operation) {
	if d.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping document event",
			"collection", collection, "id", id)
		return
	}
	if err := d.publisher.PublishDocumentEvent(ctx, collection, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish document event",
			"collection", collection, "id", id, "op", op, "error", err)
	}
}

func get[T any](ctx context.Context, store docstore.Reader, collection, id string) (Stored[T], error) {
	doc, err := store.Get(ctx, collection, id)
	if err != nil {
		return Stored[T]{}, storeError("get "+collection, err)
	}
	var rec T
	if err := docstore.Decode(doc, &rec); err != nil {
		return Stored[T]{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	return Stored[T]{ID: doc.ID, CreatedAt: doc.CreatedAt, Record: rec}, nil
}

// load decodes a whole collection. Documents that do not decode are skipped
// with a notice.
func load[T any](ctx context.Context, store docstore.Reader, collection string) ([]Stored[T], []core.Notice, error) {
	docs, err := store.ListAll(ctx, collection)
	if err != nil {
		return nil, nil, storeError("list "+collection, err)
	}
	out := make([]Stored[T], 0, len(docs))
	var notices []core.Notice
	for _, doc := range docs {
		var rec T
		if err := docstore.Decode(doc, &rec); err != nil {
			notices = append(notices, core.NewNotice(collection, err))
			continue
		}
		out = append(out, Stored[T]{ID: doc.ID, CreatedAt: doc.CreatedAt, Record: rec})
	}
	return out, notices, nil
}

// list is load with a failing store degraded to an empty result and a notice.
func list[T any](ctx context.Context, store docstore.Reader, collection string) ([]Stored[T], []core.Notice) {
	items, notices, err := load[T](ctx, store, collection)
	if err != nil {
		slog.WarnContext(ctx, "Listing failed, returning empty result", "collection", collection, "error", err)
		return []Stored[T]{}, []core.Notice{core.NewNotice(collection, err)}
	}
	return items, notices
}
