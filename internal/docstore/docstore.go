// Package docstore defines the document persistence port used by every
// service, plus helpers to move typed records in and out of documents.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lifedash/internal/core"
)

// Collection names.
const (
	Expenses    = "expenses"
	Payments    = "payments"
	Debts       = "debts"
	Investments = "investments"
	Words       = "words"
	Workouts    = "workouts"
	Habits      = "habits"
)

// All lists every collection the services write.
var All = []string{Expenses, Payments, Debts, Investments, Words, Workouts, Habits}

// Fields is the schemaless body of a document.
type Fields map[string]any

type Document struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Fields     Fields    `json:"fields"`
	CreatedAt  time.Time `json:"created_at"`
}

// Ports for outbound persistence adapters.
type (
	Writer interface {
		// Save stores fields as a new document and returns its id.
		Save(ctx context.Context, collection string, fields Fields) (string, error)
	}

	Reader interface {
		// ListAll returns every document of a collection, newest first.
		ListAll(ctx context.Context, collection string) ([]Document, error)
		// Get returns one document or core.ErrNotFound.
		Get(ctx context.Context, collection, id string) (Document, error)
	}

	Mutator interface {
		// DeleteOne removes a document or returns core.ErrNotFound.
		DeleteOne(ctx context.Context, collection, id string) error
		// UpdateFields merges partial into the document's top-level fields.
		UpdateFields(ctx context.Context, collection, id string, partial Fields) error
	}

	Store interface {
		Writer
		Reader
		Mutator
	}
)

// ValidateCollection rejects empty or whitespace collection names.
func ValidateCollection(collection string) error {
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("%w: collection name is required", core.ErrValidation)
	}
	return nil
}

// NotFound builds the error returned for a missing id.
func NotFound(collection, id string) error {
	return fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, id)
}

// Encode converts a typed record into document fields through its JSON form.
func Encode(v any) (Fields, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return f, nil
}

// Decode fills v from the document's fields.
func Decode(doc Document, v any) error {
	b, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// Merge returns a copy of base with partial's keys overwritten.
func Merge(base, partial Fields) Fields {
	out := make(Fields, len(base)+len(partial))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}
