// Package sheets mirrors stored documents into spreadsheet tabs, one tab per
// collection, and reads word tables back for import.
package sheets

import (
	"context"

	"lifedash/internal/docstore"
)

// Ports for outbound spreadsheet adapters.
type (
	// DocumentMirror keeps one row per document in the tab named after its
	// collection. Mirroring the same id twice updates the existing row.
	DocumentMirror interface {
		MirrorDocument(ctx context.Context, doc docstore.Document) (rowRef string, err error)
		// RemoveDocument deletes the document's row. A missing row is not an error.
		RemoveDocument(ctx context.Context, collection, id string) error
	}

	// TableReader returns a rectangular range as trimmed strings.
	TableReader interface {
		ReadTable(ctx context.Context, rng string) ([][]string, error)
	}
)
