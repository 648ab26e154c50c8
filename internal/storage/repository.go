package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"lifedash/internal/docstore"

	_ "modernc.org/sqlite"
)

// Pending is a saved document that has not yet been mirrored.
type Pending struct {
	ID         string
	Collection string
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ docstore.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Save(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, body, created_at) VALUES (?, ?, ?, ?)`,
		id, collection, string(body), r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}

	slog.DebugContext(ctx, "Document saved to SQLite", "collection", collection, "id", id)
	return id, nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, collection, body, created_at FROM documents WHERE collection = ? ORDER BY seq DESC`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		doc, err := scanSQLiteDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *SQLiteRepository) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, collection, body, created_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	doc, err := scanSQLiteDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.NotFound(collection, id)
	}
	return doc, err
}

func (r *SQLiteRepository) DeleteOne(ctx context.Context, collection, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return affectedOne(res, collection, id)
}

// UpdateFields merges partial into the stored body with json_patch in a
// single statement.
func (r *SQLiteRepository) UpdateFields(ctx context.Context, collection, id string, partial docstore.Fields) error {
	patch, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET body = json_patch(body, ?), synced_at = NULL WHERE collection = ? AND id = ?`,
		string(patch), collection, id)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return affectedOne(res, collection, id)
}

// ListUnsynced returns up to limit documents not yet mirrored, oldest first.
func (r *SQLiteRepository) ListUnsynced(ctx context.Context, limit int) ([]Pending, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, collection FROM documents WHERE synced_at IS NULL ORDER BY seq LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsynced documents: %w", err)
	}
	defer rows.Close()

	var out []Pending
	for rows.Next() {
		var p Pending
		if err := rows.Scan(&p.ID, &p.Collection); err != nil {
			return nil, fmt.Errorf("scan unsynced document: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET synced_at = ? WHERE id = ?`, r.now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("mark document synced: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteDocument(row rowScanner) (docstore.Document, error) {
	var (
		doc       docstore.Document
		body      string
		createdAt string
	)
	if err := row.Scan(&doc.ID, &doc.Collection, &body, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return doc, err
		}
		return doc, fmt.Errorf("scan document: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &doc.Fields); err != nil {
		return doc, fmt.Errorf("unmarshal document %s: %w", doc.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return doc, fmt.Errorf("parse created_at of %s: %w", doc.ID, err)
	}
	doc.CreatedAt = t
	return doc, nil
}

func affectedOne(res sql.Result, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return docstore.NotFound(collection, id)
	}
	return nil
}
