package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifedash/internal/docstore"
)

// PostgresRepository stores documents as jsonb rows behind a pgx pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

var _ docstore.Store = (*PostgresRepository)(nil)

// NewPostgresRepository connects, pings and migrates.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if err := RunPostgresMigrations(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.Pool.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.Pool.Ping(ctx)
}

func (r *PostgresRepository) Save(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	id := uuid.NewString()
	_, err = r.Pool.Exec(ctx,
		`INSERT INTO documents (id, collection, body) VALUES ($1, $2, $3::jsonb)`,
		id, collection, string(body))
	if err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, collection, body, created_at FROM documents WHERE collection = $1 ORDER BY seq DESC`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		doc, err := scanPostgresDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT id, collection, body, created_at FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	doc, err := scanPostgresDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return docstore.Document{}, docstore.NotFound(collection, id)
	}
	return doc, err
}

func (r *PostgresRepository) DeleteOne(ctx context.Context, collection, id string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.NotFound(collection, id)
	}
	return nil
}

// UpdateFields merges partial with the jsonb concatenation operator.
func (r *PostgresRepository) UpdateFields(ctx context.Context, collection, id string, partial docstore.Fields) error {
	patch, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}
	tag, err := r.Pool.Exec(ctx,
		`UPDATE documents SET body = body || $1::jsonb, synced_at = NULL WHERE collection = $2 AND id = $3`,
		string(patch), collection, id)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.NotFound(collection, id)
	}
	return nil
}

func (r *PostgresRepository) ListUnsynced(ctx context.Context, limit int) ([]Pending, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, collection FROM documents WHERE synced_at IS NULL ORDER BY seq LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying unsynced documents: %w", err)
	}
	defer rows.Close()

	var out []Pending
	for rows.Next() {
		var p Pending
		if err := rows.Scan(&p.ID, &p.Collection); err != nil {
			return nil, fmt.Errorf("scanning unsynced document: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.Pool.Exec(ctx, `UPDATE documents SET synced_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("marking document synced: %w", err)
	}
	return nil
}

func scanPostgresDocument(row pgx.Row) (docstore.Document, error) {
	var (
		doc  docstore.Document
		body []byte
	)
	if err := row.Scan(&doc.ID, &doc.Collection, &body, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doc, err
		}
		return doc, fmt.Errorf("scanning document: %w", err)
	}
	if err := json.Unmarshal(body, &doc.Fields); err != nil {
		return doc, fmt.Errorf("unmarshal document %s: %w", doc.ID, err)
	}
	return doc, nil
}
