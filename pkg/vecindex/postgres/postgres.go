// Package postgres provides a pgvector-backed implementation of
// [vecindex.Index].
//
// All collections share a single vec_entries table keyed by (collection, id)
// with an HNSW cosine index. The pgvector extension must be available in the
// target database; [Migrate] installs it via CREATE EXTENSION IF NOT EXISTS.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/fitfinder-ai/fitfinder/pkg/vecindex"
)

var _ vecindex.Index = (*Index)(nil)

// Index is the Postgres/pgvector implementation of [vecindex.Index].
// All methods are safe for concurrent use.
type Index struct {
	pool *pgxpool.Pool
}

// ddl returns the vec_entries DDL with the embedding dimension substituted.
// The dimension is baked into the column type at schema creation time;
// changing it afterwards requires a manual schema change.
func ddl(dimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS vec_entries (
    collection  TEXT         NOT NULL,
    id          TEXT         NOT NULL,
    embedding   vector(%d),
    metadata    JSONB        NOT NULL DEFAULT '{}',
    updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_vec_entries_embedding
    ON vec_entries USING hnsw (embedding vector_cosine_ops);

CREATE INDEX IF NOT EXISTS idx_vec_entries_category
    ON vec_entries ((metadata->>'category'));

CREATE INDEX IF NOT EXISTS idx_vec_entries_season
    ON vec_entries ((metadata->>'season'));
`, dimensions)
}

// Migrate creates or ensures the vec_entries table and its indexes exist.
// Idempotent and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dimensions int) error {
	if _, err := pool.Exec(ctx, ddl(dimensions)); err != nil {
		return fmt.Errorf("vecindex migrate: %w", err)
	}
	return nil
}

// New creates an Index, establishes a connection pool to the database at dsn,
// registers pgvector types on every connection, and runs [Migrate].
//
// dimensions must match the output dimension of the embedding model used to
// produce the stored vectors.
func New(ctx context.Context, dsn string, dimensions int) (*Index, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("vecindex: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("vecindex: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("vecindex: ping: %w", err)
	}
	if err := Migrate(ctx, pool, dimensions); err != nil {
		pool.Close()
		return nil, err
	}

	return &Index{pool: pool}, nil
}

// Ping verifies the database connection. Used by readiness checks.
func (ix *Index) Ping(ctx context.Context) error {
	return ix.pool.Ping(ctx)
}

// Close releases all connections held by the underlying pool.
func (ix *Index) Close() {
	ix.pool.Close()
}

// Upsert implements [vecindex.Index].
func (ix *Index) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]any) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("vecindex: marshal metadata for %s/%s: %w", collection, id, err)
	}

	const q = `
		INSERT INTO vec_entries (collection, id, embedding, metadata, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (collection, id) DO UPDATE SET
		    embedding  = EXCLUDED.embedding,
		    metadata   = EXCLUDED.metadata,
		    updated_at = now()`

	if _, err := ix.pool.Exec(ctx, q, collection, id, pgvector.NewVector(vector), meta); err != nil {
		return fmt.Errorf("vecindex: upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query implements [vecindex.Index]. Results are ordered by ascending cosine
// distance and reported as cosine similarity (1 - distance).
func (ix *Index) Query(ctx context.Context, collection string, vector []float32, k int, filter vecindex.Filter) ([]vecindex.Match, error) {
	args := []any{pgvector.NewVector(vector), collection}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions := []string{"collection = $2"}
	if filter.AllowIDs != nil {
		conditions = append(conditions, "id = ANY("+next(filter.AllowIDs)+")")
	}
	if filter.Category != "" {
		conditions = append(conditions, "metadata->>'category' = "+next(filter.Category))
	}
	if filter.Season != "" && filter.Season != "any" {
		conditions = append(conditions, "metadata->>'season' = "+next(filter.Season))
	}

	args = append(args, k)
	limitArg := fmt.Sprintf("$%d", len(args))

	q := fmt.Sprintf(`
		SELECT id, metadata, embedding <=> $1 AS distance
		FROM   vec_entries
		WHERE  %s
		ORDER  BY distance
		LIMIT  %s`, strings.Join(conditions, "\n  AND "), limitArg)

	rows, err := ix.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vecindex: query %s: %w", collection, err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (vecindex.Match, error) {
		var (
			m        vecindex.Match
			meta     []byte
			distance float64
		)
		if err := row.Scan(&m.ID, &meta, &distance); err != nil {
			return vecindex.Match{}, err
		}
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return vecindex.Match{}, err
		}
		m.Score = 1 - distance
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("vecindex: scan rows: %w", err)
	}
	if matches == nil {
		matches = []vecindex.Match{}
	}
	return matches, nil
}

// Delete implements [vecindex.Index].
func (ix *Index) Delete(ctx context.Context, collection, id string) error {
	if _, err := ix.pool.Exec(ctx, `DELETE FROM vec_entries WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		return fmt.Errorf("vecindex: delete %s/%s: %w", collection, id, err)
	}
	return nil
}
