package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
)

var _ wardrobe.Store = (*Store)(nil)

// Store is the PostgreSQL-backed catalog. All operations are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store, establishes a connection pool to the
// PostgreSQL database at dsn and runs [Migrate] to ensure all catalog
// tables exist.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("wardrobe store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("wardrobe store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("wardrobe store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("wardrobe store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// NewStoreWithPool wraps an existing pool without running migrations.
// Intended for callers that share one pool across stores.
func NewStoreWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping verifies the database connection. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// AppendChatHistory implements [wardrobe.Store].
func (s *Store) AppendChatHistory(ctx context.Context, entry wardrobe.ChatEntry) error {
	const q = `
		INSERT INTO chat_history (prompt, response, image_url, created_at)
		VALUES ($1, $2, $3, $4)`

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, q, entry.Prompt, entry.Response, entry.ImageURL, createdAt)
	if err != nil {
		return fmt.Errorf("wardrobe store: append chat history: %w", err)
	}
	return nil
}
