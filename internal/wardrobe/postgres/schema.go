// Package postgres provides a PostgreSQL-backed [wardrobe.Store].
//
// The catalog is plain relational data: clothing items, composed outfits
// and a chat history audit log. Embeddings are not stored here; similarity
// search lives in the vector index, keyed by the same item ids.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlItems = `
CREATE TABLE IF NOT EXISTS clothing_items (
    id          TEXT         PRIMARY KEY,
    description TEXT         NOT NULL,
    category    TEXT         NOT NULL DEFAULT '',
    color       TEXT         NOT NULL DEFAULT '',
    season      TEXT         NOT NULL DEFAULT '',
    image_url   TEXT         NOT NULL DEFAULT '',
    tags        TEXT[]       NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_clothing_items_category
    ON clothing_items (category);

CREATE INDEX IF NOT EXISTS idx_clothing_items_season
    ON clothing_items (season);

CREATE INDEX IF NOT EXISTS idx_clothing_items_tags
    ON clothing_items USING GIN (tags);
`

const ddlOutfits = `
CREATE TABLE IF NOT EXISTS outfits (
    id          TEXT         PRIMARY KEY,
    name        TEXT         NOT NULL DEFAULT '',
    description TEXT         NOT NULL DEFAULT '',
    season      TEXT         NOT NULL DEFAULT '',
    occasion    TEXT         NOT NULL DEFAULT '',
    item_ids    TEXT[]       NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_outfits_season
    ON outfits (season);

CREATE INDEX IF NOT EXISTS idx_outfits_occasion
    ON outfits (occasion);
`

const ddlChatHistory = `
CREATE TABLE IF NOT EXISTS chat_history (
    id          BIGSERIAL    PRIMARY KEY,
    prompt      TEXT         NOT NULL,
    response    TEXT         NOT NULL,
    image_url   TEXT         NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chat_history_created_at
    ON chat_history (created_at);
`

// Migrate creates or ensures all catalog tables exist. It is idempotent
// (CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT EXISTS) and safe to call
// on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		ddlItems,
		ddlOutfits,
		ddlChatHistory,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("wardrobe migrate: %w", err)
		}
	}
	return nil
}
