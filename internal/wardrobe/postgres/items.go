package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
)

const itemColumns = "id, description, category, color, season, image_url, tags, created_at"

// CreateItem implements [wardrobe.Store]. Writing an existing id replaces
// the record, so a retried capture does not fail.
func (s *Store) CreateItem(ctx context.Context, item wardrobe.Item) error {
	const q = `
		INSERT INTO clothing_items (id, description, category, color, season, image_url, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
		    description = EXCLUDED.description,
		    category    = EXCLUDED.category,
		    color       = EXCLUDED.color,
		    season      = EXCLUDED.season,
		    image_url   = EXCLUDED.image_url,
		    tags        = EXCLUDED.tags`

	_, err := s.pool.Exec(ctx, q,
		item.ID,
		item.Description,
		item.Category,
		item.Color,
		item.Season,
		item.ImageURL,
		item.Tags,
	)
	if err != nil {
		return fmt.Errorf("wardrobe store: create item: %w", err)
	}
	return nil
}

// ItemByID implements [wardrobe.Store].
func (s *Store) ItemByID(ctx context.Context, id string) (wardrobe.Item, error) {
	q := "SELECT " + itemColumns + " FROM clothing_items WHERE id = $1"

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return wardrobe.Item{}, fmt.Errorf("wardrobe store: item by id: %w", err)
	}
	item, err := pgx.CollectOneRow(rows, scanItem)
	if errors.Is(err, pgx.ErrNoRows) {
		return wardrobe.Item{}, wardrobe.ErrNotFound
	}
	if err != nil {
		return wardrobe.Item{}, fmt.Errorf("wardrobe store: item by id: %w", err)
	}
	return item, nil
}

// ItemsByIDs implements [wardrobe.Store]. Unknown ids are dropped without
// error.
func (s *Store) ItemsByIDs(ctx context.Context, ids []string) ([]wardrobe.Item, error) {
	if len(ids) == 0 {
		return []wardrobe.Item{}, nil
	}

	q := "SELECT " + itemColumns + " FROM clothing_items WHERE id = ANY($1)"

	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("wardrobe store: items by ids: %w", err)
	}
	return collectItems(rows)
}

// ListItems implements [wardrobe.Store]. Results are ordered newest first.
func (s *Store) ListItems(ctx context.Context, filter wardrobe.ItemFilter) ([]wardrobe.Item, error) {
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var conditions []string
	if filter.Category != "" {
		conditions = append(conditions, "category = "+next(filter.Category))
	}
	if filter.Season != "" {
		conditions = append(conditions, "season = "+next(filter.Season))
	}
	if filter.Tag != "" {
		conditions = append(conditions, next(filter.Tag)+" = ANY(tags)")
	}

	q := "SELECT " + itemColumns + " FROM clothing_items"
	if len(conditions) > 0 {
		q += "\nWHERE " + strings.Join(conditions, "\n  AND ")
	}
	q += "\nORDER BY created_at DESC"
	if filter.Limit > 0 {
		q += "\nLIMIT " + next(filter.Limit)
	}
	if filter.Offset > 0 {
		q += "\nOFFSET " + next(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("wardrobe store: list items: %w", err)
	}
	return collectItems(rows)
}

// DeleteItem implements [wardrobe.Store].
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM clothing_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("wardrobe store: delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return wardrobe.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (wardrobe.Item, error) {
	var item wardrobe.Item
	err := row.Scan(
		&item.ID,
		&item.Description,
		&item.Category,
		&item.Color,
		&item.Season,
		&item.ImageURL,
		&item.Tags,
		&item.CreatedAt,
	)
	return item, err
}

func collectItems(rows pgx.Rows) ([]wardrobe.Item, error) {
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("wardrobe store: scan items: %w", err)
	}
	if items == nil {
		items = []wardrobe.Item{}
	}
	return items, nil
}
