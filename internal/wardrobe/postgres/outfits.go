package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
)

const outfitColumns = "id, name, description, season, occasion, item_ids, created_at"

// CreateOutfit implements [wardrobe.Store].
func (s *Store) CreateOutfit(ctx context.Context, outfit wardrobe.Outfit) error {
	const q = `
		INSERT INTO outfits (id, name, description, season, occasion, item_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
		    name        = EXCLUDED.name,
		    description = EXCLUDED.description,
		    season      = EXCLUDED.season,
		    occasion    = EXCLUDED.occasion,
		    item_ids    = EXCLUDED.item_ids`

	_, err := s.pool.Exec(ctx, q,
		outfit.ID,
		outfit.Name,
		outfit.Description,
		outfit.Season,
		outfit.Occasion,
		outfit.ItemIDs,
	)
	if err != nil {
		return fmt.Errorf("wardrobe store: create outfit: %w", err)
	}
	return nil
}

// OutfitByID implements [wardrobe.Store].
func (s *Store) OutfitByID(ctx context.Context, id string) (wardrobe.Outfit, error) {
	q := "SELECT " + outfitColumns + " FROM outfits WHERE id = $1"

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return wardrobe.Outfit{}, fmt.Errorf("wardrobe store: outfit by id: %w", err)
	}
	outfit, err := pgx.CollectOneRow(rows, scanOutfit)
	if errors.Is(err, pgx.ErrNoRows) {
		return wardrobe.Outfit{}, wardrobe.ErrNotFound
	}
	if err != nil {
		return wardrobe.Outfit{}, fmt.Errorf("wardrobe store: outfit by id: %w", err)
	}
	return outfit, nil
}

// ListOutfits implements [wardrobe.Store]. Results are ordered newest first.
func (s *Store) ListOutfits(ctx context.Context, filter wardrobe.OutfitFilter) ([]wardrobe.Outfit, error) {
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var conditions []string
	if filter.Season != "" {
		conditions = append(conditions, "season = "+next(filter.Season))
	}
	if filter.Occasion != "" {
		conditions = append(conditions, "occasion = "+next(filter.Occasion))
	}

	q := "SELECT " + outfitColumns + " FROM outfits"
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
		return nil, fmt.Errorf("wardrobe store: list outfits: %w", err)
	}
	outfits, err := pgx.CollectRows(rows, scanOutfit)
	if err != nil {
		return nil, fmt.Errorf("wardrobe store: scan outfits: %w", err)
	}
	if outfits == nil {
		outfits = []wardrobe.Outfit{}
	}
	return outfits, nil
}

// DeleteOutfit implements [wardrobe.Store].
func (s *Store) DeleteOutfit(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM outfits WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("wardrobe store: delete outfit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return wardrobe.ErrNotFound
	}
	return nil
}

func scanOutfit(row pgx.CollectableRow) (wardrobe.Outfit, error) {
	var outfit wardrobe.Outfit
	err := row.Scan(
		&outfit.ID,
		&outfit.Name,
		&outfit.Description,
		&outfit.Season,
		&outfit.Occasion,
		&outfit.ItemIDs,
		&outfit.CreatedAt,
	)
	return outfit, err
}
