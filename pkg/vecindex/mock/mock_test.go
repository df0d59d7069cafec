package mock

import (
	"context"
	"testing"

	"github.com/fitfinder-ai/fitfinder/pkg/vecindex"
)

func TestQueryFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ix := &Index{}

	seed := []struct {
		id       string
		vector   []float32
		metadata map[string]any
	}{
		{"shirt-1", []float32{1, 0}, map[string]any{"category": "top", "season": "summer"}},
		{"jeans-1", []float32{0.9, 0.1}, map[string]any{"category": "bottom", "season": "summer"}},
		{"boots-1", []float32{0, 1}, map[string]any{"category": "shoes", "season": "winter"}},
	}
	for _, s := range seed {
		if err := ix.Upsert(ctx, vecindex.CollectionClothingItems, s.id, s.vector, s.metadata); err != nil {
			t.Fatalf("upsert %s: %v", s.id, err)
		}
	}

	t.Run("nearest first", func(t *testing.T) {
		t.Parallel()
		matches, err := ix.Query(ctx, vecindex.CollectionClothingItems, []float32{1, 0}, 3, vecindex.Filter{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 3 {
			t.Fatalf("want 3 matches, got %d", len(matches))
		}
		if matches[0].ID != "shirt-1" {
			t.Errorf("want shirt-1 first, got %s", matches[0].ID)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		t.Parallel()
		matches, err := ix.Query(ctx, vecindex.CollectionClothingItems, []float32{1, 0}, 5, vecindex.Filter{Category: "bottom"})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 1 || matches[0].ID != "jeans-1" {
			t.Fatalf("want only jeans-1, got %v", matches)
		}
	})

	t.Run("season any does not filter", func(t *testing.T) {
		t.Parallel()
		matches, err := ix.Query(ctx, vecindex.CollectionClothingItems, []float32{1, 0}, 5, vecindex.Filter{Season: "any"})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 3 {
			t.Errorf("want 3 matches, got %d", len(matches))
		}
	})

	t.Run("empty allow-list matches nothing", func(t *testing.T) {
		t.Parallel()
		matches, err := ix.Query(ctx, vecindex.CollectionClothingItems, []float32{1, 0}, 5, vecindex.Filter{AllowIDs: []string{}})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("want no matches, got %v", matches)
		}
	})

	t.Run("allow-list restricts", func(t *testing.T) {
		t.Parallel()
		matches, err := ix.Query(ctx, vecindex.CollectionClothingItems, []float32{1, 0}, 1, vecindex.Filter{AllowIDs: []string{"boots-1"}})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 1 || matches[0].ID != "boots-1" {
			t.Fatalf("want boots-1, got %v", matches)
		}
	})

	t.Run("unknown collection is empty", func(t *testing.T) {
		t.Parallel()
		matches, err := ix.Query(ctx, "nope", []float32{1, 0}, 5, vecindex.Filter{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("want no matches, got %v", matches)
		}
	})
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	t.Parallel()

	ix := &Index{}
	if err := ix.Delete(context.Background(), vecindex.CollectionClothingItems, "absent"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}
