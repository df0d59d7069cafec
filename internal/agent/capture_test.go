package agent

import (
	"context"
	"errors"
	"testing"
)

func TestEmbedRequiresCaption(t *testing.T) {
	t.Parallel()

	c := NewController(newTestCaps().capabilities(), Config{})
	st := NewState("add this")

	if err := c.embed(context.Background(), st); !errors.Is(err, ErrNoCaption) {
		t.Errorf("embed = %v, want ErrNoCaption", err)
	}
	if st.Embedding != nil {
		t.Error("embedding fabricated without a caption")
	}
}

func TestEmbedProducesVector(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	c := NewController(tc.capabilities(), Config{})
	st := &State{Caption: "red t-shirt"}

	if err := c.embed(context.Background(), st); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(st.Embedding) == 0 {
		t.Fatal("no embedding produced")
	}
	if len(tc.embedder.Inputs) != 1 || tc.embedder.Inputs[0] != "red t-shirt" {
		t.Errorf("embedder inputs = %v", tc.embedder.Inputs)
	}
}

func TestPersistRequiresEmbedding(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	c := NewController(tc.capabilities(), Config{})
	st := &State{Caption: "red t-shirt", ImageURL: "/images/clothing_items/x.jpg"}

	if err := c.persist(context.Background(), st); !errors.Is(err, ErrNoEmbedding) {
		t.Errorf("persist = %v, want ErrNoEmbedding", err)
	}
	if got := len(tc.catalog.Items()); got != 0 {
		t.Errorf("catalog items = %d after failed persist, want 0", got)
	}
	if tc.index.Len("clothing_items") != 0 {
		t.Error("index entry written without an embedding")
	}
}

func TestPersistRequiresImageURL(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	c := NewController(tc.capabilities(), Config{})
	st := &State{Caption: "red t-shirt", Embedding: []float32{0.1, 0.2}}

	if err := c.persist(context.Background(), st); !errors.Is(err, ErrNoImageURL) {
		t.Errorf("persist = %v, want ErrNoImageURL", err)
	}
}

func TestPersistWritesCatalogAndIndex(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	c := NewController(tc.capabilities(), Config{})
	st := &State{
		Caption:   "blue denim jeans",
		Category:  "bottom",
		ImageURL:  "/images/clothing_items/item-7.jpg",
		ItemID:    "item-7",
		Embedding: []float32{0.4, 0.1, 0.9},
	}

	if err := c.persist(context.Background(), st); err != nil {
		t.Fatalf("persist: %v", err)
	}

	item, err := tc.catalog.ItemByID(context.Background(), "item-7")
	if err != nil {
		t.Fatalf("ItemByID: %v", err)
	}
	if item.Description != "blue denim jeans" || item.Category != "bottom" {
		t.Errorf("item = %+v", item)
	}
	if tc.index.Len("clothing_items") != 1 {
		t.Errorf("index entries = %d, want 1", tc.index.Len("clothing_items"))
	}

	// Consumed inputs are cleared so the next routing decision is fresh.
	if st.Caption != "" || st.Embedding != nil {
		t.Errorf("pipeline inputs not cleared: caption=%q embedding=%v", st.Caption, st.Embedding)
	}
	if got := route(st); got != StepDialogue {
		t.Errorf("route after persist = %v, want StepDialogue", got)
	}
}

func TestPersistGeneratesID(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	c := NewController(tc.capabilities(), Config{})
	st := &State{
		Caption:   "green scarf",
		ImageURL:  "/images/clothing_items/unset.jpg",
		Embedding: []float32{0.2},
	}

	if err := c.persist(context.Background(), st); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if st.ItemID == "" {
		t.Fatal("no id generated")
	}
	if _, err := tc.catalog.ItemByID(context.Background(), st.ItemID); err != nil {
		t.Errorf("ItemByID(%q): %v", st.ItemID, err)
	}
}

func TestPersistCompensatesOnIndexFailure(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	tc.index.UpsertErr = errors.New("index down")
	c := NewController(tc.capabilities(), Config{})
	st := &State{
		Caption:   "wool coat",
		Category:  "outerwear",
		ImageURL:  "/images/clothing_items/item-9.jpg",
		ItemID:    "item-9",
		Embedding: []float32{0.3, 0.7},
	}

	if err := c.persist(context.Background(), st); err == nil {
		t.Fatal("persist succeeded with a failing index")
	}
	// The catalog write was rolled back so no half-captured item is visible.
	if got := len(tc.catalog.Items()); got != 0 {
		t.Errorf("catalog items = %d after rollback, want 0", got)
	}
}

func TestItemMetadataStripsEmptyValues(t *testing.T) {
	t.Parallel()

	md := itemMetadata(item("id-1", "red t-shirt", "top", ""))
	if _, ok := md["season"]; ok {
		t.Error("empty season kept in metadata")
	}
	if md["category"] != "top" {
		t.Errorf("category = %v", md["category"])
	}
	if md["description"] != "red t-shirt" {
		t.Errorf("description = %v", md["description"])
	}
}
