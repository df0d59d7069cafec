package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
	"github.com/fitfinder-ai/fitfinder/pkg/vecindex"
)

// Capture pipeline invariant violations. These are never silently defaulted:
// an item must not reach the catalog without a caption and an embedding.
var (
	ErrNoCaption   = errors.New("agent: embed: no caption in state")
	ErrNoEmbedding = errors.New("agent: persist: no embedding in state")
	ErrNoImageURL  = errors.New("agent: persist: no image reference in state")
)

// embed computes the embedding vector for the pending caption.
func (c *Controller) embed(ctx context.Context, st *State) error {
	if st.Caption == "" {
		return ErrNoCaption
	}

	start := time.Now()
	vector, err := c.caps.Embedder.Embed(ctx, st.Caption)
	c.caps.metrics().EmbeddingDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		c.caps.metrics().RecordProviderError(ctx, "embeddings", "embed")
		return fmt.Errorf("agent: embed caption: %w", err)
	}
	c.caps.metrics().RecordProviderRequest(ctx, "embeddings", "embed", "ok")

	st.Embedding = vector
	return nil
}

// persist writes one item record to the catalog and one index entry to the
// vector index under the same id, then clears the consumed capture keys so
// the routing function does not re-enter the pipeline.
//
// The two writes are treated as one logical unit: if the index write fails,
// the catalog record is removed again. A failing compensation is logged as a
// divergence and the original error is returned either way.
func (c *Controller) persist(ctx context.Context, st *State) error {
	if st.Caption == "" {
		return ErrNoCaption
	}
	if len(st.Embedding) == 0 {
		return ErrNoEmbedding
	}
	if st.ImageURL == "" {
		return ErrNoImageURL
	}

	if st.ItemID == "" {
		st.ItemID = uuid.NewString()
	}

	item := wardrobe.Item{
		ID:          st.ItemID,
		Description: st.Caption,
		Category:    st.Category,
		ImageURL:    st.ImageURL,
	}
	if err := c.caps.Catalog.CreateItem(ctx, item); err != nil {
		return fmt.Errorf("agent: persist item %s: %w", st.ItemID, err)
	}

	metadata := itemMetadata(item)
	if err := c.caps.Index.Upsert(ctx, vecindex.CollectionClothingItems, st.ItemID, st.Embedding, metadata); err != nil {
		if delErr := c.caps.Catalog.DeleteItem(ctx, st.ItemID); delErr != nil {
			observe.Logger(ctx).Error("catalog and index diverged: compensation failed",
				"item", st.ItemID, "index_error", err, "delete_error", delErr)
		}
		return fmt.Errorf("agent: index item %s: %w", st.ItemID, err)
	}

	c.caps.metrics().RecordItemCaptured(ctx, item.Category)
	observe.Logger(ctx).Info("item captured", "item", st.ItemID, "category", item.Category)

	// The capture keys are consumed; routing must not send the next dispatch
	// back into the pipeline.
	st.Caption = ""
	st.Embedding = nil
	return nil
}

// itemMetadata builds the index metadata document for an item, stripped of
// empty values.
func itemMetadata(item wardrobe.Item) map[string]any {
	md := make(map[string]any, 6)
	put := func(key, value string) {
		if value != "" {
			md[key] = value
		}
	}
	put("description", item.Description)
	put("category", item.Category)
	put("color", item.Color)
	put("season", item.Season)
	put("image_url", item.ImageURL)
	if len(item.Tags) > 0 {
		md["tags"] = item.Tags
	}
	return md
}
