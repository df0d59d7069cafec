package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/pkg/types"
	"github.com/fitfinder-ai/fitfinder/pkg/vecindex"
)

// Tool names offered to the language model.
const (
	ToolCaptionImage = "caption_image"
	ToolSearchItems  = "search_items"
)

// defaultSearchK is the number of matches returned by search_items when the
// model does not ask for a specific count.
const defaultSearchK = 5

// executorFunc runs one tool invocation against the shared state.
type executorFunc func(ctx context.Context, st *State, args string) (json.RawMessage, error)

// toolset holds the fixed tool catalog and the executor for each tool.
type toolset struct {
	caps      Capabilities
	defs      []types.ToolDefinition
	executors map[string]executorFunc
}

func newToolset(caps Capabilities) *toolset {
	t := &toolset{caps: caps}
	t.defs = []types.ToolDefinition{
		{
			Name:        ToolCaptionImage,
			Description: "Analyze a photo of a clothing item. Stores the image and returns a caption, a category, and the new item id.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source": map[string]any{
						"type":        "string",
						"description": "Local file path or http(s) URL of the clothing photo.",
					},
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        ToolSearchItems,
			Description: "Search the user's wardrobe for clothing items matching a free-text description. Returns matching item ids.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to look for, e.g. 'blue jeans'.",
					},
					"k": map[string]any{
						"type":        "integer",
						"description": "Maximum number of matches to return. Defaults to 5.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
	t.executors = map[string]executorFunc{
		ToolCaptionImage: t.captionImage,
		ToolSearchItems:  t.searchItems,
	}
	return t
}

// catalog returns the tool definitions offered to the model on every
// dialogue step.
func (t *toolset) catalog() []types.ToolDefinition { return t.defs }

// executor returns the executor registered for name.
func (t *toolset) executor(name string) (executorFunc, bool) {
	exec, ok := t.executors[name]
	return exec, ok
}

// captionImage runs the image-capture capability and folds the structured
// result into the canonical state keys, starting the capture pipeline.
func (t *toolset) captionImage(ctx context.Context, st *State, args string) (json.RawMessage, error) {
	var req struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return nil, fmt.Errorf("caption_image: decode arguments: %w", err)
	}
	if req.Source == "" {
		return nil, fmt.Errorf("caption_image: source is required")
	}

	start := time.Now()
	capture, err := t.caps.Captioner.Describe(ctx, req.Source)
	t.caps.metrics().CaptionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		t.caps.metrics().RecordProviderError(ctx, "vision", "describe")
		return nil, fmt.Errorf("caption_image: %w", err)
	}
	t.caps.metrics().RecordProviderRequest(ctx, "vision", "describe", "ok")

	// Canonical keys for the routing function and the capture pipeline.
	st.Caption = capture.Caption
	st.ImageURL = capture.ImageURL
	st.ItemID = capture.ItemID
	st.Category = capture.Category

	payload, err := json.Marshal(map[string]string{
		"caption":   capture.Caption,
		"category":  capture.Category,
		"item_id":   capture.ItemID,
		"image_url": capture.ImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("caption_image: encode payload: %w", err)
	}
	return payload, nil
}

// searchItems embeds the query and runs a similarity search over the clothing
// collection, recording the matched ids for the fetch pipeline.
func (t *toolset) searchItems(ctx context.Context, st *State, args string) (json.RawMessage, error) {
	var req struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return nil, fmt.Errorf("search_items: decode arguments: %w", err)
	}
	if req.Query == "" {
		return nil, fmt.Errorf("search_items: query is required")
	}
	if req.K <= 0 {
		req.K = defaultSearchK
	}

	start := time.Now()
	vector, err := t.caps.Embedder.Embed(ctx, req.Query)
	t.caps.metrics().EmbeddingDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		t.caps.metrics().RecordProviderError(ctx, "embeddings", "embed")
		return nil, fmt.Errorf("search_items: embed query: %w", err)
	}

	start = time.Now()
	matches, err := t.caps.Index.Query(ctx, vecindex.CollectionClothingItems, vector, req.K, vecindex.Filter{})
	t.caps.metrics().VectorQueryDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("collection", vecindex.CollectionClothingItems)))
	if err != nil {
		return nil, fmt.Errorf("search_items: query index: %w", err)
	}

	ids := make([]string, 0, len(matches))
	scores := make(map[string]float64, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
		scores[m.ID] = m.Score
	}

	// An empty result still marks the search as performed so routing sends
	// the turn through the fetch pipeline.
	st.SearchIDs = ids
	st.SearchPerformed = true
	st.Scores = scores

	payload, err := json.Marshal(map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("search_items: encode payload: %w", err)
	}
	return payload, nil
}
