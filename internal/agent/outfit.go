package agent

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
	"github.com/fitfinder-ai/fitfinder/pkg/vecindex"
)

// defaultRequiredCategories are the slots an outfit must cover to count as
// complete.
var defaultRequiredCategories = []string{"top", "bottom", "shoes"}

// defaultMaxFillPasses caps fill-loop passes so an empty catalog cannot spin
// the loop unboundedly.
const defaultMaxFillPasses = 3

// seasonAny marks an outfit request without a season preference. It matches
// every item, including items stored without a season tag.
const seasonAny = "any"

// seasonKeywords maps utterance words to canonical seasons.
var seasonKeywords = map[string]string{
	"summer": "summer",
	"winter": "winter",
	"spring": "spring",
	"fall":   "fall",
	"autumn": "fall",
}

// OutfitState is the isolated state of one outfit-assembly delegation.
type OutfitState struct {
	// Anchor is the free-text description seeding the outfit.
	Anchor string

	// Season is the canonical season parsed from the request, or "any".
	Season string

	// Embedding is the anchor's vector.
	Embedding []float32

	// CandidateIDs is the structural-filter allow-list for anchor matching.
	CandidateIDs []string

	// Selected holds the chosen items in selection order.
	Selected []wardrobe.Item

	// Missing lists the required categories not yet covered, lower-case.
	Missing []string

	// Feedback records refinement notes from the user, oldest first.
	Feedback []string
}

// Stylist runs the outfit assembly loop: anchor resolution, candidate
// filtering, vector matching, the category fill loop, completeness checking
// and feedback handling.
type Stylist struct {
	caps Capabilities
	cfg  Config
}

// NewStylist creates a stylist over the given capabilities.
func NewStylist(caps Capabilities, cfg Config) *Stylist {
	return &Stylist{caps: caps, cfg: cfg}
}

// Assemble runs the loop once for the given user request and returns the
// final outfit state together with the reply text. The fill loop is bounded
// by the configured pass cap; an incomplete outfit after the last pass still
// produces a reply naming the uncovered slots.
func (s *Stylist) Assemble(ctx context.Context, utterance string) (*OutfitState, string, error) {
	st := &OutfitState{Missing: normalizeCategories(s.cfg.requiredCategories())}

	if err := s.ParseAnchor(ctx, st, utterance); err != nil {
		return nil, "", err
	}
	if err := s.FilterCandidates(ctx, st); err != nil {
		return nil, "", err
	}
	matches, err := s.VectorMatch(ctx, st, 1)
	if err != nil {
		return nil, "", err
	}
	if err := s.UpdateSelection(ctx, st, matches); err != nil {
		return nil, "", err
	}

	if cue := feedbackCue(utterance); cue != "" {
		s.HandleFeedback(st, cue)
	}

	for pass := 0; pass < s.cfg.maxFillPasses() && !s.CheckCompleteness(st); pass++ {
		progressed, err := s.FillPass(ctx, st)
		if err != nil {
			return nil, "", err
		}
		if !progressed {
			break
		}
	}

	reply, err := s.FinalReply(ctx, st)
	if err != nil {
		return nil, "", err
	}
	return st, reply, nil
}

// ParseAnchor extracts the season and anchor description from the utterance
// and computes the anchor's embedding. An utterance without a season keyword
// defaults to "any".
func (s *Stylist) ParseAnchor(ctx context.Context, st *OutfitState, utterance string) error {
	st.Anchor = strings.TrimSpace(utterance)
	st.Season = parseSeason(utterance)

	start := time.Now()
	vector, err := s.caps.Embedder.Embed(ctx, st.Anchor)
	s.caps.metrics().EmbeddingDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.caps.metrics().RecordProviderError(ctx, "embeddings", "embed")
		return fmt.Errorf("agent: outfit anchor embed: %w", err)
	}
	st.Embedding = vector
	return nil
}

// FilterCandidates queries the catalog by structural filters to produce the
// id allow-list for anchor matching.
func (s *Stylist) FilterCandidates(ctx context.Context, st *OutfitState) error {
	filter := wardrobe.ItemFilter{}
	if st.Season != seasonAny {
		filter.Season = st.Season
	}
	items, err := s.caps.Catalog.ListItems(ctx, filter)
	if err != nil {
		return fmt.Errorf("agent: outfit candidates: %w", err)
	}
	st.CandidateIDs = make([]string, 0, len(items))
	for _, item := range items {
		st.CandidateIDs = append(st.CandidateIDs, item.ID)
	}
	return nil
}

// VectorMatch runs a similarity search restricted to the candidate
// allow-list and returns the top k matches.
func (s *Stylist) VectorMatch(ctx context.Context, st *OutfitState, k int) ([]vecindex.Match, error) {
	start := time.Now()
	matches, err := s.caps.Index.Query(ctx, vecindex.CollectionClothingItems, st.Embedding, k,
		vecindex.Filter{AllowIDs: st.CandidateIDs})
	s.caps.metrics().VectorQueryDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("collection", vecindex.CollectionClothingItems)))
	if err != nil {
		return nil, fmt.Errorf("agent: outfit anchor match: %w", err)
	}
	return matches, nil
}

// UpdateSelection appends the matched items to the selection and recomputes
// the missing categories, case-insensitively.
func (s *Stylist) UpdateSelection(ctx context.Context, st *OutfitState, matches []vecindex.Match) error {
	for _, m := range matches {
		item, err := s.caps.Catalog.ItemByID(ctx, m.ID)
		if err != nil {
			// The index briefly outliving a deleted catalog record is not
			// fatal for outfit assembly.
			observe.Logger(ctx).Warn("matched item missing from catalog", "item", m.ID, "error", err)
			continue
		}
		if !s.selected(st, item.ID) {
			st.Selected = append(st.Selected, item)
		}
	}
	s.recomputeMissing(st)
	return nil
}

// FillPass runs one fill-loop pass: for each remaining missing category it
// issues a category-scoped similarity search and appends the best match.
// It reports whether any slot was filled.
func (s *Stylist) FillPass(ctx context.Context, st *OutfitState) (bool, error) {
	progressed := false
	for _, category := range slices.Clone(st.Missing) {
		filter := vecindex.Filter{Category: category}
		if st.Season != seasonAny {
			filter.Season = st.Season
		}

		start := time.Now()
		matches, err := s.caps.Index.Query(ctx, vecindex.CollectionClothingItems, st.Embedding, 1, filter)
		s.caps.metrics().VectorQueryDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(observe.Attr("collection", vecindex.CollectionClothingItems)))
		if err != nil {
			return progressed, fmt.Errorf("agent: outfit fill %s: %w", category, err)
		}
		if len(matches) == 0 || s.selected(st, matches[0].ID) {
			continue
		}

		item, err := s.caps.Catalog.ItemByID(ctx, matches[0].ID)
		if err != nil {
			observe.Logger(ctx).Warn("fill match missing from catalog", "item", matches[0].ID, "error", err)
			continue
		}
		st.Selected = append(st.Selected, item)
		progressed = true
	}
	s.recomputeMissing(st)
	return progressed, nil
}

// CheckCompleteness reports whether every required category is covered.
func (s *Stylist) CheckCompleteness(st *OutfitState) bool {
	return len(st.Missing) == 0
}

// HandleFeedback records a refinement request. When the cue names a selected
// category, that slot is vacated so the next fill pass replaces it.
func (s *Stylist) HandleFeedback(st *OutfitState, note string) {
	st.Feedback = append(st.Feedback, note)

	lower := strings.ToLower(note)
	kept := st.Selected[:0]
	for _, item := range st.Selected {
		category := strings.ToLower(item.Category)
		if category != "" && strings.Contains(lower, category) {
			continue
		}
		kept = append(kept, item)
	}
	st.Selected = kept
	s.recomputeMissing(st)
}

// FinalReply persists the assembled outfit, indexes it under the outfits
// collection, and renders the reply text presenting each piece.
func (s *Stylist) FinalReply(ctx context.Context, st *OutfitState) (string, error) {
	if len(st.Selected) == 0 {
		return "I couldn't find any items in your wardrobe to build that outfit from. Try adding a few pieces first.", nil
	}

	outfit := wardrobe.Outfit{
		ID:          uuid.NewString(),
		Name:        outfitName(st),
		Description: st.Anchor,
		Season:      st.Season,
	}
	for _, item := range st.Selected {
		outfit.ItemIDs = append(outfit.ItemIDs, item.ID)
	}

	if err := s.caps.Catalog.CreateOutfit(ctx, outfit); err != nil {
		return "", fmt.Errorf("agent: save outfit: %w", err)
	}
	if len(st.Embedding) > 0 {
		md := map[string]any{"description": outfit.Description}
		if outfit.Season != "" && outfit.Season != seasonAny {
			md["season"] = outfit.Season
		}
		if err := s.caps.Index.Upsert(ctx, vecindex.CollectionOutfits, outfit.ID, st.Embedding, md); err != nil {
			if delErr := s.caps.Catalog.DeleteOutfit(ctx, outfit.ID); delErr != nil {
				observe.Logger(ctx).Error("catalog and index diverged: compensation failed",
					"outfit", outfit.ID, "index_error", err, "delete_error", delErr)
			}
			return "", fmt.Errorf("agent: index outfit %s: %w", outfit.ID, err)
		}
	}

	s.caps.metrics().RecordOutfitComposed(ctx, st.Season)
	observe.Logger(ctx).Info("outfit composed", "outfit", outfit.ID, "items", len(outfit.ItemIDs), "season", st.Season)

	var b strings.Builder
	b.WriteString("Here's the outfit I put together for you:\n")
	for _, item := range st.Selected {
		fmt.Fprintf(&b, "- %s: %s\n", orUnknown(item.Category), item.Description)
	}
	if len(st.Missing) > 0 {
		fmt.Fprintf(&b, "I couldn't find anything for: %s.", strings.Join(st.Missing, ", "))
	}
	return strings.TrimSpace(b.String()), nil
}

// selected reports whether id is already part of the selection.
func (s *Stylist) selected(st *OutfitState, id string) bool {
	for _, item := range st.Selected {
		if item.ID == id {
			return true
		}
	}
	return false
}

// recomputeMissing sets Missing to the required set minus the categories
// present in the selection, case-insensitively, preserving required order.
func (s *Stylist) recomputeMissing(st *OutfitState) {
	present := make(map[string]bool, len(st.Selected))
	for _, item := range st.Selected {
		present[strings.ToLower(item.Category)] = true
	}
	missing := make([]string, 0, len(s.cfg.requiredCategories()))
	for _, category := range normalizeCategories(s.cfg.requiredCategories()) {
		if !present[category] {
			missing = append(missing, category)
		}
	}
	st.Missing = missing
}

// parseSeason scans the utterance for a season keyword, defaulting to "any".
func parseSeason(utterance string) string {
	for _, word := range strings.Fields(strings.ToLower(utterance)) {
		word = strings.Trim(word, ".,!?;:")
		if season, ok := seasonKeywords[word]; ok {
			return season
		}
	}
	return seasonAny
}

// feedbackCue returns the utterance when it carries a refinement cue, else
// the empty string.
func feedbackCue(utterance string) string {
	if strings.Contains(strings.ToLower(utterance), "swap") {
		return utterance
	}
	return ""
}

// outfitName derives a short display name from the outfit state.
func outfitName(st *OutfitState) string {
	if st.Season != "" && st.Season != seasonAny {
		return strings.ToUpper(st.Season[:1]) + st.Season[1:] + " outfit"
	}
	return "Outfit"
}

func orUnknown(category string) string {
	if category == "" {
		return "item"
	}
	return category
}

// normalizeCategories lower-cases the required category list.
func normalizeCategories(categories []string) []string {
	res := make([]string, len(categories))
	for i, c := range categories {
		res[i] = strings.ToLower(c)
	}
	return res
}
