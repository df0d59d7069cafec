package agent

import (
	"context"
	"strings"
	"testing"
)

func TestParseSeason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		utterance string
		want      string
	}{
		{"build me a summer outfit", "summer"},
		{"something for Winter, please", "winter"},
		{"an autumn look", "fall"},
		{"spring wedding outfit!", "spring"},
		{"dress me for the party", "any"},
		{"", "any"},
	}
	for _, tt := range tests {
		if got := parseSeason(tt.utterance); got != tt.want {
			t.Errorf("parseSeason(%q) = %q, want %q", tt.utterance, got, tt.want)
		}
	}
}

func TestCheckCompleteness(t *testing.T) {
	t.Parallel()

	s := NewStylist(newTestCaps().capabilities(), Config{})

	tests := []struct {
		name       string
		categories []string
		want       bool
	}{
		{"all three slots", []string{"top", "bottom", "shoes"}, true},
		{"mixed case still counts", []string{"TOP", "bottom", "Shoes"}, true},
		{"missing shoes", []string{"top", "bottom"}, false},
		{"empty selection", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := &OutfitState{}
			for i, category := range tt.categories {
				st.Selected = append(st.Selected, item(string(rune('a'+i)), "x", category, ""))
			}
			s.recomputeMissing(st)
			if got := s.CheckCompleteness(st); got != tt.want {
				t.Errorf("CheckCompleteness = %v (missing %v), want %v", got, st.Missing, tt.want)
			}
		})
	}
}

func TestHandleFeedbackVacatesSlot(t *testing.T) {
	t.Parallel()

	s := NewStylist(newTestCaps().capabilities(), Config{})
	st := &OutfitState{}
	st.Selected = append(st.Selected,
		item("i1", "white tee", "top", ""),
		item("i2", "sneakers", "shoes", ""),
	)
	s.recomputeMissing(st)

	s.HandleFeedback(st, "swap the top for something warmer")

	if len(st.Selected) != 1 || st.Selected[0].ID != "i2" {
		t.Fatalf("selected = %+v, want only the shoes", st.Selected)
	}
	if !contains(st.Missing, "top") {
		t.Errorf("missing = %v, want top vacated", st.Missing)
	}
	if len(st.Feedback) != 1 {
		t.Errorf("feedback notes = %d, want 1", len(st.Feedback))
	}
}

func TestAssembleSummerOutfit(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	seed(t, tc, item("i-top", "white linen shirt", "top", "summer"))
	seed(t, tc, item("i-bottom", "beige chino shorts", "bottom", "summer"))
	seed(t, tc, item("i-shoes", "canvas espadrilles", "shoes", "summer"))
	s := NewStylist(tc.capabilities(), Config{})

	st, reply, err := s.Assemble(context.Background(), "build me a summer outfit")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if st.Season != "summer" {
		t.Errorf("season = %q, want summer", st.Season)
	}
	if !s.CheckCompleteness(st) {
		t.Fatalf("outfit incomplete, missing %v", st.Missing)
	}
	if len(st.Selected) != 3 {
		t.Errorf("selected = %d items, want 3", len(st.Selected))
	}
	for _, piece := range []string{"white linen shirt", "beige chino shorts", "canvas espadrilles"} {
		if !strings.Contains(reply, piece) {
			t.Errorf("reply lacks %q:\n%s", piece, reply)
		}
	}

	// The composed outfit was persisted and indexed.
	outfits := tc.catalog.Outfits()
	if len(outfits) != 1 {
		t.Fatalf("outfits = %d, want 1", len(outfits))
	}
	if len(outfits[0].ItemIDs) != 3 {
		t.Errorf("outfit item ids = %v", outfits[0].ItemIDs)
	}
	if outfits[0].Season != "summer" {
		t.Errorf("outfit season = %q", outfits[0].Season)
	}
	if tc.index.Len("outfits") != 1 {
		t.Errorf("outfit index entries = %d, want 1", tc.index.Len("outfits"))
	}
}

func TestAssembleSeasonFiltersCandidates(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	seed(t, tc, item("i-coat", "puffy down coat", "top", "winter"))
	seed(t, tc, item("i-tee", "white tee", "top", "summer"))
	s := NewStylist(tc.capabilities(), Config{})

	st, _, err := s.Assemble(context.Background(), "a winter look")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for _, sel := range st.Selected {
		if sel.Season != "winter" {
			t.Errorf("selected off-season item %+v", sel)
		}
	}
	if len(st.Selected) == 0 || st.Selected[0].ID != "i-coat" {
		t.Errorf("selected = %+v, want the winter coat", st.Selected)
	}
}

func TestAssembleEmptyCatalog(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	s := NewStylist(tc.capabilities(), Config{})

	st, reply, err := s.Assemble(context.Background(), "build me an outfit")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(st.Selected) != 0 {
		t.Errorf("selected = %+v, want none", st.Selected)
	}
	if reply == "" {
		t.Error("empty reply for empty catalog")
	}
	// Nothing to compose means nothing persisted.
	if got := len(tc.catalog.Outfits()); got != 0 {
		t.Errorf("outfits = %d, want 0", got)
	}
	// The fill loop stops on the first pass without progress instead of
	// exhausting the pass cap against an empty index.
	if calls := tc.index.QueryCalls(); calls > 1+len(defaultRequiredCategories) {
		t.Errorf("index queries = %d, want at most %d", calls, 1+len(defaultRequiredCategories))
	}
}

func TestAssembleIncompleteNamesMissingSlots(t *testing.T) {
	t.Parallel()

	tc := newTestCaps()
	seed(t, tc, item("i-top", "white linen shirt", "top", "summer"))
	s := NewStylist(tc.capabilities(), Config{})

	st, reply, err := s.Assemble(context.Background(), "build me a summer outfit")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if s.CheckCompleteness(st) {
		t.Fatal("outfit reported complete with one item")
	}
	for _, slot := range []string{"bottom", "shoes"} {
		if !strings.Contains(reply, slot) {
			t.Errorf("reply does not name missing slot %q:\n%s", slot, reply)
		}
	}
	// A partial outfit is still saved.
	if got := len(tc.catalog.Outfits()); got != 1 {
		t.Errorf("outfits = %d, want 1", got)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
