// Package agent implements the conversational core of the FitFinder wardrobe
// assistant: a cyclic step graph that turns one user utterance (plus optional
// image) into tool invocations, ordered catalog side effects, and exactly one
// reply.
//
// The graph is run by an explicit finite-state controller (see controller.go)
// rather than mutual recursion, so every turn terminates within a hard step
// cap. An [Orchestrator] classifies each incoming turn and delegates it either
// to the item controller or to the outfit [Stylist], each with isolated state.
package agent

import (
	"encoding/json"

	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/embeddings"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/vision"
	"github.com/fitfinder-ai/fitfinder/pkg/types"
	"github.com/fitfinder-ai/fitfinder/pkg/vecindex"
)

// State is the conversation state for one incoming user message. It is
// created per message and discarded after the reply is extracted.
//
// Turns is append-only; the scratch fields below it are written by tool
// dispatch and consumed by the pipelines.
type State struct {
	// Turns is the ordered conversation history. The last user turn drives
	// the current exchange; the final assistant turn is the reply.
	Turns []types.Message

	// Caption, ImageURL, ItemID and Category are the canonical keys
	// extracted from an image-capture tool result.
	Caption  string
	ImageURL string
	ItemID   string
	Category string

	// Embedding is the vector computed for Caption by the capture pipeline.
	Embedding []float32

	// SearchIDs holds the ids returned by the most recent item search.
	// SearchPerformed discriminates an empty search result from no search at
	// all, so routing can send an empty result through the fetch pipeline.
	SearchIDs       []string
	SearchPerformed bool

	// Scores maps search-result ids to their similarity scores.
	Scores map[string]float64

	// Items holds the catalog records fetched for SearchIDs, for the caller
	// to display alongside the reply.
	Items []wardrobe.Item

	// Results stores each tool's raw payload under the tool's name.
	Results map[string]json.RawMessage
}

// NewState creates a State seeded with the given user utterance.
func NewState(utterance string) *State {
	return &State{
		Turns: []types.Message{{Role: types.RoleUser, Content: utterance}},
	}
}

// AddUserTurn appends a new user utterance and resets the per-turn scratch
// keys so the previous turn's image or search results cannot leak into the
// new turn's routing.
func (s *State) AddUserTurn(utterance string) {
	s.Turns = append(s.Turns, types.Message{Role: types.RoleUser, Content: utterance})
	s.Caption = ""
	s.ImageURL = ""
	s.ItemID = ""
	s.Category = ""
	s.Embedding = nil
	s.SearchIDs = nil
	s.SearchPerformed = false
	s.Scores = nil
	s.Items = nil
}

// LastUserContent returns the content of the most recent user turn, or the
// empty string when there is none.
func (s *State) LastUserContent() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == types.RoleUser {
			return s.Turns[i].Content
		}
	}
	return ""
}

// LastAssistantContent returns the content of the most recent assistant turn,
// or the empty string when there is none.
func (s *State) LastAssistantContent() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == types.RoleAssistant {
			return s.Turns[i].Content
		}
	}
	return ""
}

// append adds one turn to the history.
func (s *State) append(msg types.Message) {
	s.Turns = append(s.Turns, msg)
}

// setResult stores a tool's raw payload under its name.
func (s *State) setResult(tool string, payload json.RawMessage) {
	if s.Results == nil {
		s.Results = make(map[string]json.RawMessage)
	}
	s.Results[tool] = payload
}

// Capabilities bundles the external collaborators injected into the
// controller at invocation time, so tests can substitute fakes per case
// without global state.
type Capabilities struct {
	LLM       llm.Provider
	Embedder  embeddings.Provider
	Captioner vision.Captioner
	Index     vecindex.Index
	Catalog   wardrobe.Store
	Metrics   *observe.Metrics
}

// metrics returns the configured metrics or the process-wide default.
func (c Capabilities) metrics() *observe.Metrics {
	if c.Metrics != nil {
		return c.Metrics
	}
	return observe.DefaultMetrics()
}
