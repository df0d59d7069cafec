package agent

import (
	"context"
	"strings"
	"time"

	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
	"github.com/fitfinder-ai/fitfinder/pkg/types"
)

// outfitKeywords route an utterance to the outfit stylist. Matched
// case-insensitively as substrings.
var outfitKeywords = []string{"outfit", "wear", "style", "dress me"}

// apologyReply is the only thing the user sees when a sub-agent fails. The
// underlying error is logged, never surfaced.
const apologyReply = "Sorry, something went wrong while handling that. Please try again."

// Orchestrator classifies each incoming turn and delegates it to one of the
// two sub-agents: the clothing-item controller or the outfit stylist. It
// guarantees a non-empty assistant reply on every turn, converting sub-agent
// failures into a single apologetic turn.
type Orchestrator struct {
	caps       Capabilities
	cfg        Config
	controller *Controller
	stylist    *Stylist
}

// NewOrchestrator creates an orchestrator over the given capabilities.
func NewOrchestrator(caps Capabilities, cfg Config) *Orchestrator {
	return &Orchestrator{
		caps:       caps,
		cfg:        cfg,
		controller: NewController(caps, cfg),
		stylist:    NewStylist(caps, cfg),
	}
}

// Run executes one conversation turn to completion. The returned state's
// final assistant turn is the reply; it is never empty.
func (o *Orchestrator) Run(ctx context.Context, st *State) *State {
	log := observe.Logger(ctx)
	m := o.caps.metrics()

	m.ActiveConversations.Add(ctx, 1)
	defer m.ActiveConversations.Add(ctx, -1)

	utterance := st.LastUserContent()
	route := classify(utterance)
	log.Debug("turn classified", "route", route)

	ctx, span := observe.StartSpan(ctx, "turn."+route)
	defer span.End()

	var err error
	switch route {
	case "outfit":
		err = o.runStylist(ctx, st, utterance)
	default:
		err = o.controller.Run(ctx, st)
	}

	if err != nil {
		log.Error("sub-agent failed", "route", route, "error", err)
		st.append(types.Message{Role: types.RoleAssistant, Content: apologyReply})
	} else if st.LastAssistantContent() == "" {
		// A turn must never end without a reply, even if the model's
		// terminal message was empty.
		st.append(types.Message{Role: types.RoleAssistant, Content: apologyReply})
	}

	m.RecordTurn(ctx, route)
	o.recordHistory(ctx, st, utterance)
	return st
}

// runStylist delegates to the outfit stylist with fresh isolated state and
// folds the reply back into the conversation.
func (o *Orchestrator) runStylist(ctx context.Context, st *State, utterance string) error {
	outfit, reply, err := o.stylist.Assemble(ctx, utterance)
	if err != nil {
		return err
	}
	st.Items = append(st.Items[:0:0], outfit.Selected...)
	st.append(types.Message{Role: types.RoleAssistant, Content: reply})
	return nil
}

// recordHistory appends the completed exchange to the audit log. Failures
// only log; the reply has already been produced.
func (o *Orchestrator) recordHistory(ctx context.Context, st *State, utterance string) {
	entry := wardrobe.ChatEntry{
		Prompt:    utterance,
		Response:  st.LastAssistantContent(),
		ImageURL:  st.ImageURL,
		CreatedAt: time.Now(),
	}
	if err := o.caps.Catalog.AppendChatHistory(ctx, entry); err != nil {
		observe.Logger(ctx).Warn("failed to record chat history", "error", err)
	}
}

// classify picks the sub-agent for an utterance by keyword match against the
// style vocabulary.
func classify(utterance string) string {
	lower := strings.ToLower(utterance)
	for _, kw := range outfitKeywords {
		if strings.Contains(lower, kw) {
			return "outfit"
		}
	}
	return "item"
}
