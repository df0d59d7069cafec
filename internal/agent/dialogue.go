package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm"
	"github.com/fitfinder-ai/fitfinder/pkg/types"
)

// defaultSystemPrompt is the assistant persona used when the configuration
// does not override it.
const defaultSystemPrompt = `You are FitFinder, a personal wardrobe assistant.
You help the user catalogue clothing from photos, search their wardrobe, and
decide what to wear. Use the caption_image tool when the user shares a photo
of a clothing item, and the search_items tool when they ask to find items.
Answer in a friendly, concise tone. When a tool has already produced results
in this conversation, summarise them for the user instead of calling the tool
again.`

// dialogue invokes the language capability over the current turns and the
// fixed tool catalog. It appends exactly one assistant turn: either a
// terminal reply with no tool requests, or a turn carrying the requests for
// the dispatch step. Capability failure is fatal for the turn.
func (c *Controller) dialogue(ctx context.Context, st *State) (Step, error) {
	start := time.Now()
	resp, err := c.caps.LLM.Complete(ctx, llm.CompletionRequest{
		Messages:     st.Turns,
		Tools:        c.tools.catalog(),
		SystemPrompt: c.cfg.systemPrompt(),
	})
	c.caps.metrics().LLMDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		c.caps.metrics().RecordProviderError(ctx, "llm", "complete")
		return StepDone, fmt.Errorf("agent: dialogue: %w", err)
	}
	c.caps.metrics().RecordProviderRequest(ctx, "llm", "complete", "ok")

	st.append(types.Message{
		Role:      types.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	if len(resp.ToolCalls) == 0 {
		observe.Logger(ctx).Debug("dialogue produced terminal reply", "turns", len(st.Turns))
		return StepDone, nil
	}
	observe.Logger(ctx).Debug("dialogue requested tools", "count", len(resp.ToolCalls))
	return StepDispatch, nil
}
