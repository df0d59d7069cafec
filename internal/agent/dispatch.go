package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/pkg/types"
)

// ErrNoToolRequests is returned when the dispatch step is entered without a
// pending tool request batch. The dialogue step only transitions here after
// emitting requests, so hitting this is a contract violation.
var ErrNoToolRequests = errors.New("agent: dispatch: no tool requests in last assistant turn")

// dispatch executes the most recent assistant turn's tool requests in request
// order and appends one tool turn per request.
//
// Merge policy: the image-capture tool's payload is additionally folded into
// the canonical state keys (caption, image reference, item id, category);
// every other tool's payload is stored under the tool's name only. A failing
// invocation yields an error payload for its own tool turn and does not
// discard results already produced by earlier invocations in the batch.
func (c *Controller) dispatch(ctx context.Context, st *State) error {
	if len(st.Turns) == 0 {
		return ErrNoToolRequests
	}
	last := st.Turns[len(st.Turns)-1]
	if last.Role != types.RoleAssistant || len(last.ToolCalls) == 0 {
		return ErrNoToolRequests
	}

	for _, call := range last.ToolCalls {
		payload := c.invoke(ctx, st, call)
		st.append(types.Message{
			Role:       types.RoleTool,
			Name:       call.Name,
			Content:    string(payload),
			ToolCallID: call.ID,
		})
		st.setResult(call.Name, payload)
	}
	return nil
}

// invoke runs one tool call and returns its JSON payload. Errors are folded
// into an error payload instead of aborting the batch.
func (c *Controller) invoke(ctx context.Context, st *State, call types.ToolCall) json.RawMessage {
	log := observe.Logger(ctx)

	exec, ok := c.tools.executor(call.Name)
	if !ok {
		log.Warn("unknown tool requested", "tool", call.Name)
		c.caps.metrics().RecordToolCall(ctx, call.Name, "unknown")
		return errPayload(fmt.Sprintf("unknown tool %q", call.Name))
	}

	start := time.Now()
	payload, err := exec(ctx, st, call.Arguments)
	c.caps.metrics().ToolExecutionDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("tool", call.Name)))
	if err != nil {
		log.Error("tool execution failed", "tool", call.Name, "error", err)
		c.caps.metrics().RecordToolCall(ctx, call.Name, "error")
		return errPayload(err.Error())
	}
	c.caps.metrics().RecordToolCall(ctx, call.Name, "ok")
	return payload
}

// errPayload wraps an error message as a tool payload.
func errPayload(msg string) json.RawMessage {
	p, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return json.RawMessage(`{"error":"tool failed"}`)
	}
	return p
}
