// Package llm defines the Provider interface for the language capability.
//
// A provider wraps a remote or local chat-completion API (e.g. GPT-4o, Claude,
// or a local Ollama instance) and exposes a uniform interface for the agent
// core to request one completion per dialogue step without coupling to any
// specific SDK.
//
// Implementations must be safe for concurrent use.
package llm

import (
	"context"

	"github.com/fitfinder-ai/fitfinder/pkg/types"
)

// Usage holds token accounting information returned by the model backend.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages and
	// system prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the model needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is
	// typically from the user role and drives the response.
	Messages []types.Message

	// Tools is the catalog of capability definitions offered to the model.
	// The model may request one or more of them in its response.
	Tools []types.ToolDefinition

	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation history. Providers that lack a dedicated system field
	// prepend it as a system-role message.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero requests the
	// provider default.
	Temperature float64

	// MaxTokens caps completion length. Zero means the provider default.
	MaxTokens int
}

// CompletionResponse is the model's answer to a single CompletionRequest.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply. Empty when the model
	// responds exclusively with tool calls.
	Content string

	// ToolCalls lists all capability invocations requested by the model, in
	// the order the model emitted them. The caller executes them and appends
	// the results to the conversation.
	ToolCalls []types.ToolCall

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any chat-completion backend.
//
// The agent core issues exactly one Complete call per dialogue step and treats
// any error as fatal for the current turn; retry and failover live in wrapper
// implementations, not here. Implementations must be safe for concurrent use
// and must return promptly when ctx is cancelled.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates how many tokens the given message list would
	// consume in the model's context window. The result need not be exact but
	// should not undercount.
	CountTokens(messages []types.Message) (int, error)

	// Capabilities returns static metadata describing what this provider's
	// underlying model supports. Assumed constant for the Provider's lifetime.
	Capabilities() types.ModelCapabilities
}
