// Package types defines the shared types used across all FitFinder packages.
//
// These types form the lingua franca between capability providers, the agent
// core, and the storage layers. They are intentionally minimal — each package
// defines its own domain types, but cross-cutting data structures live here
// to avoid circular imports.
//
// Message is the single normalized conversation variant: every capability
// adapter converts into and out of it at the edges, never inside the core.
package types

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// IsValid reports whether r is a recognised conversation role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message represents a single turn in a conversation.
//
// Content is plain text for system/user/assistant turns. For tool turns it
// carries the JSON-encoded payload returned by the tool, and ToolCallID links
// it back to the assistant turn that requested the invocation.
type Message struct {
	// Role is the author of this turn.
	Role Role

	// Content is the text content of the turn.
	Content string

	// Name is the tool name when Role is tool, otherwise an optional
	// participant name.
	Name string

	// ToolCalls contains any tool invocations requested by the assistant.
	ToolCalls []ToolCall

	// ToolCallID is set when Role is tool, identifying which tool call this
	// turn responds to.
	ToolCallID string
}

// ToolCall represents a capability invocation requested by the language model.
type ToolCall struct {
	// ID is the unique identifier for this tool call (provider-assigned).
	ID string

	// Name is the tool name.
	Name string

	// Arguments is the JSON-encoded arguments string.
	Arguments string
}

// ToolDefinition describes a capability that can be offered to the language
// model in the dialogue step's tool catalog.
type ToolDefinition struct {
	// Name is the tool's unique identifier.
	Name string

	// Description explains what the tool does (included in model prompts).
	Description string

	// Parameters is the JSON Schema describing the tool's input parameters.
	Parameters map[string]any
}

// ModelCapabilities describes what a language model supports.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one
	// completion.
	MaxOutputTokens int

	// SupportsToolCalling indicates native function/tool calling support.
	SupportsToolCalling bool

	// SupportsVision indicates the model can process image inputs.
	SupportsVision bool
}
