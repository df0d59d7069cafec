// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify that the agent core sends correct
// CompletionRequests and to feed controlled responses without a live model
// backend. All fields are safe to set before calling any method; mutating
// them during a concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{
//	    Responses: []*llm.CompletionResponse{
//	        {ToolCalls: []types.ToolCall{{ID: "c1", Name: "search_items", Arguments: `{"query":"blue jeans"}`}}},
//	        {Content: "Here is what I found."},
//	    },
//	}
package mock

import (
	"context"
	"sync"

	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm"
	"github.com/fitfinder-ai/fitfinder/pkg/types"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
//
// Each Complete call consumes the next entry from Responses; when Responses
// is exhausted (or empty) Response is returned instead. Set Err to inject a
// failure on every call.
type Provider struct {
	mu   sync.Mutex
	next int

	// Responses is a script of responses returned by successive Complete
	// calls, in order.
	Responses []*llm.CompletionResponse

	// Response is returned once Responses is exhausted. May be nil, in which
	// case an empty response is returned.
	Response *llm.CompletionResponse

	// Err, if non-nil, is returned by every Complete call.
	Err error

	// TokenCount is returned by CountTokens.
	TokenCount int

	// ModelCapabilities is returned by Capabilities.
	ModelCapabilities types.ModelCapabilities

	// Calls records every invocation of Complete in order.
	Calls []CompleteCall
}

var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, CompleteCall{Ctx: ctx, Req: req})
	if p.Err != nil {
		return nil, p.Err
	}
	if p.next < len(p.Responses) {
		resp := p.Responses[p.next]
		p.next++
		return resp, nil
	}
	if p.Response != nil {
		return p.Response, nil
	}
	return &llm.CompletionResponse{}, nil
}

// CountTokens implements llm.Provider.
func (p *Provider) CountTokens(messages []types.Message) (int, error) {
	return p.TokenCount, nil
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() types.ModelCapabilities {
	return p.ModelCapabilities
}
