// Package resilience provides failover wrappers around external model
// providers.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm"
	"github.com/fitfinder-ai/fitfinder/pkg/types"
)

// ErrAllFailed is returned when every backend in an [LLMFallback] fails or is
// cooling down after repeated failures.
var ErrAllFailed = errors.New("resilience: all providers failed")

// Config tunes the per-backend failure tracking of an [LLMFallback].
type Config struct {
	// FailureThreshold is the number of consecutive failures after which a
	// backend is put on cooldown. Default: 3.
	FailureThreshold int

	// Cooldown is how long a backend is skipped after hitting the failure
	// threshold. Default: 30s.
	Cooldown time.Duration
}

func (c *Config) applyDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
}

// backend pairs a provider with its failure state.
type backend struct {
	name     string
	provider llm.Provider

	failures  int
	downUntil time.Time
}

// LLMFallback implements [llm.Provider] with automatic failover across
// multiple chat backends. Backends are tried in registration order; a backend
// that fails FailureThreshold times in a row is skipped until its cooldown
// expires.
//
// LLMFallback is safe for concurrent use.
type LLMFallback struct {
	mu       sync.Mutex
	backends []*backend
	cfg      Config
	now      func() time.Time
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred
// backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg Config) *LLMFallback {
	cfg.applyDefaults()
	return &LLMFallback{
		backends: []*backend{{name: primaryName, provider: primary}},
		cfg:      cfg,
		now:      time.Now,
	}
}

// AddFallback registers an additional provider. Fallbacks are tried in the
// order they are added, after the primary.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backends = append(f.backends, &backend{name: name, provider: provider})
}

// Complete sends the request to the first healthy backend and returns its
// response. Failing backends are marked and later skipped while cooling down.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var lastErr error
	for _, b := range f.healthy() {
		resp, err := b.provider.Complete(ctx, req)
		if err == nil {
			f.markSuccess(b)
			return resp, nil
		}
		lastErr = err
		f.markFailure(b)
		slog.Warn("llm backend failed, trying next", "backend", b.name, "error", err)

		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		return nil, ErrAllFailed
	}
	return nil, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}

// CountTokens delegates to the primary backend. Token counting is local
// arithmetic in all current adapters, so it does not participate in failover.
func (f *LLMFallback) CountTokens(messages []types.Message) (int, error) {
	f.mu.Lock()
	p := f.backends[0].provider
	f.mu.Unlock()
	return p.CountTokens(messages)
}

// Capabilities returns the capabilities of the primary backend.
func (f *LLMFallback) Capabilities() types.ModelCapabilities {
	f.mu.Lock()
	p := f.backends[0].provider
	f.mu.Unlock()
	return p.Capabilities()
}

// healthy returns the backends currently eligible for a request, in order.
// A backend whose cooldown has expired is eligible again.
func (f *LLMFallback) healthy() []*backend {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	res := make([]*backend, 0, len(f.backends))
	for _, b := range f.backends {
		if b.downUntil.After(now) {
			slog.Debug("skipping llm backend on cooldown", "backend", b.name)
			continue
		}
		res = append(res, b)
	}
	if len(res) == 0 {
		// Everything is cooling down. Retry the full chain rather than
		// failing without a single attempt.
		res = append(res, f.backends...)
	}
	return res
}

func (f *LLMFallback) markSuccess(b *backend) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.failures = 0
	b.downUntil = time.Time{}
}

func (f *LLMFallback) markFailure(b *backend) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.failures++
	if b.failures >= f.cfg.FailureThreshold {
		b.downUntil = f.now().Add(f.cfg.Cooldown)
		b.failures = 0
		slog.Warn("llm backend placed on cooldown", "backend", b.name, "until", b.downUntil)
	}
}
