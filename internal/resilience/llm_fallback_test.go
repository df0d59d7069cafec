package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm/mock"
)

func TestCompleteUsesPrimary(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{Response: &llm.CompletionResponse{Content: "primary"}}
	secondary := &mock.Provider{Response: &llm.CompletionResponse{Content: "secondary"}}

	fb := NewLLMFallback(primary, "primary", Config{})
	fb.AddFallback("secondary", secondary)

	resp, err := fb.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "primary" {
		t.Errorf("Content = %q, want %q", resp.Content, "primary")
	}
	if len(secondary.Calls) != 0 {
		t.Errorf("secondary received %d calls, want 0", len(secondary.Calls))
	}
}

func TestCompleteFailsOver(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{Err: errors.New("boom")}
	secondary := &mock.Provider{Response: &llm.CompletionResponse{Content: "secondary"}}

	fb := NewLLMFallback(primary, "primary", Config{})
	fb.AddFallback("secondary", secondary)

	resp, err := fb.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "secondary" {
		t.Errorf("Content = %q, want %q", resp.Content, "secondary")
	}
}

func TestCompleteAllFail(t *testing.T) {
	t.Parallel()

	fb := NewLLMFallback(&mock.Provider{Err: errors.New("a")}, "a", Config{})
	fb.AddFallback("b", &mock.Provider{Err: errors.New("b")})

	_, err := fb.Complete(context.Background(), llm.CompletionRequest{})
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("Complete = %v, want ErrAllFailed", err)
	}
}

func TestCooldownSkipsFailingBackend(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{Err: errors.New("down")}
	secondary := &mock.Provider{Response: &llm.CompletionResponse{Content: "secondary"}}

	fb := NewLLMFallback(primary, "primary", Config{FailureThreshold: 2, Cooldown: time.Hour})
	fb.AddFallback("secondary", secondary)

	// Two failing rounds push the primary onto cooldown.
	for range 2 {
		if _, err := fb.Complete(context.Background(), llm.CompletionRequest{}); err != nil {
			t.Fatalf("Complete: %v", err)
		}
	}
	callsBefore := len(primary.Calls)

	if _, err := fb.Complete(context.Background(), llm.CompletionRequest{}); err != nil {
		t.Fatalf("Complete after cooldown trip: %v", err)
	}
	if len(primary.Calls) != callsBefore {
		t.Errorf("primary was called while on cooldown (%d -> %d calls)", callsBefore, len(primary.Calls))
	}
}

func TestCooldownExpires(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{Err: errors.New("down")}
	secondary := &mock.Provider{Response: &llm.CompletionResponse{Content: "secondary"}}

	fb := NewLLMFallback(primary, "primary", Config{FailureThreshold: 1, Cooldown: time.Minute})
	fb.AddFallback("secondary", secondary)

	now := time.Now()
	fb.now = func() time.Time { return now }

	if _, err := fb.Complete(context.Background(), llm.CompletionRequest{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	callsBefore := len(primary.Calls)

	// Advance past the cooldown; the primary becomes eligible again and a
	// recovered primary should win.
	now = now.Add(2 * time.Minute)
	primary.Err = nil
	primary.Response = &llm.CompletionResponse{Content: "recovered"}

	resp, err := fb.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete after recovery: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("Content = %q, want %q", resp.Content, "recovered")
	}
	if len(primary.Calls) != callsBefore+1 {
		t.Errorf("primary calls = %d, want %d", len(primary.Calls), callsBefore+1)
	}
}

func TestAllOnCooldownStillTriesChain(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{Err: errors.New("down")}
	fb := NewLLMFallback(primary, "primary", Config{FailureThreshold: 1, Cooldown: time.Hour})

	if _, err := fb.Complete(context.Background(), llm.CompletionRequest{}); !errors.Is(err, ErrAllFailed) {
		t.Fatalf("Complete = %v, want ErrAllFailed", err)
	}

	// The only backend is cooling down; it recovers and must be retried
	// instead of returning without an attempt.
	primary.Err = nil
	primary.Response = &llm.CompletionResponse{Content: "back"}

	resp, err := fb.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete with full cooldown: %v", err)
	}
	if resp.Content != "back" {
		t.Errorf("Content = %q, want %q", resp.Content, "back")
	}
}
