package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fitfinder-ai/fitfinder/internal/config"
	storemock "github.com/fitfinder-ai/fitfinder/internal/wardrobe/mock"
	embmock "github.com/fitfinder-ai/fitfinder/pkg/provider/embeddings/mock"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm"
	llmmock "github.com/fitfinder-ai/fitfinder/pkg/provider/llm/mock"
	vismock "github.com/fitfinder-ai/fitfinder/pkg/provider/vision/mock"
	vecmock "github.com/fitfinder-ai/fitfinder/pkg/vecindex/mock"
)

type testDeps struct {
	llm     *llmmock.Provider
	catalog *storemock.Store
	index   *vecmock.Index
}

func newTestApp(t *testing.T) (*App, *testDeps) {
	t.Helper()

	deps := &testDeps{
		llm:     &llmmock.Provider{},
		catalog: &storemock.Store{},
		index:   &vecmock.Index{},
	}
	providers := &Providers{
		LLM:       deps.llm,
		Embedder:  &embmock.Provider{},
		Captioner: &vismock.Captioner{},
	}

	a, err := New(context.Background(), &config.Config{}, providers,
		WithCatalog(deps.catalog),
		WithIndex(deps.index),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, deps
}

func TestNewRequiresProviders(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Error("New accepted nil providers")
	}
	if _, err := New(context.Background(), cfg, &Providers{LLM: &llmmock.Provider{}}); err == nil {
		t.Error("New accepted missing embedder")
	}
}

func TestNewRequiresDSNWithoutInjectedStores(t *testing.T) {
	t.Parallel()

	providers := &Providers{
		LLM:      &llmmock.Provider{},
		Embedder: &embmock.Provider{},
	}
	_, err := New(context.Background(), &config.Config{}, providers)
	if err == nil || !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("New = %v, want missing-dsn error", err)
	}
}

func TestTurnKeepsSession(t *testing.T) {
	t.Parallel()

	a, deps := newTestApp(t)
	deps.llm.Responses = []*llm.CompletionResponse{
		{Content: "Hi! What are we looking for?"},
		{Content: "Noted."},
	}

	first := a.Turn(context.Background(), "hi")
	if !strings.Contains(first, "looking for") {
		t.Errorf("first reply = %q", first)
	}
	a.Turn(context.Background(), "I mostly wear dark colors")

	if len(deps.llm.Calls) != 2 {
		t.Fatalf("LLM calls = %d, want 2", len(deps.llm.Calls))
	}
	// The second turn carries the full history, not a fresh state.
	if first, second := len(deps.llm.Calls[0].Req.Messages), len(deps.llm.Calls[1].Req.Messages); second <= first {
		t.Errorf("second call messages = %d, want more than first call's %d", second, first)
	}
}

func TestChatLoopRepliesPerLine(t *testing.T) {
	t.Parallel()

	a, deps := newTestApp(t)
	deps.llm.Response = &llm.CompletionResponse{Content: "Hello from FitFinder."}

	var out bytes.Buffer
	in := strings.NewReader("hi\n\nstill there?\n")

	if err := a.chatLoop(context.Background(), in, &out); err != nil {
		t.Fatalf("chatLoop: %v", err)
	}

	if got := strings.Count(out.String(), "Hello from FitFinder."); got != 2 {
		t.Errorf("replies = %d, want 2 (blank line skipped)", got)
	}
}

func TestChatLoopStopsOnCancel(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A blocked reader must not keep the loop alive once ctx is done.
	err := a.chatLoop(ctx, blockedReader{}, &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("chatLoop = %v, want context.Canceled", err)
	}
}

type blockedReader struct{}

func (blockedReader) Read([]byte) (int, error) { select {} }

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	a, deps := newTestApp(t)
	handler := a.httpHandler()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		return rec
	}

	if rec := get("/healthz"); rec.Code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", rec.Code)
	}
	if rec := get("/readyz"); rec.Code != http.StatusOK {
		t.Errorf("/readyz = %d, want 200", rec.Code)
	}
	if rec := get("/metrics"); rec.Code != http.StatusOK {
		t.Errorf("/metrics = %d, want 200", rec.Code)
	}

	deps.catalog.Err = errors.New("database down")
	if rec := get("/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz with failing catalog = %d, want 503", rec.Code)
	}
}
