// Package app wires all FitFinder subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the chat loop alongside the metrics/health
// server, and Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithCatalog, WithIndex, etc.). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/fitfinder-ai/fitfinder/internal/agent"
	"github.com/fitfinder-ai/fitfinder/internal/config"
	"github.com/fitfinder-ai/fitfinder/internal/imagestore"
	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
	wardrobepg "github.com/fitfinder-ai/fitfinder/internal/wardrobe/postgres"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/embeddings"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/vision"
	"github.com/fitfinder-ai/fitfinder/pkg/vecindex"
	vecpg "github.com/fitfinder-ai/fitfinder/pkg/vecindex/postgres"
)

// defaultEmbeddingDims matches OpenAI text-embedding-3-small.
const defaultEmbeddingDims = 1536

// Providers holds one interface value per model-backed capability. Populated
// by main.go from the configuration.
type Providers struct {
	LLM       llm.Provider
	Embedder  embeddings.Provider
	Captioner vision.Captioner
}

// App owns all subsystem lifetimes and runs the FitFinder assistant.
type App struct {
	cfg       *config.Config
	providers *Providers

	catalog wardrobe.Store
	index   vecindex.Index
	images  *imagestore.Store
	metrics *observe.Metrics

	orchestrator *agent.Orchestrator
	session      *agent.State
	server       *http.Server

	// closers are called in reverse order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithCatalog injects a catalog store instead of connecting to Postgres.
func WithCatalog(s wardrobe.Store) Option {
	return func(a *App) { a.catalog = s }
}

// WithIndex injects a vector index instead of connecting to Postgres.
func WithIndex(ix vecindex.Index) Option {
	return func(a *App) { a.index = ix }
}

// WithImageStore injects an image store instead of creating one from config.
func WithImageStore(s *imagestore.Store) Option {
	return func(a *App) { a.images = s }
}

// WithMetrics injects a metrics instance instead of the package-level default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go. Use Option functions to inject test doubles for the
// storage subsystems.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.LLM == nil {
		return nil, errors.New("app: an llm provider is required")
	}
	if providers.Embedder == nil {
		return nil, errors.New("app: an embeddings provider is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("app: init storage: %w", err)
	}

	a.orchestrator = agent.NewOrchestrator(agent.Capabilities{
		LLM:       providers.LLM,
		Embedder:  providers.Embedder,
		Captioner: providers.Captioner,
		Index:     a.index,
		Catalog:   a.catalog,
	}, agent.Config{
		MaxSteps:           cfg.Agent.MaxSteps,
		MaxFillPasses:      cfg.Agent.MaxFillPasses,
		RequiredCategories: cfg.Agent.RequiredCategories,
		SystemPrompt:       cfg.Agent.SystemPrompt,
	})

	return a, nil
}

// initStorage connects the Postgres catalog, the vector index and the image
// directory, unless test doubles were injected.
func (a *App) initStorage(ctx context.Context) error {
	dsn := a.cfg.Storage.PostgresDSN
	if (a.catalog == nil || a.index == nil) && dsn == "" {
		return errors.New("storage.postgres_dsn is required when stores are not injected")
	}

	if a.catalog == nil {
		store, err := wardrobepg.NewStore(ctx, dsn)
		if err != nil {
			return err
		}
		a.catalog = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
	}

	if a.index == nil {
		dims := a.cfg.Storage.EmbeddingDimensions
		if dims == 0 {
			dims = defaultEmbeddingDims
		}
		index, err := vecpg.New(ctx, dsn, dims)
		if err != nil {
			return err
		}
		a.index = index
		a.closers = append(a.closers, func() error {
			index.Close()
			return nil
		})
	}

	if a.images == nil && a.cfg.Storage.ImageDir != "" {
		images, err := imagestore.New(a.cfg.Storage.ImageDir)
		if err != nil {
			return err
		}
		a.images = images
	}

	return nil
}

// Run starts the metrics/health server and the interactive chat loop and
// blocks until ctx is cancelled or the chat input is exhausted.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	g, ctx := errgroup.WithContext(ctx)

	if addr := a.cfg.Server.ListenAddr; addr != "" {
		a.server = &http.Server{
			Addr:              addr,
			Handler:           a.httpHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("app: metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer slog.Info("chat loop finished")
		return a.chatLoop(ctx, in, out)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return err
}

// httpHandler builds the operational HTTP surface: Prometheus metrics plus
// liveness and readiness probes, each route wrapped with its own tracing and
// latency instrumentation.
func (a *App) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", a.operational("metrics", promhttp.Handler()))
	mux.Handle("GET /healthz", a.operational("healthz", http.HandlerFunc(a.healthz)))
	mux.Handle("GET /readyz", a.operational("readyz", http.HandlerFunc(a.readyz)))
	return mux
}

// chatLoop reads user utterances line by line and runs one conversation turn
// for each. The conversation state persists across turns within one run.
func (a *App) chatLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "FitFinder is ready. Describe an item, share an image path, or ask for an outfit. Ctrl+D to quit.")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("app: read input: %w", err)
					}
				default:
				}
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			fmt.Fprintln(out, a.Turn(ctx, line))
		}
	}
}

// Turn runs one conversation turn against the persistent session state and
// returns the assistant's reply.
func (a *App) Turn(ctx context.Context, utterance string) string {
	if a.session == nil {
		a.session = agent.NewState(utterance)
	} else {
		a.session.AddUserTurn(utterance)
	}
	a.orchestrator.Run(ctx, a.session)
	return a.session.LastAssistantContent()
}

// Shutdown closes all subsystems in reverse initialisation order. Safe to
// call multiple times.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
