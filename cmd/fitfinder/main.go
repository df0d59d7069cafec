// Command fitfinder is the main entry point for the FitFinder wardrobe
// assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/fitfinder-ai/fitfinder/internal/app"
	"github.com/fitfinder-ai/fitfinder/internal/config"
	"github.com/fitfinder-ai/fitfinder/internal/imagestore"
	"github.com/fitfinder-ai/fitfinder/internal/observe"
	"github.com/fitfinder-ai/fitfinder/internal/resilience"
	oaembed "github.com/fitfinder-ai/fitfinder/pkg/provider/embeddings/openai"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm"
	"github.com/fitfinder-ai/fitfinder/pkg/provider/llm/anyllm"
	oavision "github.com/fitfinder-ai/fitfinder/pkg/provider/vision/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "fitfinder: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "fitfinder: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("fitfinder starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "fitfinder",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	// ── Image store ───────────────────────────────────────────────────────────
	var images *imagestore.Store
	if cfg.Storage.ImageDir != "" {
		images, err = imagestore.New(cfg.Storage.ImageDir)
		if err != nil {
			slog.Error("failed to create image store", "err", err)
			return 1
		}
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	providers, err := buildProviders(cfg, images)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	opts := []app.Option{}
	if images != nil {
		opts = append(opts, app.WithImageStore(images))
	}
	application, err := app.New(ctx, cfg, providers, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("ready — press Ctrl+C to shut down")

	if err := application.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutting down…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildProviders instantiates the chat, embeddings and vision providers named
// in cfg. The chat provider is wrapped in a failover chain when fallbacks are
// configured.
func buildProviders(cfg *config.Config, images *imagestore.Store) (*app.Providers, error) {
	ps := &app.Providers{}

	primary, err := newChatProvider(cfg.Providers.LLM.ProviderEntry)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	ps.LLM = primary
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name)

	if fallbacks := cfg.Providers.LLM.Fallbacks; len(fallbacks) > 0 {
		chain := resilience.NewLLMFallback(primary, cfg.Providers.LLM.Name, resilience.Config{})
		for _, entry := range fallbacks {
			p, err := newChatProvider(entry)
			if err != nil {
				return nil, fmt.Errorf("create llm fallback %q: %w", entry.Name, err)
			}
			chain.AddFallback(entry.Name, p)
			slog.Info("provider created", "kind", "llm-fallback", "name", entry.Name)
		}
		ps.LLM = chain
	}

	if entry := cfg.Providers.Embeddings; entry.Name != "" {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		if dims := cfg.Storage.EmbeddingDimensions; dims > 0 {
			opts = append(opts, oaembed.WithDimensions(dims))
		}
		p, err := oaembed.New(entry.APIKey, entry.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("create embeddings provider %q: %w", entry.Name, err)
		}
		ps.Embedder = p
		slog.Info("provider created", "kind", "embeddings", "name", entry.Name)
	}

	if entry := cfg.Providers.Vision; entry.Name != "" {
		if images == nil {
			return nil, fmt.Errorf("vision provider %q requires storage.image_dir", entry.Name)
		}
		var opts []oavision.Option
		if entry.BaseURL != "" {
			opts = append(opts, oavision.WithBaseURL(entry.BaseURL))
		}
		p, err := oavision.New(entry.APIKey, entry.Model, images, opts...)
		if err != nil {
			return nil, fmt.Errorf("create vision provider %q: %w", entry.Name, err)
		}
		ps.Captioner = p
		slog.Info("provider created", "kind", "vision", "name", entry.Name)
	}

	return ps, nil
}

// newChatProvider constructs one chat backend from its config entry. All
// hosted backends share the optional APIKey + BaseURL pattern; ollama is a
// local server addressed via BaseURL only.
func newChatProvider(entry config.ProviderEntry) (llm.Provider, error) {
	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Name, entry.Model, opts...)
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        FitFinder — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("Embeddings", cfg.Providers.Embeddings.Name, cfg.Providers.Embeddings.Model)
	printProvider("Vision", cfg.Providers.Vision.Name, cfg.Providers.Vision.Model)
	fmt.Printf("║  LLM fallbacks   : %-19d ║\n", len(cfg.Providers.LLM.Fallbacks))
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
