package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq"},
	"embeddings": {"openai"},
	"vision":     {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	for _, f := range cfg.Providers.LLM.Fallbacks {
		validateProviderName("llm", f.Name)
	}
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)
	validateProviderName("vision", cfg.Providers.Vision.Name)

	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	}
	for i, f := range cfg.Providers.LLM.Fallbacks {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm.fallbacks[%d].name is required", i))
		}
	}

	// Embeddings ↔ storage dimensions
	if cfg.Providers.Embeddings.Name != "" && cfg.Storage.EmbeddingDimensions <= 0 {
		slog.Warn("providers.embeddings is configured but storage.embedding_dimensions is not set; defaulting to 1536")
	}

	// Storage availability
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; the wardrobe catalog and vector index will not be available")
	}

	// Agent
	if cfg.Agent.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("agent.max_steps %d must not be negative", cfg.Agent.MaxSteps))
	}
	if cfg.Agent.MaxFillPasses < 0 {
		errs = append(errs, fmt.Errorf("agent.max_fill_passes %d must not be negative", cfg.Agent.MaxFillPasses))
	}
	seen := make(map[string]int, len(cfg.Agent.RequiredCategories))
	for i, cat := range cfg.Agent.RequiredCategories {
		if cat == "" {
			errs = append(errs, fmt.Errorf("agent.required_categories[%d] must not be empty", i))
			continue
		}
		if prev, ok := seen[cat]; ok {
			errs = append(errs, fmt.Errorf("agent.required_categories[%d] %q is a duplicate of required_categories[%d]", i, cat, prev))
		}
		seen[cat] = i
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
