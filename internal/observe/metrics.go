// Package observe provides application-wide observability primitives for
// FitFinder: OpenTelemetry metrics, tracing, and trace-aware structured
// logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all FitFinder metrics.
const meterName = "github.com/fitfinder-ai/fitfinder"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// LLMDuration tracks chat-completion latency.
	LLMDuration metric.Float64Histogram

	// EmbeddingDuration tracks embedding-generation latency.
	EmbeddingDuration metric.Float64Histogram

	// CaptionDuration tracks image-captioning latency.
	CaptionDuration metric.Float64Histogram

	// VectorQueryDuration tracks similarity-search latency.
	VectorQueryDuration metric.Float64Histogram

	// ToolExecutionDuration tracks tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// ConversationTurns counts completed conversation turns. Use with attribute:
	//   attribute.String("route", ...)
	ConversationTurns metric.Int64Counter

	// ItemsCaptured counts clothing items persisted through the capture
	// pipeline. Use with attribute: attribute.String("category", ...)
	ItemsCaptured metric.Int64Counter

	// OutfitsComposed counts outfits assembled by the stylist. Use with
	// attribute: attribute.String("season", ...)
	OutfitsComposed metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveConversations tracks the number of conversation turns currently
	// in flight.
	ActiveConversations metric.Int64UpDownCounter

	// --- Operational HTTP surface ---

	// HTTPRequestDuration tracks operational endpoint latency. Use with attributes:
	//   attribute.String("route", ...), attribute.String("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// remote model calls: sub-second embeddings up to multi-second completions.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.LLMDuration, err = m.Float64Histogram("fitfinder.llm.duration",
		metric.WithDescription("Latency of chat completions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EmbeddingDuration, err = m.Float64Histogram("fitfinder.embedding.duration",
		metric.WithDescription("Latency of embedding generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CaptionDuration, err = m.Float64Histogram("fitfinder.caption.duration",
		metric.WithDescription("Latency of image captioning."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.VectorQueryDuration, err = m.Float64Histogram("fitfinder.vector_query.duration",
		metric.WithDescription("Latency of similarity searches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("fitfinder.tool_execution.duration",
		metric.WithDescription("Latency of tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("fitfinder.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("fitfinder.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.ConversationTurns, err = m.Int64Counter("fitfinder.conversation.turns",
		metric.WithDescription("Total completed conversation turns by route."),
	); err != nil {
		return nil, err
	}
	if met.ItemsCaptured, err = m.Int64Counter("fitfinder.items.captured",
		metric.WithDescription("Total clothing items persisted by category."),
	); err != nil {
		return nil, err
	}
	if met.OutfitsComposed, err = m.Int64Counter("fitfinder.outfits.composed",
		metric.WithDescription("Total outfits assembled by season."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("fitfinder.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveConversations, err = m.Int64UpDownCounter("fitfinder.active_conversations",
		metric.WithDescription("Number of conversation turns currently in flight."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("fitfinder.http.request.duration",
		metric.WithDescription("Operational endpoint latency by route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordTurn is a convenience method that records a completed conversation
// turn for the given route.
func (m *Metrics) RecordTurn(ctx context.Context, route string) {
	m.ConversationTurns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("route", route)),
	)
}

// RecordItemCaptured is a convenience method that records one persisted
// clothing item.
func (m *Metrics) RecordItemCaptured(ctx context.Context, category string) {
	m.ItemsCaptured.Add(ctx, 1,
		metric.WithAttributes(attribute.String("category", category)),
	)
}

// RecordOutfitComposed is a convenience method that records one assembled
// outfit.
func (m *Metrics) RecordOutfitComposed(ctx context.Context, season string) {
	m.OutfitsComposed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("season", season)),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
