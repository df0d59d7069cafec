// Package embeddings defines the Provider interface for the text-embedding
// capability.
//
// A provider maps text strings to dense float32 vectors (e.g. OpenAI
// text-embedding-3, or a local sentence transformer). The agent core embeds
// item captions before persistence and outfit anchors before similarity
// search; both uses depend on every vector sharing one dimensionality.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by a single Provider instance share the dimensionality
// reported by Dimensions. Vectors from different Provider instances must not
// be mixed in one similarity computation unless both use the same model.
type Provider interface {
	// Embed computes the embedding vector for a single text string. Returns a
	// float32 slice of length Dimensions() or an error if the request fails
	// or ctx is cancelled. The text is passed through verbatim; any
	// model-specific prefixing is the caller's responsibility.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for a slice of texts in one provider call.
	// The returned slice has the same length as texts with the i-th element
	// corresponding to texts[i]. On error the entire result is nil — partial
	// results are never returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector produced by this
	// provider, constant for the Provider's lifetime.
	Dimensions() int

	// ModelID returns the provider-specific model identifier, for logging and
	// for verifying consistent model usage across a catalog.
	ModelID() string
}
