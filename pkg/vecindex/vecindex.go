// Package vecindex defines the vector index consumed by the agent core for
// similarity search over clothing items and outfits.
//
// The index stores one embedding per (collection, id) pair together with a
// flat metadata document. Queries return the nearest entries by cosine
// similarity, optionally restricted by an id allow-list and by metadata
// fields. Two implementations exist: a pgvector-backed Postgres index
// (subpackage postgres) and an in-memory test index (subpackage mock).
package vecindex

import "context"

// Collection names used by the wardrobe assistant.
const (
	CollectionClothingItems = "clothing_items"
	CollectionOutfits       = "outfits"
)

// Match is one result of a similarity query.
type Match struct {
	// ID is the entry's identifier within its collection.
	ID string

	// Score is the cosine similarity to the query vector, in [-1, 1] with
	// higher meaning more similar.
	Score float64

	// Metadata is the document stored alongside the embedding at upsert time.
	Metadata map[string]any
}

// Filter restricts a query to a subset of a collection. Zero-value fields do
// not filter.
type Filter struct {
	// AllowIDs, when non-nil, restricts matches to entries whose id is in the
	// list. A non-nil empty list matches nothing.
	AllowIDs []string

	// Category restricts matches to entries whose metadata "category" field
	// equals this value.
	Category string

	// Season restricts matches to entries whose metadata "season" field
	// equals this value. The special value "any" does not filter; items
	// stored without a season are only reachable through it.
	Season string
}

// Index is the abstraction over any vector search backend.
//
// Implementations must be safe for concurrent use. All vectors within one
// Index share the dimensionality fixed at construction time.
type Index interface {
	// Upsert inserts or fully replaces the entry id within collection.
	Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]any) error

	// Query returns up to k entries of collection nearest to vector, most
	// similar first, restricted by filter. An empty result is not an error.
	Query(ctx context.Context, collection string, vector []float32, k int, filter Filter) ([]Match, error)

	// Delete removes the entry id from collection. Deleting an absent id is
	// a no-op.
	Delete(ctx context.Context, collection, id string) error
}
