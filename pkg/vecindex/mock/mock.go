// Package mock provides an in-memory implementation of vecindex.Index for
// tests. It mirrors the filter semantics of the Postgres implementation
// (id allow-list, category and season metadata equality) using exact cosine
// similarity instead of approximate HNSW search.
package mock

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/fitfinder-ai/fitfinder/pkg/vecindex"
)

var _ vecindex.Index = (*Index)(nil)

type entry struct {
	vector   []float32
	metadata map[string]any
}

// Index is an in-memory mock vector index. The zero value is ready to use.
// All methods are safe for concurrent use.
type Index struct {
	mu          sync.Mutex
	collections map[string]map[string]entry
	queries     int

	// UpsertErr, QueryErr and DeleteErr, when non-nil, are returned by the
	// corresponding method instead of touching the index.
	UpsertErr error
	QueryErr  error
	DeleteErr error
}

// Upsert implements vecindex.Index.
func (ix *Index) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]any) error {
	if ix.UpsertErr != nil {
		return ix.UpsertErr
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.collections == nil {
		ix.collections = make(map[string]map[string]entry)
	}
	coll := ix.collections[collection]
	if coll == nil {
		coll = make(map[string]entry)
		ix.collections[collection] = coll
	}
	coll[id] = entry{
		vector:   slices.Clone(vector),
		metadata: metadata,
	}
	return nil
}

// Query implements vecindex.Index.
func (ix *Index) Query(ctx context.Context, collection string, vector []float32, k int, filter vecindex.Filter) ([]vecindex.Match, error) {
	if ix.QueryErr != nil {
		return nil, ix.QueryErr
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.queries++

	matches := []vecindex.Match{}
	for id, e := range ix.collections[collection] {
		if filter.AllowIDs != nil && !slices.Contains(filter.AllowIDs, id) {
			continue
		}
		if filter.Category != "" && !metaEquals(e.metadata, "category", filter.Category) {
			continue
		}
		if filter.Season != "" && filter.Season != "any" && !metaEquals(e.metadata, "season", filter.Season) {
			continue
		}
		matches = append(matches, vecindex.Match{
			ID:       id,
			Score:    cosine(vector, e.vector),
			Metadata: e.metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID // deterministic tie-break
	})
	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Delete implements vecindex.Index.
func (ix *Index) Delete(ctx context.Context, collection, id string) error {
	if ix.DeleteErr != nil {
		return ix.DeleteErr
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.collections[collection], id)
	return nil
}

// QueryCalls reports how many queries were issued, across all collections.
func (ix *Index) QueryCalls() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.queries
}

// Len reports the number of entries in collection.
func (ix *Index) Len(collection string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.collections[collection])
}

func metaEquals(metadata map[string]any, key, want string) bool {
	v, ok := metadata[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == want
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
