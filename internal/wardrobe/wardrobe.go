// Package wardrobe defines the catalog store for clothing items and outfits.
//
// The store is a plain record catalog: structural filters and id lookups only.
// Similarity search lives in [pkg/vecindex]; the agent core keeps the two in
// step by writing the catalog record first and the index entry second under
// the same id.
package wardrobe

import (
	"context"
	"time"
)

// Item is one catalog record for a clothing item.
type Item struct {
	// ID is the stable identifier, shared with the vector index entry and the
	// stored image.
	ID string

	// Description is the caption generated at capture time.
	Description string

	// Category is one of the closed clothing vocabulary (top, bottom, shoes,
	// accessories). May be empty for legacy records.
	Category string

	// Color is an optional dominant colour.
	Color string

	// Season is an optional season tag (summer, winter, spring, fall).
	Season string

	// ImageURL is the reference under which the item's image is served.
	ImageURL string

	// Tags are free-form labels.
	Tags []string

	// CreatedAt is when the record was first written.
	CreatedAt time.Time
}

// Outfit is one composed outfit record.
type Outfit struct {
	ID          string
	Name        string
	Description string
	Season      string
	Occasion    string

	// ItemIDs lists the member items in selection order.
	ItemIDs []string

	CreatedAt time.Time
}

// ItemFilter restricts ListItems. Zero-value fields do not filter.
type ItemFilter struct {
	Category string
	Season   string
	Tag      string

	// Limit caps the result size; zero means the store default.
	Limit int

	// Offset skips the first Offset records.
	Offset int
}

// OutfitFilter restricts ListOutfits. Zero-value fields do not filter.
type OutfitFilter struct {
	Season   string
	Occasion string
	Limit    int
	Offset   int
}

// ChatEntry is one prompt/response exchange recorded for audit.
type ChatEntry struct {
	Prompt    string
	Response  string
	ImageURL  string
	CreatedAt time.Time
}

// Store is the catalog abstraction consumed by the agent core.
//
// Implementations must be safe for concurrent use. Lookup misses are not
// errors: ItemByID and OutfitByID return [ErrNotFound], and ItemsByIDs drops
// unknown ids silently.
type Store interface {
	// CreateItem writes one item record. The item's ID must be set.
	CreateItem(ctx context.Context, item Item) error

	// ItemByID returns the item with the given id or [ErrNotFound].
	ItemByID(ctx context.Context, id string) (Item, error)

	// ItemsByIDs returns all items whose id appears in ids. Unknown ids are
	// dropped without error; result order is not guaranteed to follow ids.
	ItemsByIDs(ctx context.Context, ids []string) ([]Item, error)

	// ListItems returns items matching filter.
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, error)

	// DeleteItem removes the item with the given id. Returns [ErrNotFound]
	// when no such item exists.
	DeleteItem(ctx context.Context, id string) error

	// CreateOutfit writes one outfit record. The outfit's ID must be set.
	CreateOutfit(ctx context.Context, outfit Outfit) error

	// OutfitByID returns the outfit with the given id or [ErrNotFound].
	OutfitByID(ctx context.Context, id string) (Outfit, error)

	// ListOutfits returns outfits matching filter.
	ListOutfits(ctx context.Context, filter OutfitFilter) ([]Outfit, error)

	// DeleteOutfit removes the outfit with the given id. Returns
	// [ErrNotFound] when no such outfit exists.
	DeleteOutfit(ctx context.Context, id string) error

	// AppendChatHistory records one prompt/response exchange.
	AppendChatHistory(ctx context.Context, entry ChatEntry) error
}
