// Package vision defines the Captioner interface for the image-capture
// capability.
//
// A captioner turns a raw clothing photo into the structured capture record
// the agent core needs to start the item pipeline: a retrieval-oriented
// caption, a category from the closed clothing vocabulary, a generated item
// id, and the reference under which the image was stored.
package vision

import "context"

// Categories is the closed set of clothing roles a capture may be assigned.
var Categories = []string{"top", "bottom", "shoes", "accessories"}

// FallbackCategory is assigned when the model's category line is missing or
// names something outside [Categories].
const FallbackCategory = "accessories"

// Capture is the structured result of captioning one clothing image.
type Capture struct {
	// Caption is a retrieval-oriented description of the main clothing item.
	Caption string

	// Category is one of [Categories].
	Category string

	// ItemID is the identifier generated for this capture. The same id is
	// used for the stored image and, later, the catalog record.
	ItemID string

	// ImageURL is the reference under which the image was stored.
	ImageURL string
}

// ImageStore persists raw image bytes and returns the reference under which
// they can later be served. Implemented by internal/imagestore.
type ImageStore interface {
	Save(ctx context.Context, id, filename string, data []byte) (string, error)
}

// Captioner is the abstraction over any image-captioning backend.
//
// Implementations must be safe for concurrent use.
type Captioner interface {
	// Describe loads the image at source (local path or http(s) URL), stores
	// it, and returns the structured capture. A capture is never returned
	// with an empty Caption; failures surface as errors instead.
	Describe(ctx context.Context, source string) (Capture, error)
}
