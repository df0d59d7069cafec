// Package mock provides a test double for the vision.Captioner interface.
package mock

import (
	"context"
	"sync"

	"github.com/fitfinder-ai/fitfinder/pkg/provider/vision"
)

var _ vision.Captioner = (*Captioner)(nil)

// Captioner is a mock implementation of vision.Captioner.
type Captioner struct {
	mu sync.Mutex

	// Capture is returned by Describe. Zero-value fields are filled with
	// deterministic defaults derived from the source argument.
	Capture vision.Capture

	// Err, if non-nil, is returned by Describe.
	Err error

	// Sources records every source passed to Describe, in order.
	Sources []string
}

// Describe implements vision.Captioner.
func (c *Captioner) Describe(ctx context.Context, source string) (vision.Capture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Sources = append(c.Sources, source)
	if c.Err != nil {
		return vision.Capture{}, c.Err
	}

	cap := c.Capture
	if cap.Caption == "" {
		cap.Caption = "captured " + source
	}
	if cap.Category == "" {
		cap.Category = vision.FallbackCategory
	}
	if cap.ItemID == "" {
		cap.ItemID = "mock-item-1"
	}
	if cap.ImageURL == "" {
		cap.ImageURL = "/images/clothing_items/mock-item-1.jpg"
	}
	return cap, nil
}
