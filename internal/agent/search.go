package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
	"github.com/fitfinder-ai/fitfinder/pkg/types"
)

// noMatchesReply is the single formatted turn emitted for an empty search
// result.
const noMatchesReply = "No matching items found."

// fetch retrieves the catalog records for the pending search ids. Unknown
// ids are dropped silently; an empty id list yields an empty item list.
func (c *Controller) fetch(ctx context.Context, st *State) error {
	items, err := c.caps.Catalog.ItemsByIDs(ctx, st.SearchIDs)
	if err != nil {
		return fmt.Errorf("agent: fetch items: %w", err)
	}
	st.Items = items
	return nil
}

// format is pure apart from appending turns: it emits one assistant-facing
// turn per fetched item, or a single no-matches turn when the list is empty,
// and marks the search as consumed.
func (c *Controller) format(st *State) {
	if len(st.Items) == 0 {
		st.append(types.Message{Role: types.RoleAssistant, Content: noMatchesReply})
	} else {
		for _, item := range st.Items {
			score, scored := st.Scores[item.ID]
			st.append(types.Message{
				Role:    types.RoleAssistant,
				Content: summarizeItem(item, score, scored),
			})
		}
	}
	st.SearchPerformed = false
	st.SearchIDs = nil
}

// summarizeItem renders one item as a display line.
func summarizeItem(item wardrobe.Item, score float64, scored bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", item.ID, item.Description)

	var details []string
	add := func(label, value string) {
		if value != "" {
			details = append(details, label+": "+value)
		}
	}
	add("category", item.Category)
	add("color", item.Color)
	add("season", item.Season)
	if len(item.Tags) > 0 {
		details = append(details, "tags: "+strings.Join(item.Tags, ", "))
	}
	if scored {
		details = append(details, fmt.Sprintf("score: %.2f", score))
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
	}
	if item.ImageURL != "" {
		fmt.Fprintf(&b, " [image: %s]", item.ImageURL)
	}
	return b.String()
}
