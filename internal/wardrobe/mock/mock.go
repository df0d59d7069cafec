// Package mock provides an in-memory wardrobe.Store for tests.
package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
)

// Store is a map-backed catalog. The zero value is ready to use.
//
// Err, when set, is returned by every operation before any state change. The
// per-operation error fields override Err for their operation.
type Store struct {
	mu      sync.Mutex
	items   map[string]wardrobe.Item
	outfits map[string]wardrobe.Outfit
	history []wardrobe.ChatEntry

	Err           error
	CreateItemErr error
	CreateOutfErr error
}

var _ wardrobe.Store = (*Store)(nil)

func (s *Store) init() {
	if s.items == nil {
		s.items = make(map[string]wardrobe.Item)
	}
	if s.outfits == nil {
		s.outfits = make(map[string]wardrobe.Outfit)
	}
}

// CreateItem implements [wardrobe.Store].
func (s *Store) CreateItem(_ context.Context, item wardrobe.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateItemErr != nil {
		return s.CreateItemErr
	}
	if s.Err != nil {
		return s.Err
	}
	s.init()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	s.items[item.ID] = item
	return nil
}

// ItemByID implements [wardrobe.Store].
func (s *Store) ItemByID(_ context.Context, id string) (wardrobe.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return wardrobe.Item{}, s.Err
	}
	item, ok := s.items[id]
	if !ok {
		return wardrobe.Item{}, wardrobe.ErrNotFound
	}
	return item, nil
}

// ItemsByIDs implements [wardrobe.Store]. Results follow the order of ids;
// unknown ids are skipped.
func (s *Store) ItemsByIDs(_ context.Context, ids []string) ([]wardrobe.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var res []wardrobe.Item
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			res = append(res, item)
		}
	}
	return res, nil
}

// ListItems implements [wardrobe.Store].
func (s *Store) ListItems(_ context.Context, filter wardrobe.ItemFilter) ([]wardrobe.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var res []wardrobe.Item
	for _, item := range s.items {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Season != "" && item.Season != filter.Season {
			continue
		}
		if filter.Tag != "" && !slices.Contains(item.Tags, filter.Tag) {
			continue
		}
		res = append(res, item)
	}
	slices.SortFunc(res, func(a, b wardrobe.Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return paginate(res, filter.Limit, filter.Offset), nil
}

// DeleteItem implements [wardrobe.Store].
func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.items[id]; !ok {
		return wardrobe.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// CreateOutfit implements [wardrobe.Store].
func (s *Store) CreateOutfit(_ context.Context, outfit wardrobe.Outfit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateOutfErr != nil {
		return s.CreateOutfErr
	}
	if s.Err != nil {
		return s.Err
	}
	s.init()
	if outfit.CreatedAt.IsZero() {
		outfit.CreatedAt = time.Now()
	}
	s.outfits[outfit.ID] = outfit
	return nil
}

// OutfitByID implements [wardrobe.Store].
func (s *Store) OutfitByID(_ context.Context, id string) (wardrobe.Outfit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return wardrobe.Outfit{}, s.Err
	}
	outfit, ok := s.outfits[id]
	if !ok {
		return wardrobe.Outfit{}, wardrobe.ErrNotFound
	}
	return outfit, nil
}

// ListOutfits implements [wardrobe.Store].
func (s *Store) ListOutfits(_ context.Context, filter wardrobe.OutfitFilter) ([]wardrobe.Outfit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var res []wardrobe.Outfit
	for _, outfit := range s.outfits {
		if filter.Season != "" && outfit.Season != filter.Season {
			continue
		}
		if filter.Occasion != "" && outfit.Occasion != filter.Occasion {
			continue
		}
		res = append(res, outfit)
	}
	slices.SortFunc(res, func(a, b wardrobe.Outfit) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return paginate(res, filter.Limit, filter.Offset), nil
}

// DeleteOutfit implements [wardrobe.Store].
func (s *Store) DeleteOutfit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.outfits[id]; !ok {
		return wardrobe.ErrNotFound
	}
	delete(s.outfits, id)
	return nil
}

// AppendChatHistory implements [wardrobe.Store].
func (s *Store) AppendChatHistory(_ context.Context, entry wardrobe.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.history = append(s.history, entry)
	return nil
}

// Items returns a snapshot of all stored items.
func (s *Store) Items() []wardrobe.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]wardrobe.Item, 0, len(s.items))
	for _, item := range s.items {
		res = append(res, item)
	}
	return res
}

// Outfits returns a snapshot of all stored outfits.
func (s *Store) Outfits() []wardrobe.Outfit {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]wardrobe.Outfit, 0, len(s.outfits))
	for _, outfit := range s.outfits {
		res = append(res, outfit)
	}
	return res
}

// History returns a snapshot of the recorded chat exchanges.
func (s *Store) History() []wardrobe.ChatEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
