// Package items implements the in-memory item catalog: a keyed store with
// sequential ids, partial updates and simple filtering.
package items

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Item is the catalog entry returned to API callers.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

// CreateRequest carries the fields for a new item.
type CreateRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	IsAvailable *bool   `json:"is_available"`
}

// UpdateRequest carries a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	IsAvailable *bool    `json:"is_available"`
}

// Store is an in-memory item store with sequential id assignment.
// Safe for concurrent use by HTTP handlers.
type Store struct {
	mu     sync.RWMutex
	items  map[int64]Item
	nextID int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		items:  make(map[int64]Item),
		nextID: 1,
	}
}

// List returns all items ordered by id.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(Item) bool { return true })
}

// Get returns the item with the given id.
func (s *Store) Get(id int64) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Create adds a new item and returns it with its assigned id.
func (s *Store) Create(req CreateRequest) Item {
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	s.mu.Lock()
	item := Item{
		ID:          s.nextID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsAvailable: available,
	}
	s.items[item.ID] = item
	s.nextID++
	s.mu.Unlock()

	slog.Info("item created", "item_id", item.ID, "item_name", item.Name, "item_price", item.Price)
	return item
}

// Update applies a partial update to an existing item.
func (s *Store) Update(id int64, req UpdateRequest) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		slog.Warn("item update failed, item not found", "item_id", id)
		return Item{}, false
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	s.items[id] = item

	slog.Info("item updated", "item_id", id, "item_name", item.Name)
	return item, true
}

// Delete removes an item; reports whether it existed.
func (s *Store) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		slog.Warn("item deletion failed, item not found", "item_id", id)
		return false
	}
	delete(s.items, id)
	slog.Info("item deleted", "item_id", id)
	return true
}

// Count returns the number of stored items.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear removes all items and resets id assignment. Intended for tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[int64]Item)
	s.nextID = 1
}

// Available returns the items currently marked available, ordered by id.
func (s *Store) Available() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(i Item) bool { return i.IsAvailable })
}

// PriceBetween returns items with minPrice <= price <= maxPrice, ordered by id.
func (s *Store) PriceBetween(minPrice, maxPrice float64) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(i Item) bool { return i.Price >= minPrice && i.Price <= maxPrice })
}

// SearchByName returns items whose name contains term, case-insensitively,
// ordered by id.
func (s *Store) SearchByName(term string) []Item {
	needle := strings.ToLower(term)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(i Item) bool { return strings.Contains(strings.ToLower(i.Name), needle) })
}

// collect gathers matching items ordered by id. Callers hold the lock.
func (s *Store) collect(match func(Item) bool) []Item {
	out := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if match(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}
