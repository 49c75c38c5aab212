// internal/catalog/implementation.go
package catalog

import (
	"fmt"
	"time"
)

// store implements the Store interface over a slice kept in catalog order,
// with an id index.
type store struct {
	items []Item
	index map[int]int
}

// NewStore creates a catalog store from a snapshot of items. It rejects
// duplicate ids and items that break their own invariants.
func NewStore(items []Item) (Store, error) {
	s := &store{
		items: make([]Item, 0, len(items)),
		index: make(map[int]int, len(items)),
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item id %d", ErrInvalidItem, it.ID)
		}
		s.index[it.ID] = len(s.items)
		s.items = append(s.items, it)
	}
	return s, nil
}

// FindItem returns a copy of the item with the given id.
func (s *store) FindItem(id int) (Item, bool) {
	i, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// SetAvailability updates the availability, borrower and due date of an item
// together. Available items must be passed a zero borrower and due date.
func (s *store) SetAvailability(id int, available bool, borrowedBy int, dueDate time.Time) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err := checkAvailability(id, available, borrowedBy, dueDate); err != nil {
		return err
	}
	it := &s.items[i]
	it.IsAvailable = available
	it.BorrowedBy = borrowedBy
	it.DueDate = dueDate
	return nil
}

// All returns a copy of every item in catalog order.
func (s *store) All() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// List returns the items matching f in catalog order.
func (s *store) List(f Filter) []Item {
	out := []Item{}
	for _, it := range s.items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *store) Len() int {
	return len(s.items)
}
