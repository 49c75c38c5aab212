// internal/catalog/service.go
package catalog

import (
	"time"
)

// Store holds the catalog keyed by item id.
//
// A Store is not safe for concurrent use; the lending service serialises all
// access to it.
type Store interface {
	FindItem(id int) (Item, bool)
	SetAvailability(id int, available bool, borrowedBy int, dueDate time.Time) error
	All() []Item
	List(f Filter) []Item
	Len() int
}
