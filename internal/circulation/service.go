// internal/circulation/service.go
package circulation

import (
	"context"

	"libraryledger/internal/catalog"
	"libraryledger/internal/membership"
)

// Service is the lending desk: the only way to change library state.
type Service interface {
	Borrow(ctx context.Context, in BorrowInput) (Transaction, error)
	ReturnItem(ctx context.Context, itemID int) (Transaction, error)
	IsOverdue(itemID int) bool

	GetItem(id int) (catalog.Item, bool)
	ListItems(f catalog.Filter) []catalog.Item
	ListAvailable() []catalog.Item
	ListBorrowedBy(memberID int) []catalog.Item
	ListOverdue() []catalog.Item

	GetMember(id int) (membership.Member, bool)
	ListMembers() []membership.Member

	RecentTransactions(limit int) []Transaction
	Stats() Stats
	Snapshot() Snapshot
}

// SnapshotStore loads the initial state and durably keeps the latest one.
// Implementations treat each call as all-or-nothing.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
