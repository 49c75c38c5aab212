// internal/membership/domain.go
package membership

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrNotFound        = errors.New("member not found")
	ErrDuplicateBorrow = errors.New("item already in member's borrowed list")
	ErrInvalidMember   = errors.New("invalid member")
)

// Tier is a membership class. It decides how many items a member may hold.
type Tier string

const (
	TierBasic   Tier = "Basic"
	TierPremium Tier = "Premium"
)

// ParseTier reads a tier name. Anything other than Premium is Basic.
func ParseTier(s string) Tier {
	if strings.EqualFold(strings.TrimSpace(s), string(TierPremium)) {
		return TierPremium
	}
	return TierBasic
}

// MaxBorrowLimit is the number of items a member of this tier may hold at once.
func (t Tier) MaxBorrowLimit() int {
	if t == TierPremium {
		return 10
	}
	return 3
}

// Member represents a library member.
type Member struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Tier            Tier   `json:"membershipType"`
	BorrowedItemIDs []int  `json:"borrowedItems"`
}

// MaxBorrowLimit returns the member's limit.
func MaxBorrowLimit(m Member) int {
	return m.Tier.MaxBorrowLimit()
}

// CanBorrow reports whether the member is below their limit.
func (m Member) CanBorrow() bool {
	return len(m.BorrowedItemIDs) < MaxBorrowLimit(m)
}

// HasBorrowed reports whether itemID is in the member's borrowed set.
func (m Member) HasBorrowed(itemID int) bool {
	return slices.Contains(m.BorrowedItemIDs, itemID)
}

// Clone returns a deep copy.
func (m Member) Clone() Member {
	m.BorrowedItemIDs = slices.Clone(m.BorrowedItemIDs)
	if m.BorrowedItemIDs == nil {
		m.BorrowedItemIDs = []int{}
	}
	return m
}

// Validate checks the member's own invariants. Cross references to the
// catalog are checked by the lending service.
func (m Member) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidMember, m.ID)
	}
	seen := make(map[int]struct{}, len(m.BorrowedItemIDs))
	for _, id := range m.BorrowedItemIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: member %d lists item %d twice", ErrInvalidMember, m.ID, id)
		}
		seen[id] = struct{}{}
	}
	if len(m.BorrowedItemIDs) > MaxBorrowLimit(m) {
		return fmt.Errorf("%w: member %d holds %d items, limit is %d",
			ErrInvalidMember, m.ID, len(m.BorrowedItemIDs), MaxBorrowLimit(m))
	}
	return nil
}

// UnmarshalJSON reads a tier name with ParseTier semantics.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseTier(s)
	return nil
}
