// internal/membership/implementation.go
package membership

import (
	"fmt"
	"slices"
)

// store implements the Store interface.
type store struct {
	members []Member
	index   map[int]int
}

// NewStore creates a member store from a snapshot of members.
func NewStore(members []Member) (Store, error) {
	s := &store{
		members: make([]Member, 0, len(members)),
		index:   make(map[int]int, len(members)),
	}
	for _, m := range members {
		m.Tier = ParseTier(string(m.Tier))
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate member id %d", ErrInvalidMember, m.ID)
		}
		s.index[m.ID] = len(s.members)
		s.members = append(s.members, m.Clone())
	}
	return s, nil
}

// FindMember returns a copy of the member with the given id.
func (s *store) FindMember(id int) (Member, bool) {
	i, ok := s.index[id]
	if !ok {
		return Member{}, false
	}
	return s.members[i].Clone(), true
}

// AddBorrowedID records that the member holds itemID.
func (s *store) AddBorrowedID(memberID, itemID int) error {
	i, ok := s.index[memberID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, memberID)
	}
	m := &s.members[i]
	if m.HasBorrowed(itemID) {
		return fmt.Errorf("%w: member %d, item %d", ErrDuplicateBorrow, memberID, itemID)
	}
	m.BorrowedItemIDs = append(m.BorrowedItemIDs, itemID)
	return nil
}

// RemoveBorrowedID drops itemID from the member's borrowed set. Unknown
// members and ids are ignored.
func (s *store) RemoveBorrowedID(memberID, itemID int) {
	i, ok := s.index[memberID]
	if !ok {
		return
	}
	m := &s.members[i]
	m.BorrowedItemIDs = slices.DeleteFunc(m.BorrowedItemIDs, func(id int) bool { return id == itemID })
}

// All returns copies of every member in load order.
func (s *store) All() []Member {
	out := make([]Member, len(s.members))
	for i, m := range s.members {
		out[i] = m.Clone()
	}
	return out
}

func (s *store) Len() int {
	return len(s.members)
}
