package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewStore([]Member{
		{ID: 1, Name: "Ada", Tier: TierBasic},
		{ID: 2, Name: "Bob", Tier: TierPremium, BorrowedItemIDs: []int{7}},
	})
	require.NoError(t, err)
	return s
}

func TestNewStoreRejectsDuplicates(t *testing.T) {
	_, err := NewStore([]Member{{ID: 1}, {ID: 1}})
	assert.ErrorIs(t, err, ErrInvalidMember)
}

func TestNewStoreNormalisesTier(t *testing.T) {
	s, err := NewStore([]Member{{ID: 1}})
	require.NoError(t, err)
	m, _ := s.FindMember(1)
	assert.Equal(t, TierBasic, m.Tier)
	assert.Equal(t, []int{}, m.BorrowedItemIDs)
}

func TestAddBorrowedID(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddBorrowedID(1, 5))
	m, ok := s.FindMember(1)
	require.True(t, ok)
	assert.Equal(t, []int{5}, m.BorrowedItemIDs)

	assert.ErrorIs(t, s.AddBorrowedID(1, 5), ErrDuplicateBorrow)
	assert.ErrorIs(t, s.AddBorrowedID(99, 5), ErrNotFound)

	m, _ = s.FindMember(1)
	assert.Equal(t, []int{5}, m.BorrowedItemIDs)
}

func TestRemoveBorrowedID(t *testing.T) {
	s := newTestStore(t)

	s.RemoveBorrowedID(2, 7)
	m, _ := s.FindMember(2)
	assert.Empty(t, m.BorrowedItemIDs)

	// Absent ids and unknown members are no-ops.
	s.RemoveBorrowedID(2, 7)
	s.RemoveBorrowedID(99, 7)
	m, _ = s.FindMember(2)
	assert.Empty(t, m.BorrowedItemIDs)
}

func TestFindMemberReturnsCopy(t *testing.T) {
	s := newTestStore(t)

	m, _ := s.FindMember(2)
	m.BorrowedItemIDs[0] = 100

	again, _ := s.FindMember(2)
	assert.Equal(t, []int{7}, again.BorrowedItemIDs)
	assert.Len(t, s.All(), 2)
}
