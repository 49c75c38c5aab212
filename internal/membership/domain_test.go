package membership

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxBorrowLimit(t *testing.T) {
	assert.Equal(t, 3, MaxBorrowLimit(Member{Tier: TierBasic}))
	assert.Equal(t, 10, MaxBorrowLimit(Member{Tier: TierPremium}))
	assert.Equal(t, 3, MaxBorrowLimit(Member{}))
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPremium, ParseTier("Premium"))
	assert.Equal(t, TierPremium, ParseTier(" premium "))
	assert.Equal(t, TierBasic, ParseTier("Basic"))
	assert.Equal(t, TierBasic, ParseTier("Gold"))
	assert.Equal(t, TierBasic, ParseTier(""))
}

func TestCanBorrow(t *testing.T) {
	assert.True(t, Member{Tier: TierBasic, BorrowedItemIDs: []int{1, 2}}.CanBorrow())
	assert.False(t, Member{Tier: TierBasic, BorrowedItemIDs: []int{1, 2, 3}}.CanBorrow())
	assert.True(t, Member{Tier: TierPremium, BorrowedItemIDs: []int{1, 2, 3}}.CanBorrow())
}

func TestMemberUnmarshalJSON(t *testing.T) {
	var members []Member
	err := json.Unmarshal([]byte(`[
		{"id":1,"name":"Ada","email":"ada@example.com","membershipType":"Premium","borrowedItems":[4,5]},
		{"id":2,"name":"Bob","email":"bob@example.com","membershipType":"Student"},
		{"id":3,"name":"Cy","email":"cy@example.com"}
	]`), &members)
	require.NoError(t, err)

	assert.Equal(t, Member{ID: 1, Name: "Ada", Email: "ada@example.com", Tier: TierPremium, BorrowedItemIDs: []int{4, 5}}, members[0])
	assert.Equal(t, TierBasic, members[1].Tier)
	assert.Empty(t, members[1].BorrowedItemIDs)
	// A missing tier decodes as the zero value, which has the Basic limit.
	assert.Equal(t, 3, MaxBorrowLimit(members[2]))

	out, err := json.Marshal(members[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Ada","email":"ada@example.com","membershipType":"Premium","borrowedItems":[4,5]}`, string(out))
}

func TestMemberValidate(t *testing.T) {
	assert.NoError(t, Member{ID: 1, Tier: TierBasic, BorrowedItemIDs: []int{1, 2, 3}}.Validate())
	assert.ErrorIs(t, Member{ID: 0}.Validate(), ErrInvalidMember)
	assert.ErrorIs(t, Member{ID: 1, BorrowedItemIDs: []int{2, 2}}.Validate(), ErrInvalidMember)
	assert.ErrorIs(t, Member{ID: 1, Tier: TierBasic, BorrowedItemIDs: []int{1, 2, 3, 4}}.Validate(), ErrInvalidMember)
}
