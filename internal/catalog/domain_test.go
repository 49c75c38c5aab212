package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestItemUnmarshalSeedShape(t *testing.T) {
	raw := `[
		{"id":1,"title":"Dune","type":"Book","publicationYear":1965,"isAvailable":true,
		 "meta":{"author":"Frank Herbert","isbn":"9780441013593","genre":"Science Fiction"}},
		{"id":2,"title":"Alien","type":"dvd","publicationYear":1979,"isAvailable":false,
		 "borrowedBy":4,"dueDate":"2025-02-01T00:00:00.000Z","meta":{"director":"Ridley Scott","duration":117}},
		{"id":3,"title":"Wired","type":"Magazine","publicationYear":2024,
		 "meta":{"issueNumber":"32.05","publisher":"Conde Nast"}}
	]`

	var items []Item
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 3)

	assert.Equal(t, Book{Author: "Frank Herbert", ISBN: "9780441013593", Genre: "Science Fiction"}, items[0].Meta)
	assert.True(t, items[0].IsAvailable)

	assert.Equal(t, CategoryDVD, items[1].Category())
	assert.False(t, items[1].IsAvailable)
	assert.Equal(t, 4, items[1].BorrowedBy)
	assert.Equal(t, date(2025, 2, 1), items[1].DueDate)

	// isAvailable defaults to true when omitted.
	assert.True(t, items[2].IsAvailable)
	assert.Equal(t, Magazine{IssueNumber: "32.05", Publisher: "Conde Nast"}, items[2].Meta)
}

func TestItemUnmarshalRejectsUnknownType(t *testing.T) {
	var it Item
	err := json.Unmarshal([]byte(`{"id":1,"title":"x","type":"Vinyl"}`), &it)
	assert.ErrorContains(t, err, "unknown category")
}

func TestItemMarshalJSON(t *testing.T) {
	t.Run("available item has null borrower and due date", func(t *testing.T) {
		it := Item{ID: 1, Title: "Dune", PublicationYear: 1965, Meta: Book{Author: "Frank Herbert"}, IsAvailable: true}
		data, err := json.Marshal(it)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1,"title":"Dune","type":"Book","publicationYear":1965,"isAvailable":true,
			"borrowedBy":null,"dueDate":null,"meta":{"author":"Frank Herbert","isbn":"","genre":""}}`, string(data))
	})

	t.Run("borrowed item round trips", func(t *testing.T) {
		it := Item{ID: 5, Title: "Alien", PublicationYear: 1979, Meta: DVD{Director: "Ridley Scott", Duration: 117},
			BorrowedBy: 1, DueDate: date(2099, 1, 1)}
		data, err := json.Marshal(it)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"dueDate":"2099-01-01"`)

		var back Item
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, it, back)
	})
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want error
	}{
		{name: "available", item: Item{ID: 1, Meta: Book{}, IsAvailable: true}},
		{name: "borrowed", item: Item{ID: 1, Meta: Book{}, BorrowedBy: 2, DueDate: date(2025, 1, 1)}},
		{name: "non positive id", item: Item{ID: 0, Meta: Book{}, IsAvailable: true}, want: ErrInvalidItem},
		{name: "no metadata", item: Item{ID: 1, IsAvailable: true}, want: ErrInvalidItem},
		{name: "available with borrower", item: Item{ID: 1, Meta: Book{}, IsAvailable: true, BorrowedBy: 2}, want: ErrInvalidAvailability},
		{name: "borrowed without due date", item: Item{ID: 1, Meta: Book{}, BorrowedBy: 2}, want: ErrInvalidAvailability},
		{name: "borrowed without borrower", item: Item{ID: 1, Meta: Book{}, DueDate: date(2025, 1, 1)}, want: ErrInvalidAvailability},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDetails(t *testing.T) {
	assert.Equal(t, "Book: Dune (1965) by Frank Herbert - ISBN: 9780441013593",
		Details(Item{Title: "Dune", PublicationYear: 1965, Meta: Book{Author: "Frank Herbert", ISBN: "9780441013593"}}))
	assert.Equal(t, "DVD: Alien (1979) - Director: Ridley Scott - 117 min",
		Details(Item{Title: "Alien", PublicationYear: 1979, Meta: DVD{Director: "Ridley Scott", Duration: 117}}))
	assert.Equal(t, "Magazine: Wired (2024) - Issue: 32.05",
		Details(Item{Title: "Wired", PublicationYear: 2024, Meta: Magazine{IssueNumber: "32.05"}}))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2099-01-01", want: date(2099, 1, 1)},
		{in: " 2099-01-01 ", want: date(2099, 1, 1)},
		{in: "2099-01-01T00:00:00.000Z", want: date(2099, 1, 1)},
		{in: "2099-01-01T23:30:00-05:00", want: date(2099, 1, 1)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "tomorrow", "2099-13-01", "01/02/2099"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestIsOverdue(t *testing.T) {
	today := date(2025, 6, 15)
	borrowed := func(due time.Time) Item {
		return Item{ID: 1, Meta: Book{}, BorrowedBy: 1, DueDate: due}
	}

	assert.True(t, IsOverdue(borrowed(date(2025, 6, 14)), today))
	assert.False(t, IsOverdue(borrowed(date(2025, 6, 15)), today))
	assert.False(t, IsOverdue(borrowed(date(2025, 6, 16)), today))
	assert.False(t, IsOverdue(Item{ID: 1, Meta: Book{}, IsAvailable: true}, today))
}
