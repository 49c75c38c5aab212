package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []Item {
	return []Item{
		{ID: 1, Title: "Dune", PublicationYear: 1965, Meta: Book{Author: "Frank Herbert", ISBN: "9780441013593", Genre: "Science Fiction"}, IsAvailable: true},
		{ID: 2, Title: "Alien", PublicationYear: 1979, Meta: DVD{Director: "Ridley Scott", Duration: 117}, BorrowedBy: 1, DueDate: date(2025, 7, 1)},
		{ID: 3, Title: "Wired", PublicationYear: 2024, Meta: Magazine{IssueNumber: "32.05", Publisher: "Conde Nast"}, IsAvailable: true},
		{ID: 4, Title: "Blade Runner", PublicationYear: 1982, Meta: DVD{Director: "Ridley Scott", Duration: 117}, IsAvailable: true},
	}
}

func ids(items []Item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{name: "zero filter matches all", filter: Filter{}, want: []int{1, 2, 3, 4}},
		{name: "title is case insensitive", filter: Filter{Query: "dUNE"}, want: []int{1}},
		{name: "director", filter: Filter{Query: "scott"}, want: []int{2, 4}},
		{name: "publisher", filter: Filter{Query: "nast"}, want: []int{3}},
		{name: "isbn", filter: Filter{Query: "978044"}, want: []int{1}},
		{name: "genre", filter: Filter{Query: "fiction"}, want: []int{1}},
		{name: "category name", filter: Filter{Query: "magazine"}, want: []int{3}},
		{name: "category", filter: Filter{Category: CategoryDVD}, want: []int{2, 4}},
		{name: "available", filter: Filter{Availability: AvailabilityAvailable}, want: []int{1, 3, 4}},
		{name: "borrowed", filter: Filter{Availability: AvailabilityBorrowed}, want: []int{2}},
		{name: "combined", filter: Filter{Query: "scott", Availability: AvailabilityAvailable}, want: []int{4}},
		{name: "no match", filter: Filter{Query: "tolkien"}, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for _, it := range sampleItems() {
				if tt.filter.Match(it) {
					got = append(got, it.ID)
				}
			}
			if got == nil {
				got = []int{}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAvailability(t *testing.T) {
	for in, want := range map[string]Availability{
		"":          AvailabilityAny,
		"all":       AvailabilityAny,
		"Available": AvailabilityAvailable,
		"borrowed":  AvailabilityBorrowed,
	} {
		got, err := ParseAvailability(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAvailability("lost")
	assert.Error(t, err)
}
