// internal/catalog/filter.go
package catalog

import (
	"fmt"
	"strings"
)

// Availability narrows a listing to available or borrowed items.
type Availability string

const (
	AvailabilityAny       Availability = ""
	AvailabilityAvailable Availability = "available"
	AvailabilityBorrowed  Availability = "borrowed"
)

// ParseAvailability accepts "", "all", "available" and "borrowed".
func ParseAvailability(s string) (Availability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AvailabilityAny, nil
	case string(AvailabilityAvailable):
		return AvailabilityAvailable, nil
	case string(AvailabilityBorrowed):
		return AvailabilityBorrowed, nil
	}
	return "", fmt.Errorf("unknown availability %q", s)
}

// Filter selects items for a listing. Zero values match everything.
type Filter struct {
	// Query is matched case-insensitively as a substring of the title, the
	// category name and the category metadata.
	Query        string
	Category     Category
	Availability Availability
}

// Match reports whether it passes every criterion of f.
func (f Filter) Match(it Item) bool {
	if f.Category != "" && it.Category() != f.Category {
		return false
	}
	switch f.Availability {
	case AvailabilityAvailable:
		if !it.IsAvailable {
			return false
		}
	case AvailabilityBorrowed:
		if it.IsAvailable {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(searchText(it), q)
}

func searchText(it Item) string {
	fields := []string{it.Title, string(it.Category())}
	if it.Meta != nil {
		fields = append(fields, it.Meta.searchText()...)
	}
	return strings.ToLower(strings.Join(fields, " "))
}
