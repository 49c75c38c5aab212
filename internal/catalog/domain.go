// internal/catalog/domain.go
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound            = errors.New("item not found")
	ErrInvalidItem         = errors.New("invalid item")
	ErrInvalidAvailability = errors.New("availability fields out of sync")
	ErrInvalidDate         = errors.New("invalid date")
)

// Category is the tag of an item's metadata.
type Category string

const (
	CategoryBook     Category = "Book"
	CategoryDVD      Category = "DVD"
	CategoryMagazine Category = "Magazine"
)

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range []Category{CategoryBook, CategoryDVD, CategoryMagazine} {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Metadata is the category-specific part of an Item. Book, DVD and Magazine
// are the only implementations.
type Metadata interface {
	Category() Category
	searchText() []string
}

// Book metadata.
type Book struct {
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
	Genre  string `json:"genre"`
}

func (Book) Category() Category { return CategoryBook }

func (b Book) searchText() []string { return []string{b.Author, b.ISBN, b.Genre} }

// DVD metadata. Duration is in minutes.
type DVD struct {
	Director string `json:"director"`
	Duration int    `json:"duration"`
}

func (DVD) Category() Category { return CategoryDVD }

func (d DVD) searchText() []string { return []string{d.Director} }

// Magazine metadata.
type Magazine struct {
	IssueNumber string `json:"issueNumber"`
	Publisher   string `json:"publisher"`
}

func (Magazine) Category() Category { return CategoryMagazine }

func (m Magazine) searchText() []string { return []string{m.IssueNumber, m.Publisher} }

// Item is a catalog entry that may be lent out.
//
// IsAvailable is false exactly when BorrowedBy is non-zero and DueDate is set.
// DueDate is a calendar date stored as UTC midnight.
type Item struct {
	ID              int
	Title           string
	PublicationYear int
	Meta            Metadata
	IsAvailable     bool
	BorrowedBy      int
	DueDate         time.Time
}

// Category returns the item's tag, or "" when it has no metadata.
func (it Item) Category() Category {
	if it.Meta == nil {
		return ""
	}
	return it.Meta.Category()
}

// Validate checks the item's own invariants.
func (it Item) Validate() error {
	if it.ID <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidItem, it.ID)
	}
	if it.Meta == nil {
		return fmt.Errorf("%w: item %d has no category", ErrInvalidItem, it.ID)
	}
	return checkAvailability(it.ID, it.IsAvailable, it.BorrowedBy, it.DueDate)
}

func checkAvailability(id int, available bool, borrowedBy int, dueDate time.Time) error {
	if available && (borrowedBy != 0 || !dueDate.IsZero()) {
		return fmt.Errorf("%w: item %d is available but has a borrower or due date", ErrInvalidAvailability, id)
	}
	if !available && (borrowedBy <= 0 || dueDate.IsZero()) {
		return fmt.Errorf("%w: item %d is borrowed but lacks a borrower or due date", ErrInvalidAvailability, id)
	}
	return nil
}

// Details formats a one-line description of the item.
func Details(it Item) string {
	switch m := it.Meta.(type) {
	case Book:
		return fmt.Sprintf("Book: %s (%d) by %s - ISBN: %s", it.Title, it.PublicationYear, m.Author, m.ISBN)
	case DVD:
		return fmt.Sprintf("DVD: %s (%d) - Director: %s - %d min", it.Title, it.PublicationYear, m.Director, m.Duration)
	case Magazine:
		return fmt.Sprintf("Magazine: %s (%d) - Issue: %s", it.Title, it.PublicationYear, m.IssueNumber)
	default:
		return fmt.Sprintf("%s (%d)", it.Title, it.PublicationYear)
	}
}

// IsOverdue reports whether the item is borrowed and its due date is before
// today. Both are calendar dates; see clock.DateOf.
func IsOverdue(it Item, today time.Time) bool {
	if it.IsAvailable || it.DueDate.IsZero() {
		return false
	}
	return it.DueDate.Before(today)
}

const dateLayout = time.DateOnly

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date it names as UTC midnight. Timestamps keep the day written in
// their own offset.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// FormatDate is the inverse of ParseDate for date-only values.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

type itemJSON struct {
	ID              int             `json:"id"`
	Title           string          `json:"title"`
	Type            Category        `json:"type"`
	PublicationYear int             `json:"publicationYear"`
	IsAvailable     *bool           `json:"isAvailable"`
	BorrowedBy      *int            `json:"borrowedBy"`
	DueDate         *string         `json:"dueDate"`
	Meta            json.RawMessage `json:"meta,omitempty"`
}

// MarshalJSON writes the seed document shape: a "type" discriminator with the
// category fields nested under "meta".
func (it Item) MarshalJSON() ([]byte, error) {
	available := it.IsAvailable
	out := itemJSON{
		ID:              it.ID,
		Title:           it.Title,
		Type:            it.Category(),
		PublicationYear: it.PublicationYear,
		IsAvailable:     &available,
	}
	if it.BorrowedBy != 0 {
		out.BorrowedBy = &it.BorrowedBy
	}
	if !it.DueDate.IsZero() {
		d := FormatDate(it.DueDate)
		out.DueDate = &d
	}
	if it.Meta != nil {
		meta, err := json.Marshal(it.Meta)
		if err != nil {
			return nil, err
		}
		out.Meta = meta
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the seed document shape. A missing isAvailable means
// available.
func (it *Item) UnmarshalJSON(data []byte) error {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	category, err := ParseCategory(string(in.Type))
	if err != nil {
		return fmt.Errorf("item %d: %w", in.ID, err)
	}
	meta, err := decodeMeta(category, in.Meta)
	if err != nil {
		return fmt.Errorf("item %d: %w", in.ID, err)
	}

	out := Item{
		ID:              in.ID,
		Title:           in.Title,
		PublicationYear: in.PublicationYear,
		Meta:            meta,
		IsAvailable:     true,
	}
	if in.IsAvailable != nil {
		out.IsAvailable = *in.IsAvailable
	}
	if in.BorrowedBy != nil {
		out.BorrowedBy = *in.BorrowedBy
	}
	if in.DueDate != nil && *in.DueDate != "" {
		due, err := ParseDate(*in.DueDate)
		if err != nil {
			return fmt.Errorf("item %d: %w", in.ID, err)
		}
		out.DueDate = due
	}
	*it = out
	return nil
}

func decodeMeta(category Category, raw json.RawMessage) (Metadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	switch category {
	case CategoryBook:
		var b Book
		err := json.Unmarshal(raw, &b)
		return b, err
	case CategoryDVD:
		var d DVD
		err := json.Unmarshal(raw, &d)
		return d, err
	case CategoryMagazine:
		var m Magazine
		err := json.Unmarshal(raw, &m)
		return m, err
	}
	return nil, fmt.Errorf("unknown category %q", category)
}
