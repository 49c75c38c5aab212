// internal/circulation/domain.go
package circulation

import (
	"encoding/json"
	"fmt"
	"time"

	"libraryledger/internal/catalog"
	"libraryledger/internal/membership"
)

// Action is the kind of a ledger entry.
type Action string

const (
	ActionBorrow Action = "borrow"
	ActionReturn Action = "return"
)

// Transaction is one borrow or return event.
//
// MemberID is 0 for a return whose borrower could no longer be resolved.
// DueDate is the due date set by a borrow, or for a return the due date that
// was cleared.
type Transaction struct {
	ID        int
	MemberID  int
	ItemID    int
	Action    Action
	Timestamp time.Time
	DueDate   time.Time
}

type transactionJSON struct {
	ID        int       `json:"transactionId"`
	MemberID  *int      `json:"userId"`
	ItemID    int       `json:"itemId"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	DueDate   *string   `json:"dueDate"`
}

func (tx Transaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		ID:        tx.ID,
		ItemID:    tx.ItemID,
		Action:    tx.Action,
		Timestamp: tx.Timestamp,
	}
	if tx.MemberID != 0 {
		out.MemberID = &tx.MemberID
	}
	if !tx.DueDate.IsZero() {
		d := catalog.FormatDate(tx.DueDate)
		out.DueDate = &d
	}
	return json.Marshal(out)
}

func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Action != ActionBorrow && in.Action != ActionReturn {
		return fmt.Errorf("transaction %d: unknown action %q", in.ID, in.Action)
	}
	out := Transaction{
		ID:        in.ID,
		ItemID:    in.ItemID,
		Action:    in.Action,
		Timestamp: in.Timestamp,
	}
	if in.MemberID != nil {
		out.MemberID = *in.MemberID
	}
	if in.DueDate != nil && *in.DueDate != "" {
		due, err := catalog.ParseDate(*in.DueDate)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", in.ID, err)
		}
		out.DueDate = due
	}
	*tx = out
	return nil
}

// BorrowInput is the request to lend an item. DueDate is YYYY-MM-DD or
// RFC 3339.
type BorrowInput struct {
	ItemID   int
	MemberID int
	DueDate  string
}

// Snapshot is the whole library state as loaded at startup and saved after
// each mutation. Its JSON form is the seed document shape.
type Snapshot struct {
	Version      int64               `json:"version,omitempty"`
	Items        []catalog.Item      `json:"items"`
	Members      []membership.Member `json:"users"`
	Transactions []Transaction       `json:"transactions"`
}

// Stats summarises the library for the dashboard.
type Stats struct {
	TotalItems   int `json:"totalItems"`
	Available    int `json:"available"`
	Borrowed     int `json:"borrowed"`
	Overdue      int `json:"overdue"`
	Members      int `json:"members"`
	Transactions int `json:"transactions"`
}
