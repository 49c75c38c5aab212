// internal/circulation/ledger.go
package circulation

import (
	"cmp"
	"fmt"
	"slices"
)

// Ledger is the append-only transaction log, newest entry first.
type Ledger struct {
	entries []Transaction
	lastID  int
}

// NewLedger builds a ledger from previously recorded transactions, in any
// order. Ids must be positive and unique.
func NewLedger(txs []Transaction) (*Ledger, error) {
	entries := slices.Clone(txs)
	slices.SortStableFunc(entries, func(a, b Transaction) int {
		return cmp.Compare(b.ID, a.ID)
	})
	for i, tx := range entries {
		if tx.ID <= 0 {
			return nil, fmt.Errorf("%w: transaction id must be positive, got %d", ErrInconsistentSnapshot, tx.ID)
		}
		if i > 0 && entries[i-1].ID == tx.ID {
			return nil, fmt.Errorf("%w: duplicate transaction id %d", ErrInconsistentSnapshot, tx.ID)
		}
	}
	l := &Ledger{entries: entries}
	if len(entries) > 0 {
		l.lastID = entries[0].ID
	}
	return l, nil
}

// Append assigns the next id to tx and records it at the head.
func (l *Ledger) Append(tx Transaction) Transaction {
	l.lastID++
	tx.ID = l.lastID
	l.entries = slices.Insert(l.entries, 0, tx)
	return tx
}

// Recent returns up to n of the newest transactions, newest first.
func (l *Ledger) Recent(n int) []Transaction {
	if n <= 0 {
		return []Transaction{}
	}
	out := make([]Transaction, min(n, len(l.entries)))
	copy(out, l.entries)
	return out
}

// All returns every transaction, newest first.
func (l *Ledger) All() []Transaction {
	out := make([]Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	return len(l.entries)
}
