// Package snapshot persists the library state between runs. Both stores
// implement circulation.SnapshotStore.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/membership"
)

// SeedLoader produces the state to start from when nothing has been saved yet.
type SeedLoader func(ctx context.Context) (circulation.Snapshot, error)

// ReadSeed decodes a seed document of the form
// {"items": [...], "users": [...], "transactions": [...]}.
func ReadSeed(r io.Reader) (circulation.Snapshot, error) {
	var snap circulation.Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return circulation.Snapshot{}, fmt.Errorf("decode seed: %w", err)
	}
	return normalise(snap), nil
}

// SeedFile loads the seed document at path. A missing file yields an empty
// library.
func SeedFile(path string) SeedLoader {
	return func(context.Context) (circulation.Snapshot, error) {
		if path == "" {
			return Empty(), nil
		}
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), nil
		}
		if err != nil {
			return circulation.Snapshot{}, fmt.Errorf("open seed: %w", err)
		}
		defer f.Close()
		return ReadSeed(f)
	}
}

// Empty is a library with nothing in it.
func Empty() circulation.Snapshot {
	return normalise(circulation.Snapshot{})
}

func normalise(snap circulation.Snapshot) circulation.Snapshot {
	if snap.Items == nil {
		snap.Items = []catalog.Item{}
	}
	if snap.Members == nil {
		snap.Members = []membership.Member{}
	}
	if snap.Transactions == nil {
		snap.Transactions = []circulation.Transaction{}
	}
	return snap
}
