package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libraryledger/internal/circulation"
)

// FileStore keeps the latest snapshot in a JSON file next to the seed.
type FileStore struct {
	path   string
	seed   SeedLoader
	logger *slog.Logger
	tracer trace.Tracer

	mu    sync.Mutex
	saved int64
}

// NewFileStore returns a store writing to path. Load falls back to seed when
// path does not exist yet.
func NewFileStore(path string, seed SeedLoader, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	if seed == nil {
		seed = SeedFile("")
	}
	return &FileStore{
		path:   path,
		seed:   seed,
		logger: logger,
		tracer: otel.Tracer("libraryledger/snapshot"),
	}
}

// Load reads the saved snapshot, or the seed if nothing was saved.
func (s *FileStore) Load(ctx context.Context) (circulation.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot.file.load",
		trace.WithAttributes(attribute.String("snapshot.path", s.path)),
	)
	defer span.End()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.InfoContext(ctx, "no saved snapshot, loading seed", "path", s.path)
		span.SetAttributes(attribute.Bool("snapshot.seeded", true))
		return s.seed(ctx)
	}
	if err != nil {
		return circulation.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := ReadSeed(f)
	if err != nil {
		return circulation.Snapshot{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.saved = max(s.saved, snap.Version)
	s.mu.Unlock()

	span.SetAttributes(attribute.Int64("snapshot.version", snap.Version))
	return snap, nil
}

// Save replaces the file with snap. Snapshots no newer than the last one
// written are ignored.
func (s *FileStore) Save(ctx context.Context, snap circulation.Snapshot) error {
	_, span := s.tracer.Start(ctx, "snapshot.file.save",
		trace.WithAttributes(
			attribute.String("snapshot.path", s.path),
			attribute.Int64("snapshot.version", snap.Version),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Version <= s.saved {
		span.SetAttributes(attribute.Bool("snapshot.stale", true))
		return nil
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := writeFileAtomic(s.path, payload); err != nil {
		span.RecordError(err)
		return err
	}
	s.saved = snap.Version
	return nil
}

func writeFileAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
