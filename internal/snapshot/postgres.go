package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"libraryledger/internal/circulation"
)

// pqUndefinedTable is the Postgres error code for a missing relation.
const pqUndefinedTable = "42P01"

const schema = `
	CREATE TABLE IF NOT EXISTS library_snapshots (
		library    TEXT PRIMARY KEY,
		version    BIGINT NOT NULL,
		state      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// PostgresStore keeps one snapshot row per library.
type PostgresStore struct {
	db      *sql.DB
	library string
	seed    SeedLoader
	tracer  trace.Tracer
}

// NewPostgresStore returns a store for the named library. seed is used when
// the library has no row yet.
func NewPostgresStore(db *sql.DB, library string, seed SeedLoader) *PostgresStore {
	if seed == nil {
		seed = SeedFile("")
	}
	return &PostgresStore{
		db:      db,
		library: library,
		seed:    seed,
		tracer:  otel.Tracer("libraryledger/snapshot"),
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "snapshot.postgres.ensure_schema")
	defer span.End()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		span.RecordError(err)
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or the seed when there is no row or no
// table.
func (s *PostgresStore) Load(ctx context.Context) (circulation.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot.postgres.load",
		trace.WithAttributes(attribute.String("library", s.library)),
	)
	defer span.End()

	var (
		version int64
		state   []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version, state
		FROM library_snapshots
		WHERE library = $1
	`, s.library).Scan(&version, &state)

	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows),
		errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable:
		span.SetAttributes(attribute.Bool("snapshot.seeded", true))
		return s.seed(ctx)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "load snapshot")
		return circulation.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	var snap circulation.Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		return circulation.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	snap = normalise(snap)
	snap.Version = version

	span.SetAttributes(attribute.Int64("snapshot.version", version))
	return snap, nil
}

// Save upserts snap. A row already at or past snap.Version is left alone.
func (s *PostgresStore) Save(ctx context.Context, snap circulation.Snapshot) error {
	ctx, span := s.tracer.Start(ctx, "snapshot.postgres.save",
		trace.WithAttributes(
			attribute.String("library", s.library),
			attribute.Int64("snapshot.version", snap.Version),
		),
	)
	defer span.End()

	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO library_snapshots (library, version, state, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (library) DO UPDATE
		SET version = EXCLUDED.version,
		    state = EXCLUDED.state,
		    updated_at = EXCLUDED.updated_at
		WHERE library_snapshots.version < EXCLUDED.version
	`, s.library, snap.Version, state, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save snapshot")
		return fmt.Errorf("save snapshot: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		span.SetAttributes(attribute.Bool("snapshot.stale", true))
	}
	return nil
}
