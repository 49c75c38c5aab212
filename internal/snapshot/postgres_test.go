package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryledger/internal/catalog"
)

// setupTestDB connects to the database named by DATABASE_URL or the PG*
// variables. It skips the test when no server is reachable.
func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	connStr := testConnString()
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping postgres tests: could not connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConnString() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		envOr("PGHOST", "localhost"), envOr("PGPORT", "5432"), envOr("PGUSER", "user"),
		envOr("PGPASSWORD", "password"), envOr("PGDATABASE", "testdb"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// library returns a name no other test run uses.
func library() string {
	return "test-" + uuid.NewString()
}

func TestPostgresStoreSeedsWhenEmpty(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewPostgresStore(db, library(), SeedFile(writeSeed(t)))
	require.NoError(t, store.EnsureSchema(ctx))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
	assert.Zero(t, snap.Version)
}

func TestPostgresStoreSaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	name := library()
	store := NewPostgresStore(db, name, nil)
	require.NoError(t, store.EnsureSchema(ctx))
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM library_snapshots WHERE library = $1`, name)
	})

	v2 := Empty()
	v2.Version = 2
	v2.Items = []catalog.Item{{ID: 1, Title: "Dune", Meta: catalog.Book{Author: "Frank Herbert"}, IsAvailable: true}}
	require.NoError(t, store.Save(ctx, v2))

	stale := Empty()
	stale.Version = 1
	require.NoError(t, store.Save(ctx, stale))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2, got)

	v3 := v2
	v3.Version = 3
	v3.Items = nil
	require.NoError(t, store.Save(ctx, v3))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Version)
	assert.Empty(t, got.Items)
}

func TestPostgresStoreMissingTableFallsBackToSeed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// A fresh schema has no library_snapshots table.
	schemaName := "t" + uuid.NewString()[:8]
	_, err := db.ExecContext(ctx, `CREATE SCHEMA "`+schemaName+`"`)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = db.Exec(`DROP SCHEMA "` + schemaName + `" CASCADE`) })

	scratch := sqlDBWithSearchPath(t, schemaName)
	store := NewPostgresStore(scratch, library(), SeedFile(writeSeed(t)))
	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
}

// sqlDBWithSearchPath opens a single-connection pool whose search path is
// schemaName.
func sqlDBWithSearchPath(t *testing.T, schemaName string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", testConnString())
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`SET search_path TO "` + schemaName + `"`)
	require.NoError(t, err)
	return db
}
