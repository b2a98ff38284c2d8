// Package dbtest opens the Postgres database named by TEST_DATABASE_URL for
// integration tests.
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/db"
)

// lockID serialises integration tests of different packages sharing one
// database. It differs from the migrator's lock.
const lockID = 7_210_453

// Open returns a pool with the migrations in dir applied and tables emptied.
// The test is skipped when TEST_DATABASE_URL is unset. The database stays
// locked to the calling test until it finishes.
func Open(t testing.TB, dir string, tables ...string) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	lock, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := lock.Exec(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		lock.Release()
		t.Fatalf("lock: %v", err)
	}
	t.Cleanup(func() {
		lock.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
		lock.Release()
	})

	if _, err := db.NewMigrator(pool, os.DirFS(dir)).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(tables) > 0 {
		if _, err := pool.Exec(ctx, `TRUNCATE `+strings.Join(tables, ", ")+` RESTART IDENTITY CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
	}
	return pool
}
