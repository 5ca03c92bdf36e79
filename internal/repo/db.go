// Package repo contains all database access logic for the rental backend.
// Each entity has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping. The compound
// allocator operations (claim-and-create, cancel-and-release) are the one
// exception: they are transactional units and the transaction boundary is a
// storage concern.
package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and
// pgx.Tx. Accepting this interface instead of *pgxpool.Pool directly allows
// integration tests to pass a transaction that is rolled back after each
// test, giving free per-test isolation without any manual cleanup. Begin is
// included because the session repo opens transactions of its own; on a
// pgx.Tx it nests via savepoints, so the rollback trick still works.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}
