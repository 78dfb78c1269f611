// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary needs no C toolchain
// and cross-compiles like any other Go program. The database is a single
// file (or ":memory:" in tests), which makes this the default backend.
//
// SCHEMA:
// The schema lives in ./migrations as goose SQL files embedded into the
// binary. New applies any pending migrations before returning, so a fresh
// file is usable immediately.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/pressly/goose/v3"

	// Registers the "sqlite" driver with database/sql. The named import
	// also gives access to the driver's error type.
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/mood-journal/internal/repository"
	"github.com/sakif/mood-journal/internal/repository/sqlite/migrations"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and a clock for timestamps.
type DB struct {
	conn  *sql.DB
	clock clockwork.Clock
}

// New opens (or creates) the database at dbPath and applies migrations.
//
// dbPath examples:
//   - "data/journal.db" → file-based database
//   - ":memory:"        → in-memory database, gone on Close
//
// A nil clock means the real wall clock.
func New(ctx context.Context, dbPath string, clock clockwork.Clock) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database. Pinning
	// the pool to one connection keeps the whole process on the same one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := newWithConn(conn, clock)
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// newWithConn wraps an already-open pool without touching the schema.
func newWithConn(conn *sql.DB, clock clockwork.Clock) *DB {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DB{conn: conn, clock: clock}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (db *DB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db.conn, ".")
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
