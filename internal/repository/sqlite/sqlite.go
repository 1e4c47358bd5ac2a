// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the binary and stores
// everything in a single file. It is the default backend for local runs and
// the one the test suite exercises, so the whole service can be tried
// without a database server.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// SCHEMA:
// Tables are created by goose migrations embedded in the binary
// (migrations/*.sql). Timestamps are stored as INTEGER Unix nanoseconds so
// that ORDER BY created_at is exact and never depends on string formatting.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/notekeeper/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// compile-time check that *DB implements the full store contract
var _ repository.Store = (*DB)(nil)

// connPragmas run on every new connection. Passing them in the DSN (rather
// than a one-off Exec after Open) matters because database/sql pools
// connections and an Exec only configures whichever connection it ran on.
const connPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath and runs
// migrations.
//
// dbPath examples:
//   - "data/notes.db"        → relative file
//   - "/var/lib/notes/db"    → absolute file
//
// sql.Open() does NOT actually open a connection; it just creates a pool
// manager. We call PingContext to force an immediate connection and verify
// it works.
func New(ctx context.Context, dbPath string) (*DB, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite: empty database path")
	}

	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + connPragmas
}

// Ping reports whether the database file is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies every pending migration from migrations/.
//
// goose records applied versions in its own goose_db_version table, so this
// is safe to run on every startup.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
