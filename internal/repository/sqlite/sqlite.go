// Package sqlite implements repository.CatchRepository on an embedded
// SQLite database.
//
// WHY SQLITE HERE?
// Production talks to the hosted store (see package supabase). SQLite gives
// the same contract with zero infrastructure: local development runs with
// STORE_BACKEND=sqlite, and tests use ":memory:" for a fresh database each.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed and cross-compilation keeps working.
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// Registers the "sqlite" driver with database/sql at init time.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.CatchRepository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and makes sure the catches table exists.
//
// dbPath examples:
//   - "data/castiq.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ONE CONNECTION:
	// Every connection to ":memory:" is its own private database, so a pool
	// of several would scatter rows across databases. SQLite serialises
	// writers anyway, so a single connection costs nothing for files either.
	conn.SetMaxOpenConns(1)

	// sql.Open doesn't connect; Ping forces it so a bad path fails here.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.ensureSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: creating schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// ensureSchema creates the catches table if it's missing. There is no
// migration history; the table shape mirrors the hosted store's.
//
// AUTOINCREMENT guarantees ids are never reused, even after the highest
// row is deleted, so ids stay monotonically increasing like the hosted
// store's identity column.
func (db *DB) ensureSchema() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS catches (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT    NOT NULL CHECK (user_id <> ''),
			date        TEXT    NOT NULL DEFAULT '',
			time        TEXT    NOT NULL DEFAULT '',
			location    TEXT    NOT NULL DEFAULT '',
			species     TEXT    NOT NULL DEFAULT '',
			length_in   REAL    NOT NULL DEFAULT 0,
			weight_lbs  REAL    NOT NULL DEFAULT 0,
			temperature REAL    NOT NULL DEFAULT 0,
			bait        TEXT    NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_catches_user_id ON catches(user_id, id);
	`)
	return err
}
