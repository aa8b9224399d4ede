// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler everywhere you build
// and painful cross-compilation. modernc.org/sqlite is a pure Go translation
// of SQLite — works wherever Go works, including ":memory:" databases for
// tests.
//
// The store holds one *sql.DB connection pool for the whole process. Each
// business operation issues at most one read and one write; nothing here
// opens cross-statement transactions. The two places where that could race
// are handled inside single statements instead:
//   - like counts are bumped with UPDATE ... SET likes = likes + 1
//   - username uniqueness is enforced by the UNIQUE constraint, and the
//     constraint violation is the only source of the duplicate-username error
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides the repository methods for
// users, posts, and sessions.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath, configures it, and ensures
// the schema exists. Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection for everything. SQLite allows a single writer anyway,
	// and with ":memory:" every pooled connection would otherwise get its own
	// empty database.
	conn.SetMaxOpenConns(1)

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — one writer plus
	// many readers is exactly a web server's access pattern.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. The posts.user_id
	// ON DELETE SET NULL behaviour depends on them being on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: creating schema: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables if they don't exist yet. Schema versioning is
// deliberately out of scope; CREATE TABLE IF NOT EXISTS keeps this idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			username         TEXT NOT NULL UNIQUE,
			hashed_google_id TEXT UNIQUE,
			avatar_url       TEXT NOT NULL DEFAULT '',
			member_since     DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// user_id is the authoritative author link; username is the denormalized
	// display copy that keeps orphaned posts readable after an unregister.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			title     TEXT NOT NULL,
			content   TEXT NOT NULL,
			user_id   INTEGER REFERENCES users(id) ON DELETE SET NULL,
			username  TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			likes     INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0)
		);
		CREATE INDEX IF NOT EXISTS idx_posts_username ON posts(username);
		CREATE INDEX IF NOT EXISTS idx_posts_likes ON posts(likes);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			user_id      INTEGER NOT NULL DEFAULT 0,
			logged_in    INTEGER NOT NULL DEFAULT 0,
			user_name    TEXT NOT NULL DEFAULT '',
			user_pfp     TEXT NOT NULL DEFAULT '',
			pending_hash TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL,
			expires_at   DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite telling us a UNIQUE
// constraint fired. This is the single source of duplicate-username (and
// duplicate-identity) conflicts — there is no application-level pre-check to
// race against.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
