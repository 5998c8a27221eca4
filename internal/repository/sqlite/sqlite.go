// Package sqlite implements every repository interface on one SQLite file.
//
// The driver is modernc.org/sqlite, registered as "sqlite"; it is pure Go,
// so the binary builds without cgo.
//
// ONE TYPE, MANY INTERFACES:
// *DB implements UserRepository, CredentialRepository, HistoryRepository and
// ProfileRepository. Each lives in its own file (user.go, credential.go, ...)
// with a compile-time check at the top.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/studio.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests)
//
// SINGLE CONNECTION:
// SQLite allows one writer at a time, and every ":memory:" connection is a
// separate, empty database. Capping the pool at one connection gives both a
// consistent in-memory DB for tests and serialised writes in production.
// Callers must therefore never issue a query on db.conn while holding a Tx.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Migrate creates every table and index the application needs.
//
// Each statement is CREATE ... IF NOT EXISTS, so running it against an
// existing database is a no-op. The migrate CLI command calls it directly.
func (db *DB) Migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// (user_id, platform) is UNIQUE: the upsert in credential.go relies on
	// it as a last line of defence against two concurrent inserts.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS social_credentials (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			platform      TEXT NOT NULL,
			access_token  TEXT NOT NULL,
			refresh_token TEXT,
			expires_at    DATETIME,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_social_credentials_user_platform
			ON social_credentials(user_id, platform);
	`)
	if err != nil {
		return fmt.Errorf("creating social_credentials table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS caption_history (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			caption      TEXT NOT NULL,
			generated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_caption_history_user
			ON caption_history(user_id, generated_at);

		CREATE TABLE IF NOT EXISTS image_history (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			prompt       TEXT NOT NULL,
			image_url    TEXT NOT NULL,
			generated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_image_history_user
			ON image_history(user_id, generated_at);
	`)
	if err != nil {
		return fmt.Errorf("creating history tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			avatar_url TEXT NOT NULL DEFAULT '',
			bio        TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	return nil
}

// pageBounds normalises ListOptions into LIMIT/OFFSET values.
// SQLite treats LIMIT -1 as "no limit".
func pageBounds(limit, offset int) (int, int) {
	switch {
	case limit < 0:
		limit = -1
	case limit == 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
