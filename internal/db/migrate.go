package db

import (
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS presenters (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE COLLATE NOCASE,
		pass_hash  BLOB NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		code       TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		owner_id   TEXT NOT NULL,
		active     INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		ended_at   TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id           TEXT PRIMARY KEY,
		session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		generation   TEXT NOT NULL,
		answers      TEXT NOT NULL DEFAULT '{}',
		completed    INTEGER NOT NULL DEFAULT 0,
		scores       TEXT,
		joined_at    TEXT NOT NULL,
		completed_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_session ON participants(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner_id)`,
}

// Migrate creates the schema on first run. Statements are idempotent.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
