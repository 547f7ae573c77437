package store

import "fmt"

// schema holds one entry per version; entry i moves the database from
// user_version i to i+1. Append only.
var schema = []string{
	// 1: sessions, their note events and persisted settings.
	`CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		gesture TEXT NOT NULL,
		policy TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);
	CREATE TABLE note_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK(kind IN ('attack', 'release', 'attack_release')),
		hand TEXT NOT NULL,
		note TEXT NOT NULL,
		midi INTEGER NOT NULL,
		velocity REAL NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		at DATETIME NOT NULL
	);
	CREATE TABLE settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	// 2: lookups by session and newest-first listing.
	`CREATE INDEX idx_note_events_session_id ON note_events(session_id);
	CREATE INDEX idx_sessions_started_at ON sessions(started_at);`,
}

// SchemaVersion returns the database's applied schema version.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// migrate applies every schema step past the stored version, each in its
// own transaction.
func (s *Store) migrate() error {
	current, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > len(schema) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", current, len(schema))
	}

	for v := current; v < len(schema); v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(schema[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("schema version %d: %w", v+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set schema version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
