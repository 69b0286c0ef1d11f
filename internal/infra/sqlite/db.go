// Package sqlite provides SQLite-based persistent storage for SingMaster.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Key-value store for host state (default user, schema notes)
		`CREATE TABLE IF NOT EXISTS engagement (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// One opaque progress snapshot per user
		`CREATE TABLE IF NOT EXISTS progress_snapshots (
			user_id    TEXT PRIMARY KEY,
			state      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		// Finished practice sessions
		`CREATE TABLE IF NOT EXISTS practice_attempts (
			id           TEXT PRIMARY KEY,
			session_id   TEXT NOT NULL,
			user_id      TEXT NOT NULL,
			level_id     TEXT NOT NULL,
			total_score  INTEGER NOT NULL,
			grade        TEXT NOT NULL,
			stars        INTEGER NOT NULL,
			score_json   TEXT NOT NULL,
			sample_count INTEGER NOT NULL DEFAULT 0,
			duration_sec INTEGER NOT NULL DEFAULT 0,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_user ON practice_attempts(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_level ON practice_attempts(user_id, level_id)`,

		// Notification log (policy: daily cap, quiet hours)
		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			shown      BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user_created ON notifications(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Engagement Key-Value ───────────────────────────────────────────────────

// SetEngagement stores a key-value pair.
func (d *DB) SetEngagement(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO engagement (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

// GetEngagement retrieves a value by key.
// Returns "" if key not found.
func (d *DB) GetEngagement(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM engagement WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func unixOrZero(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
