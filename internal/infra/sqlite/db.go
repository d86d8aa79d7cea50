// Package sqlite provides SQLite-based persistent storage for the
// Inschoolz progression engine. Uses WAL mode for concurrent reads
// and crash-safe writes.
package sqlite

import (
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

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
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
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// User documents: only the experience-bearing fields plus the
		// profile fields the ranking reader projects.
		`CREATE TABLE IF NOT EXISTS users (
			id                        TEXT PRIMARY KEY,
			display_name              TEXT NOT NULL DEFAULT '',
			school_id                 TEXT NOT NULL DEFAULT '',
			school_name               TEXT NOT NULL DEFAULT '',
			region_id                 TEXT NOT NULL DEFAULT '',
			region_name               TEXT NOT NULL DEFAULT '',
			profile_image_url         TEXT NOT NULL DEFAULT '',
			total_experience          INTEGER NOT NULL DEFAULT 0,
			level                     INTEGER NOT NULL DEFAULT 1,
			current_exp               INTEGER NOT NULL DEFAULT 0,
			current_level_required_xp INTEGER NOT NULL DEFAULT 10,
			updated_at                INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_exp ON users(total_experience)`,
		`CREATE INDEX IF NOT EXISTS idx_users_school ON users(school_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_region ON users(region_id)`,

		// Daily activity counters, reset lazily when the KST day rolls.
		`CREATE TABLE IF NOT EXISTS activity_limits (
			user_id         TEXT PRIMARY KEY,
			last_reset_date TEXT NOT NULL DEFAULT '',
			posts           INTEGER NOT NULL DEFAULT 0,
			comments        INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS game_counts (
			user_id   TEXT NOT NULL,
			game_type TEXT NOT NULL,
			count     INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, game_type)
		)`,

		// Per-game personal bests.
		`CREATE TABLE IF NOT EXISTS game_stats (
			user_id    TEXT NOT NULL,
			game_type  TEXT NOT NULL,
			best_score INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, game_type)
		)`,

		// Single-document settings store (JSON blob per key).
		`CREATE TABLE IF NOT EXISTS system_settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Append-only experience ledger.
		`CREATE TABLE IF NOT EXISTS xp_history (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			activity   TEXT NOT NULL,
			game_type  TEXT NOT NULL DEFAULT '',
			amount     INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_user ON xp_history(user_id, created_at)`,

		// Nightly leaderboard captures.
		`CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			scope            TEXT NOT NULL,
			scope_key        TEXT NOT NULL DEFAULT '',
			user_id          TEXT NOT NULL,
			position         INTEGER NOT NULL,
			total_experience INTEGER NOT NULL,
			snapped_at       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_at ON leaderboard_snapshots(snapped_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx, so counter updates
// can run standalone or inside the award transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
