package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS work_sessions (
		id               TEXT PRIMARY KEY,
		task_key         TEXT NOT NULL,
		task_title       TEXT NOT NULL,
		task_type        TEXT NOT NULL,
		activity_id      INTEGER,
		activity_name    TEXT NOT NULL DEFAULT '',
		activity_value   TEXT NOT NULL DEFAULT '',
		start_time       TEXT NOT NULL,
		end_time         TEXT,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		comment          TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'draft'
		                 CHECK(status IN ('draft','adjusted','sent')),
		export_ref       TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_work_sessions_date ON work_sessions(date(start_time))`,
	`CREATE INDEX IF NOT EXISTS idx_work_sessions_status ON work_sessions(status)`,

	`CREATE TABLE IF NOT EXISTS daily_summaries (
		date             TEXT PRIMARY KEY,
		total_minutes    REAL NOT NULL,
		adjusted_minutes REAL,
		status           TEXT NOT NULL DEFAULT 'pending'
		                 CHECK(status IN ('pending','ready','sent')),
		sent_at          TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS configuration (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS recent_tasks (
		task_key     TEXT PRIMARY KEY,
		task_title   TEXT NOT NULL,
		task_type    TEXT NOT NULL,
		last_used_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recent_tasks_last_used ON recent_tasks(last_used_at DESC)`,

	// Default configuration, inserted once.
	`INSERT OR IGNORE INTO configuration (key, value, updated_at) VALUES
		('max_daily_hours',            '7.5',  strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		('notification_interval',      '60',   strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		('idle_alert_enabled',         'true', strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		('idle_alert_interval_minutes','15',   strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		('idle_alert_start_hour',      '8',    strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		('idle_alert_end_hour',        '18',   strftime('%Y-%m-%dT%H:%M:%SZ','now'))`,
}
