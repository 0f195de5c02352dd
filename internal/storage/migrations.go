package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Categories and applied categorizations",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					title TEXT NOT NULL UNIQUE COLLATE NOCASE,
					created_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS categorizations (
					transaction_id TEXT PRIMARY KEY,
					hash TEXT,
					category TEXT NOT NULL,
					previous_category TEXT,
					source TEXT NOT NULL,
					labels TEXT NOT NULL DEFAULT '[]',
					confidence INTEGER NOT NULL DEFAULT 0,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_categorizations_category ON categorizations(category)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Run history and per-run decisions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					finished_at DATETIME,
					source TEXT NOT NULL DEFAULT '',
					mode TEXT NOT NULL,
					strategy TEXT NOT NULL,
					intelligence TEXT NOT NULL,
					error TEXT NOT NULL DEFAULT '',
					total INTEGER NOT NULL DEFAULT 0,
					rule_matches INTEGER NOT NULL DEFAULT 0,
					llm_used INTEGER NOT NULL DEFAULT 0,
					conflicts INTEGER NOT NULL DEFAULT 0,
					applied INTEGER NOT NULL DEFAULT 0,
					skipped INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE TABLE IF NOT EXISTS decisions (
					run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
					transaction_id TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					suggested_category TEXT NOT NULL DEFAULT '',
					source TEXT NOT NULL,
					error TEXT NOT NULL DEFAULT '',
					labels TEXT NOT NULL DEFAULT '[]',
					matched_rules TEXT NOT NULL DEFAULT '[]',
					confidence INTEGER NOT NULL DEFAULT 0,
					needs_review INTEGER NOT NULL DEFAULT 0,
					llm_used INTEGER NOT NULL DEFAULT 0,
					validated INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (run_id, transaction_id)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Rule hit statistics",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS rule_stats (
					rule TEXT PRIMARY KEY,
					hits INTEGER NOT NULL DEFAULT 0,
					last_used DATETIME
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
