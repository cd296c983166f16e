package journal

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func initSchema(db *sql.DB) error {
	var version int
	err := db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version == schemaVersion {
		return nil
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: version %d, expected %d", ErrSchemaTooNew, version, schemaVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := createTables(tx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return tx.Commit()
}

func createTables(tx *sql.Tx) error {
	queries := []string{
		// One row per generation attempt, rejected ones included.
		// - context_chars: runes of extracted context sent (0 when rejected early)
		// - outcome: ok | rejected | failed | cancelled
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            started_at INTEGER NOT NULL,
            finished_at INTEGER NOT NULL,
            uri TEXT NOT NULL,
            model TEXT NOT NULL,
            context_chars INTEGER NOT NULL DEFAULT 0,
            outcome TEXT NOT NULL,
            error TEXT NOT NULL DEFAULT '',
            response TEXT NOT NULL DEFAULT ''
        )`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started
            ON runs(started_at)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %q: %w", query, err)
		}
	}

	return nil
}
