package store

import (
	"context"
	"fmt"
)

// SchemaVersion is the latest sqlite schema version.
const SchemaVersion = 1

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if err := s.createVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion < 1 {
		if err := s.migrateV1(ctx); err != nil {
			return fmt.Errorf("failed to run v1 migration: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) createVersionTable(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// migrateV1 creates the collections and entries tables. Vector tables are
// created per collection by GetOrCreateCollection.
func (s *SQLiteStore) migrateV1(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dimensions INTEGER NOT NULL,
			next_seq INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			collection TEXT NOT NULL,
			exchange_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			document TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (collection, id),
			FOREIGN KEY (collection) REFERENCES collections(name) ON DELETE CASCADE
		)
	`); err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_entries_exchange ON entries(collection, exchange_id)
	`); err != nil {
		return fmt.Errorf("failed to create entries exchange index: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", 1); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return tx.Commit()
}

// TableExists checks if a table exists in the database.
func (s *SQLiteStore) TableExists(ctx context.Context, tableName string) (bool, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name=?
	`, tableName).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
