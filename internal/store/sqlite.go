package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// BackendSQLite names the sqlite-vec backend.
const BackendSQLite = "sqlite-vec"

// SQLiteStore keeps collections in a sqlite database with one vec0 table
// per collection.
type SQLiteStore struct {
	conn   *sql.DB
	path   string
	mu     sync.Mutex
	loaded map[string]*sqliteCollection
}

// Compile-time check that SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and migrates
// it. ":memory:" or "" gives a private in-process database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	sqlite_vec.Auto()

	memory := path == "" || path == MemoryDSN
	var dsn string
	if memory {
		path = MemoryDSN
		dsn = "file::memory:?_foreign_keys=on"
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = path + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		// every connection to :memory: is a separate database
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		conn.SetConnMaxIdleTime(0)
	} else if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path, loaded: make(map[string]*sqliteCollection)}

	if err := s.verifySqliteVec(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) verifySqliteVec(ctx context.Context) error {
	var version string
	if err := s.conn.QueryRowContext(ctx, "SELECT vec_version()").Scan(&version); err != nil {
		return fmt.Errorf("vec_version() failed: %w", err)
	}
	return nil
}

// Backend returns the backend name.
func (s *SQLiteStore) Backend() string {
	return BackendSQLite
}

// Path returns the database path, or ":memory:".
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database. An in-memory database is discarded.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// GetOrCreateCollection returns the named collection, creating it with the
// given dimensionality if it does not exist. An existing collection keeps
// its dimensionality; asking for a different one is an error.
func (s *SQLiteStore) GetOrCreateCollection(ctx context.Context, name string, dimensions int) (Collection, error) {
	if err := ValidateCollectionName(name); err != nil {
		return nil, err
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("collection %s: dimensions must be positive, got %d", name, dimensions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.loaded[name]; ok {
		if c.dimensions != dimensions {
			return nil, fmt.Errorf("%w: collection %s has %d dimensions, requested %d", ErrDimensionMismatch, name, c.dimensions, dimensions)
		}
		return c, nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx, `SELECT dimensions FROM collections WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections (name, dimensions, next_seq, created_at) VALUES (?, ?, 1, ?)`,
			name, dimensions, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
			CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
				entry_id TEXT PRIMARY KEY,
				embedding FLOAT[%d]
			)
		`, vecTable(name), dimensions)); err != nil {
			return nil, fmt.Errorf("failed to create vector table for %s: %w", name, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up collection %s: %w", name, err)
	case existing != dimensions:
		return nil, fmt.Errorf("%w: collection %s has %d dimensions, requested %d", ErrDimensionMismatch, name, existing, dimensions)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	c := &sqliteCollection{conn: s.conn, name: name, dimensions: dimensions}
	s.loaded[name] = c
	return c, nil
}

// Collections lists every collection with its entry count.
func (s *SQLiteStore) Collections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT c.name, c.dimensions, c.created_at,
			(SELECT COUNT(*) FROM entries e WHERE e.collection = c.name)
		FROM collections c
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	infos := []CollectionInfo{}
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.Dimensions, &info.CreatedAt, &info.Count); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func vecTable(collection string) string {
	return `"vec_` + collection + `"`
}
