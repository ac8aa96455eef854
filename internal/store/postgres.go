package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// BackendPostgres names the pgvector backend.
const BackendPostgres = "pgvector"

// PostgresStore keeps collections in PostgreSQL using the pgvector extension.
// All collections share one entries table; dimensionality is enforced on write.
type PostgresStore struct {
	db     *sql.DB
	mu     sync.Mutex
	loaded map[string]*pgCollection
}

// Compile-time check that PostgresStore implements Store
var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn through pgx and creates the tables.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db, loaded: make(map[string]*pgCollection)}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS parley_collections (
			name TEXT PRIMARY KEY,
			dimensions INTEGER NOT NULL,
			next_seq BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS parley_entries (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL,
			collection TEXT NOT NULL REFERENCES parley_collections(name) ON DELETE CASCADE,
			exchange_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			document TEXT NOT NULL,
			embedding vector NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parley_entries_collection ON parley_entries (collection, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

// Backend returns the backend name.
func (s *PostgresStore) Backend() string {
	return BackendPostgres
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetOrCreateCollection returns the named collection, creating it if needed.
func (s *PostgresStore) GetOrCreateCollection(ctx context.Context, name string, dimensions int) (Collection, error) {
	if err := ValidateCollectionName(name); err != nil {
		return nil, err
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("collection %s: dimensions must be positive, got %d", name, dimensions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.loaded[name]; ok && c.dimensions == dimensions {
		return c, nil
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO parley_collections (name, dimensions) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, name, dimensions); err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}

	var existing int
	if err := s.db.QueryRowContext(ctx, `SELECT dimensions FROM parley_collections WHERE name = $1`, name).Scan(&existing); err != nil {
		return nil, fmt.Errorf("look up collection %s: %w", name, err)
	}
	if existing != dimensions {
		return nil, fmt.Errorf("%w: collection %s has %d dimensions, requested %d", ErrDimensionMismatch, name, existing, dimensions)
	}

	c := &pgCollection{db: s.db, name: name, dimensions: dimensions}
	s.loaded[name] = c
	return c, nil
}

// Collections lists every collection with its entry count.
func (s *PostgresStore) Collections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.dimensions, c.created_at,
			(SELECT COUNT(*) FROM parley_entries e WHERE e.collection = c.name)
		FROM parley_collections c
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	infos := []CollectionInfo{}
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.Dimensions, &info.CreatedAt, &info.Count); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

type pgCollection struct {
	db         *sql.DB
	name       string
	dimensions int
}

// Compile-time check that pgCollection implements Collection
var _ Collection = (*pgCollection)(nil)

func (c *pgCollection) Name() string {
	return c.name
}

func (c *pgCollection) Dimensions() int {
	return c.dimensions
}

func (c *pgCollection) Insert(ctx context.Context, exchange Exchange) ([]string, error) {
	return c.add(ctx, exchange.entries(), true)
}

func (c *pgCollection) Add(ctx context.Context, entries []NewEntry) ([]string, error) {
	return c.add(ctx, entries, false)
}

func (c *pgCollection) add(ctx context.Context, entries []NewEntry, shared bool) ([]string, error) {
	if err := validateEntries(entries, c.dimensions); err != nil {
		return nil, err
	}

	reserve := int64(len(entries))
	if shared {
		reserve = 1
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// the row lock taken by UPDATE serializes concurrent writers
	var first int64
	if err := tx.QueryRowContext(ctx, `
		UPDATE parley_collections SET next_seq = next_seq + $2
		WHERE name = $1
		RETURNING next_seq - $2
	`, c.name, reserve).Scan(&first); err != nil {
		return nil, fmt.Errorf("reserve identifiers: %w", err)
	}

	now := time.Now().UTC()
	ids := make([]string, len(entries))
	for i, e := range entries {
		n := first
		if !shared {
			n = first + int64(i)
		}
		ids[i] = EntryID(e.Kind, n)

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO parley_entries (id, collection, exchange_id, kind, document, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6::vector, $7)
		`, ids[i], c.name, e.ExchangeID, string(e.Kind), e.Document, formatVector(e.Embedding), now); err != nil {
			return nil, fmt.Errorf("insert entry %s: %w", ids[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// Query orders by cosine distance.
func (c *pgCollection) Query(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}
	if err := validateQuery(embedding, c.dimensions); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, exchange_id, kind, document, (embedding <=> $2::vector) AS distance
		FROM parley_entries
		WHERE collection = $1
		ORDER BY distance, seq
		LIMIT $3
	`, c.name, formatVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var m Match
		var kind string
		var distance float64
		if err := rows.Scan(&m.ID, &m.ExchangeID, &kind, &m.Document, &distance); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		m.Kind = EntryKind(kind)
		m.Distance = float32(distance)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (c *pgCollection) GetAll(ctx context.Context) (*Snapshot, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, id, exchange_id, kind, document, created_at, embedding::text
		FROM parley_entries
		WHERE collection = $1
		ORDER BY seq
	`, c.name)
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", c.name, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var kind, vec string
		if err := rows.Scan(&e.Seq, &e.ID, &e.ExchangeID, &kind, &e.Document, &e.CreatedAt, &vec); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = EntryKind(kind)
		if e.Embedding, err = parseVector(vec); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return newSnapshot(entries), nil
}

func (c *pgCollection) Count(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parley_entries WHERE collection = $1`, c.name).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

func (c *pgCollection) Reset(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM parley_entries WHERE collection = $1`, c.name); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

// formatVector converts a vector to pgvector text form: "[0.1,0.2,0.3]"
func formatVector(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector converts pgvector text form back to a vector.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return []float32{}, nil
	}

	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
