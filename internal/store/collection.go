package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// maxKNN is the largest k a vec0 KNN query accepts.
const maxKNN = 4096

type sqliteCollection struct {
	conn       *sql.DB
	name       string
	dimensions int
}

// Compile-time check that sqliteCollection implements Collection
var _ Collection = (*sqliteCollection)(nil)

func (c *sqliteCollection) Name() string {
	return c.name
}

func (c *sqliteCollection) Dimensions() int {
	return c.dimensions
}

func (c *sqliteCollection) Insert(ctx context.Context, exchange Exchange) ([]string, error) {
	return c.add(ctx, exchange.entries(), true)
}

func (c *sqliteCollection) Add(ctx context.Context, entries []NewEntry) ([]string, error) {
	return c.add(ctx, entries, false)
}

// add writes entries in one transaction. With shared set, every entry gets
// the same sequence number; otherwise each gets its own.
func (c *sqliteCollection) add(ctx context.Context, entries []NewEntry, shared bool) ([]string, error) {
	if err := validateEntries(entries, c.dimensions); err != nil {
		return nil, err
	}

	serialized := make([][]byte, len(entries))
	for i, e := range entries {
		b, err := sqlite_vec.SerializeFloat32(e.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize embedding %d: %w", i, err)
		}
		serialized[i] = b
	}

	reserve := int64(len(entries))
	if shared {
		reserve = 1
	}

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var first int64
	err = tx.QueryRowContext(ctx,
		`UPDATE collections SET next_seq = next_seq + ? WHERE name = ? RETURNING next_seq - ?`,
		reserve, c.name, reserve).Scan(&first)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve identifiers: %w", err)
	}

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (id, collection, exchange_id, kind, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare entry statement: %w", err)
	}
	defer entryStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (entry_id, embedding) VALUES (?, ?)`, vecTable(c.name)))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare vector statement: %w", err)
	}
	defer vecStmt.Close()

	now := time.Now().UTC()
	ids := make([]string, len(entries))
	for i, e := range entries {
		n := first
		if !shared {
			n = first + int64(i)
		}
		ids[i] = EntryID(e.Kind, n)

		if _, err := entryStmt.ExecContext(ctx, ids[i], c.name, e.ExchangeID, string(e.Kind), e.Document, now); err != nil {
			return nil, fmt.Errorf("failed to insert entry %s: %w", ids[i], err)
		}
		if _, err := vecStmt.ExecContext(ctx, ids[i], serialized[i]); err != nil {
			return nil, fmt.Errorf("failed to insert embedding for %s: %w", ids[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ids, nil
}

// Query runs a vec0 KNN search; distances are L2.
func (c *sqliteCollection) Query(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}
	if err := validateQuery(embedding, c.dimensions); err != nil {
		return nil, err
	}
	if topK > maxKNN {
		topK = maxKNN
	}

	serialized, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query embedding: %w", err)
	}

	rows, err := c.conn.QueryContext(ctx, fmt.Sprintf(`
		WITH knn AS (
			SELECT entry_id, distance
			FROM %s
			WHERE embedding MATCH ? AND k = ?
		)
		SELECT e.id, e.exchange_id, e.kind, e.document, knn.distance
		FROM knn
		JOIN entries e ON e.collection = ? AND e.id = knn.entry_id
		ORDER BY knn.distance, e.seq
	`, vecTable(c.name)), serialized, topK, c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var m Match
		var kind string
		if err := rows.Scan(&m.ID, &m.ExchangeID, &kind, &m.Document, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		m.Kind = EntryKind(kind)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return matches, nil
}

func (c *sqliteCollection) GetAll(ctx context.Context) (*Snapshot, error) {
	rows, err := c.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT e.seq, e.id, e.exchange_id, e.kind, e.document, e.created_at, v.embedding
		FROM entries e
		JOIN %s v ON v.entry_id = e.id
		WHERE e.collection = ?
		ORDER BY e.seq
	`, vecTable(c.name)), c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", c.name, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var kind string
		var blob []byte
		if err := rows.Scan(&e.Seq, &e.ID, &e.ExchangeID, &kind, &e.Document, &e.CreatedAt, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Kind = EntryKind(kind)
		if e.Embedding, err = deserializeFloat32(blob); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return newSnapshot(entries), nil
}

func (c *sqliteCollection) Count(ctx context.Context) (int, error) {
	var count int
	err := c.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE collection = ?`, c.name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func (c *sqliteCollection) Reset(ctx context.Context) error {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, vecTable(c.name))); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE collection = ?`, c.name); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	return tx.Commit()
}

// deserializeFloat32 reverses sqlite_vec.SerializeFloat32.
func deserializeFloat32(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("corrupt embedding blob of %d bytes", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}
