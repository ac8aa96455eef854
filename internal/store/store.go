// Package store persists chat exchanges as vector embeddings and answers
// nearest-neighbour queries over them.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// EntryKind tells the two halves of an exchange apart.
type EntryKind string

const (
	// KindQuery is the user's question
	KindQuery EntryKind = "query"
	// KindResponse is the model's answer
	KindResponse EntryKind = "response"
)

// MemoryDSN selects a process-lifetime sqlite database.
const MemoryDSN = ":memory:"

var (
	// ErrDimensionMismatch is returned when an embedding has the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrInvalidCollectionName is returned for names unusable as a table suffix.
	ErrInvalidCollectionName = errors.New("invalid collection name")
	// ErrEmptyEntries is returned by Add when there is nothing to insert.
	ErrEmptyEntries = errors.New("no entries to add")
)

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,62}$`)

// Exchange is a question and its answer, embedded and ready to store.
type Exchange struct {
	ID                string
	Query             string
	QueryEmbedding    []float32
	Response          string
	ResponseEmbedding []float32
}

// NewEntry is one document to add to a collection.
type NewEntry struct {
	ExchangeID string
	Kind       EntryKind
	Document   string
	Embedding  []float32
}

// Entry is a stored document.
type Entry struct {
	Seq        int64
	ID         string
	ExchangeID string
	Kind       EntryKind
	Document   string
	Embedding  []float32
	CreatedAt  time.Time
}

// Match is a query hit. Smaller distances are closer.
type Match struct {
	ID         string    `json:"id"`
	ExchangeID string    `json:"exchange_id"`
	Kind       EntryKind `json:"kind"`
	Document   string    `json:"document"`
	Distance   float32   `json:"distance"`
}

// Snapshot is the full contents of a collection in insertion order.
type Snapshot struct {
	IDs        []string
	Embeddings [][]float32
	Documents  []string
	Entries    []Entry
}

// CollectionInfo summarizes a collection.
type CollectionInfo struct {
	Name       string    `json:"name"`
	Dimensions int       `json:"dimensions"`
	Count      int       `json:"count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Collection is a named set of entries sharing one embedding size.
type Collection interface {
	Name() string
	Dimensions() int
	// Insert stores both halves of an exchange atomically and returns
	// their identifiers, query first.
	Insert(ctx context.Context, exchange Exchange) ([]string, error)
	// Add stores entries atomically; each entry gets its own sequence number.
	Add(ctx context.Context, entries []NewEntry) ([]string, error)
	// Query returns up to topK entries closest to embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]Match, error)
	GetAll(ctx context.Context) (*Snapshot, error)
	Count(ctx context.Context) (int, error)
	// Reset removes every entry. The identifier sequence is not rewound.
	Reset(ctx context.Context) error
}

// Store opens collections on one backend.
type Store interface {
	GetOrCreateCollection(ctx context.Context, name string, dimensions int) (Collection, error)
	Collections(ctx context.Context) ([]CollectionInfo, error)
	Backend() string
	Close() error
}

// Open picks a backend from the DSN: postgres:// and postgresql:// URLs use
// pgvector, anything else is a sqlite-vec database path or :memory:.
func Open(ctx context.Context, dsn string) (Store, error) {
	if IsPostgresDSN(dsn) {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(ctx, dsn)
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// EntryID formats the identifier of an entry.
func EntryID(kind EntryKind, n int64) string {
	return fmt.Sprintf("doc-%s-%d", kind, n)
}

// ValidateCollectionName checks that name can be used as a table suffix.
func ValidateCollectionName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollectionName, name)
	}
	return nil
}

func (e Exchange) entries() []NewEntry {
	return []NewEntry{
		{ExchangeID: e.ID, Kind: KindQuery, Document: e.Query, Embedding: e.QueryEmbedding},
		{ExchangeID: e.ID, Kind: KindResponse, Document: e.Response, Embedding: e.ResponseEmbedding},
	}
}

func validateEntries(entries []NewEntry, dimensions int) error {
	if len(entries) == 0 {
		return ErrEmptyEntries
	}
	for i, e := range entries {
		if len(e.Embedding) != dimensions {
			return fmt.Errorf("%w: entry %d has %d dimensions, collection has %d", ErrDimensionMismatch, i, len(e.Embedding), dimensions)
		}
		if e.Kind != KindQuery && e.Kind != KindResponse {
			return fmt.Errorf("entry %d: unknown kind %q", i, e.Kind)
		}
	}
	return nil
}

func validateQuery(embedding []float32, dimensions int) error {
	if len(embedding) != dimensions {
		return fmt.Errorf("%w: query has %d dimensions, collection has %d", ErrDimensionMismatch, len(embedding), dimensions)
	}
	return nil
}

func newSnapshot(entries []Entry) *Snapshot {
	s := &Snapshot{
		IDs:        make([]string, len(entries)),
		Embeddings: make([][]float32, len(entries)),
		Documents:  make([]string, len(entries)),
		Entries:    entries,
	}
	for i, e := range entries {
		s.IDs[i] = e.ID
		s.Embeddings[i] = e.Embedding
		s.Documents[i] = e.Document
	}
	return s
}
