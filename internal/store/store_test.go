package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// unitVector returns a dims-sized vector with 1 at position hot.
func unitVector(dims, hot int) []float32 {
	v := make([]float32, dims)
	v[hot%dims] = 1
	return v
}

func testExchange(query, response string, dims, hot int) Exchange {
	return Exchange{
		ID:                "ex-" + query,
		Query:             query,
		QueryEmbedding:    unitVector(dims, hot),
		Response:          response,
		ResponseEmbedding: unitVector(dims, hot+1),
	}
}

// ============================================================================
// Identifiers and names
// ============================================================================

func TestEntryID(t *testing.T) {
	assert.Equal(t, "doc-query-1", EntryID(KindQuery, 1))
	assert.Equal(t, "doc-response-42", EntryID(KindResponse, 42))
}

func TestValidateCollectionName(t *testing.T) {
	valid := []string{"chatbot_data", "A", "team2_history"}
	for _, name := range valid {
		assert.NoError(t, ValidateCollectionName(name), name)
	}

	invalid := []string{"", "1chat", "chat-data", "chat data", `x"; DROP TABLE entries; --`}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateCollectionName(name), ErrInvalidCollectionName, name)
	}
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://localhost/parley"))
	assert.True(t, IsPostgresDSN("postgresql://user@db:5432/parley?sslmode=disable"))
	assert.False(t, IsPostgresDSN(":memory:"))
	assert.False(t, IsPostgresDSN("/var/lib/parley/chat.db"))
}

// ============================================================================
// Validation
// ============================================================================

func TestValidateEntries(t *testing.T) {
	ok := []NewEntry{{Kind: KindQuery, Embedding: unitVector(4, 0)}}
	assert.NoError(t, validateEntries(ok, 4))

	assert.ErrorIs(t, validateEntries(nil, 4), ErrEmptyEntries)

	short := []NewEntry{{Kind: KindQuery, Embedding: []float32{1, 2}}}
	assert.ErrorIs(t, validateEntries(short, 4), ErrDimensionMismatch)

	badKind := []NewEntry{{Kind: "summary", Embedding: unitVector(4, 0)}}
	err := validateEntries(badKind, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestExchangeEntries(t *testing.T) {
	entries := testExchange("q", "r", 4, 0).entries()

	require.Len(t, entries, 2)
	assert.Equal(t, KindQuery, entries[0].Kind)
	assert.Equal(t, "q", entries[0].Document)
	assert.Equal(t, KindResponse, entries[1].Kind)
	assert.Equal(t, "r", entries[1].Document)
	assert.Equal(t, entries[0].ExchangeID, entries[1].ExchangeID)
}

func TestNewSnapshot(t *testing.T) {
	snap := newSnapshot([]Entry{
		{ID: "doc-query-1", Document: "q", Embedding: []float32{1}},
		{ID: "doc-response-1", Document: "r", Embedding: []float32{2}},
	})

	assert.Equal(t, []string{"doc-query-1", "doc-response-1"}, snap.IDs)
	assert.Equal(t, []string{"q", "r"}, snap.Documents)
	assert.Equal(t, [][]float32{{1}, {2}}, snap.Embeddings)
}

// ============================================================================
// Vector encodings
// ============================================================================

func TestFormatParseVector(t *testing.T) {
	vec := []float32{0.1, -2.5, 3, 1e-7}

	text := formatVector(vec)
	assert.Equal(t, "[0.1,-2.5,3,1e-07]", text)

	got, err := parseVector(text)
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestParseVector_Invalid(t *testing.T) {
	_, err := parseVector("[0.1,abc]")
	assert.Error(t, err)

	empty, err := parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeserializeFloat32(t *testing.T) {
	vec, err := deserializeFloat32([]byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0xc0})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -2}, vec)

	_, err = deserializeFloat32([]byte{1, 2, 3})
	assert.Error(t, err)
}
