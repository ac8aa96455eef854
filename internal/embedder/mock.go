package embedder

import (
	"context"
	"crypto/sha256"
	"errors"
	"math"
	"sync"
)

// MockDimensions matches the all-minilm sentence embedding size.
const MockDimensions = 384

// MockEmbedder is a test implementation of the Embedder interface that generates
// deterministic embeddings based on input text. It uses SHA256 hashing to ensure
// that the same input always produces the same output embedding.
type MockEmbedder struct {
	mu         sync.RWMutex
	dimensions int
	healthy    bool
	modelName  string
	err        error
}

// Compile-time check that MockEmbedder implements Embedder
var _ Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a new MockEmbedder with default settings:
// - 384 dimensions
// - healthy=true
// - modelName="mock-embedder"
func NewMockEmbedder() *MockEmbedder {
	return NewMockEmbedderWithDimensions(MockDimensions)
}

// NewMockEmbedderWithDimensions creates a MockEmbedder producing vectors of
// the given size.
func NewMockEmbedderWithDimensions(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = MockDimensions
	}
	return &MockEmbedder{
		dimensions: dimensions,
		healthy:    true,
		modelName:  "mock-embedder",
	}
}

// SetHealthy toggles the health state of the mock embedder.
// When set to false, Health() will return an error.
func (m *MockEmbedder) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// SetError makes every subsequent embed call fail with err. Pass nil to
// restore normal behavior.
func (m *MockEmbedder) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// EmbedSingle generates a deterministic embedding for a single text input.
// The same input text will always produce the same output embedding.
func (m *MockEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if err := m.failure(); err != nil {
		return nil, err
	}
	return m.generateDeterministic(text), nil
}

// Embed generates deterministic embeddings for multiple text inputs.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := m.failure(); err != nil {
		return nil, err
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = m.generateDeterministic(text)
	}
	return embeddings, nil
}

// Health returns nil if the embedder is healthy, or an error if not.
func (m *MockEmbedder) Health(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.healthy {
		return errors.New("mock embedder is unhealthy")
	}
	return nil
}

// ModelName returns the name of the mock model.
func (m *MockEmbedder) ModelName() string {
	return m.modelName
}

// Dimensions returns the embedding dimension count.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbedder) failure() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// generateDeterministic creates a deterministic embedding from the input text.
// Uses SHA256 to generate pseudo-random but consistent values, then normalizes
// the vector to have unit magnitude.
func (m *MockEmbedder) generateDeterministic(text string) []float32 {
	embedding := make([]float32, m.dimensions)

	hash := sha256.Sum256([]byte(text))

	for i := 0; i < m.dimensions; i++ {
		idx := i % 32
		val := float64(hash[idx]) / 255.0
		offset := float64(i) / float64(m.dimensions)
		embedding[i] = float32(val*0.5 + offset*0.5)
	}

	var norm float64
	for _, v := range embedding {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range embedding {
		embedding[i] = float32(float64(embedding[i]) / norm)
	}

	return embedding
}
