package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ProviderType represents the type of embedding provider
type ProviderType string

const (
	// ProviderOllama uses an Ollama server for embeddings
	ProviderOllama ProviderType = "ollama"
	// ProviderMock produces deterministic hash-based vectors without a server
	ProviderMock ProviderType = "mock"
)

// IsValid returns true if the provider type is recognized
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderOllama, ProviderMock:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable name for the provider
func (p ProviderType) DisplayName() string {
	switch p {
	case ProviderOllama:
		return "Ollama"
	case ProviderMock:
		return "Mock (offline)"
	default:
		return "Unknown"
	}
}

// AllProviders returns all available provider types
func AllProviders() []ProviderType {
	return []ProviderType{ProviderOllama, ProviderMock}
}

// ProviderConfig holds the configuration for creating an embedder
type ProviderConfig struct {
	Provider   string
	URL        string
	Model      string
	Dimensions int
	MaxTokens  int
	Overflow   string
	CacheSize  int
	RedisURL   string
	Timeout    time.Duration
}

// NewFromConfig creates an Embedder based on the provider configuration.
// The provider is wrapped with the token budget and then the caches, so
// cached vectors are always the ones produced under the budget.
// The returned close function releases the shared cache, if any.
func NewFromConfig(ctx context.Context, cfg *ProviderConfig, logger *slog.Logger) (Embedder, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider := ProviderType(cfg.Provider)
	if cfg.Provider == "" {
		return nil, nil, ErrProviderNotConfigured
	}
	if !provider.IsValid() {
		return nil, nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}

	policy, err := ParseOverflowPolicy(cfg.Overflow)
	if err != nil {
		return nil, nil, err
	}

	var base Embedder
	switch provider {
	case ProviderMock:
		base = NewMockEmbedderWithDimensions(cfg.Dimensions)
	default:
		client := NewOllamaClient(OllamaConfig{
			BaseURL:    cfg.URL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			MaxTokens:  cfg.MaxTokens,
			Timeout:    cfg.Timeout,
		})
		if client.Dimensions() == 0 {
			return nil, nil, ErrUnknownDimensions.WithCause(fmt.Errorf("model %q", cfg.Model))
		}
		base = client
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = GetContextSizeForModel(cfg.Model)
	}
	var e Embedder = NewBudgetedEmbedder(base, maxTokens, policy, logger)

	closer := func() error { return nil }
	if cfg.CacheSize > 0 {
		cached := NewCachedEmbedder(e, cfg.CacheSize)
		if cfg.RedisURL != "" {
			shared, err := NewRedisCache(ctx, cfg.RedisURL, 0)
			if err != nil {
				return nil, nil, err
			}
			cached.WithSharedCache(shared, logger)
			closer = shared.Close
		}
		e = cached
	}

	return e, closer, nil
}
