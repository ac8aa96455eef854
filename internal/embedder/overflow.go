package embedder

import (
	"context"
	"fmt"
	"log/slog"
)

// OverflowPolicy decides what happens to input longer than the model's
// token budget.
type OverflowPolicy string

const (
	// OverflowTruncate cuts the input to the budget and logs a warning
	OverflowTruncate OverflowPolicy = "truncate"
	// OverflowChunk embeds budget-sized windows and mean-pools the results
	OverflowChunk OverflowPolicy = "chunk"
	// OverflowReject fails with ErrInputTooLong
	OverflowReject OverflowPolicy = "reject"
)

// ParseOverflowPolicy validates a policy name from configuration.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch p := OverflowPolicy(s); p {
	case OverflowTruncate, OverflowChunk, OverflowReject:
		return p, nil
	case "":
		return OverflowTruncate, nil
	default:
		return "", fmt.Errorf("unknown overflow policy: %s", s)
	}
}

// BudgetedEmbedder enforces a token budget in front of another Embedder.
type BudgetedEmbedder struct {
	embedder  Embedder
	maxTokens int
	policy    OverflowPolicy
	logger    *slog.Logger
}

// Compile-time check that BudgetedEmbedder implements Embedder
var _ Embedder = (*BudgetedEmbedder)(nil)

// NewBudgetedEmbedder wraps embedder with the given budget and policy.
func NewBudgetedEmbedder(embedder Embedder, maxTokens int, policy OverflowPolicy, logger *slog.Logger) *BudgetedEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = OverflowTruncate
	}
	return &BudgetedEmbedder{
		embedder:  embedder,
		maxTokens: maxTokens,
		policy:    policy,
		logger:    logger,
	}
}

// EmbedSingle embeds text, applying the overflow policy when it is too long.
func (b *BudgetedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	tokens := EstimateTokens(text)
	if tokens <= b.maxTokens {
		return b.embedder.EmbedSingle(ctx, text)
	}

	switch b.policy {
	case OverflowReject:
		return nil, ErrInputTooLong.WithCause(fmt.Errorf("estimated %d tokens, limit is %d", tokens, b.maxTokens))

	case OverflowChunk:
		windows := SplitByTokens(text, b.maxTokens)
		b.logger.Info("input exceeds token budget, embedding in windows",
			"estimated_tokens", tokens, "max_tokens", b.maxTokens, "windows", len(windows))
		vectors, err := b.embedder.Embed(ctx, windows)
		if err != nil {
			return nil, err
		}
		return MeanPool(vectors)

	default:
		b.logger.Warn("input exceeds token budget, truncating",
			"estimated_tokens", tokens, "max_tokens", b.maxTokens)
		return b.embedder.EmbedSingle(ctx, TruncateToTokens(text, b.maxTokens))
	}
}

// Embed embeds every text. Texts within budget go out in one batch; the
// rest are handled one by one through EmbedSingle.
func (b *BudgetedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var fitTexts []string
	var fitIndices []int

	for i, text := range texts {
		if EstimateTokens(text) <= b.maxTokens {
			fitTexts = append(fitTexts, text)
			fitIndices = append(fitIndices, i)
			continue
		}
		vec, err := b.EmbedSingle(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}

	if len(fitTexts) > 0 {
		vectors, err := b.embedder.Embed(ctx, fitTexts)
		if err != nil {
			return nil, err
		}
		for i, vec := range vectors {
			results[fitIndices[i]] = vec
		}
	}

	return results, nil
}

// Health delegates to the underlying embedder.
func (b *BudgetedEmbedder) Health(ctx context.Context) error {
	return b.embedder.Health(ctx)
}

// ModelName delegates to the underlying embedder.
func (b *BudgetedEmbedder) ModelName() string {
	return b.embedder.ModelName()
}

// Dimensions delegates to the underlying embedder.
func (b *BudgetedEmbedder) Dimensions() int {
	return b.embedder.Dimensions()
}

// Policy returns the configured overflow policy.
func (b *BudgetedEmbedder) Policy() OverflowPolicy {
	return b.policy
}

// MeanPool averages vectors element-wise into one vector.
func MeanPool(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrInvalidRequest.WithCause(fmt.Errorf("no vectors to pool"))
	}
	dims := len(vectors[0])
	sums := make([]float64, dims)
	for i, v := range vectors {
		if len(v) != dims {
			return nil, ErrInvalidRequest.WithCause(fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(v), dims))
		}
		for j, x := range v {
			sums[j] += float64(x)
		}
	}
	pooled := make([]float32, dims)
	n := float64(len(vectors))
	for j, s := range sums {
		pooled[j] = float32(s / n)
	}
	return pooled, nil
}
