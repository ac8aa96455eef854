// Package chat implements the chatbot's user actions: ask a question, search
// past exchanges, and view the stored history and embeddings.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parley-dev/parley/internal/embedder"
	"github.com/parley-dev/parley/internal/llm"
	"github.com/parley-dev/parley/internal/metrics"
	"github.com/parley-dev/parley/internal/store"
)

// DefaultSearchLimit is how many matches a search returns.
const DefaultSearchLimit = 5

// Deps are the collaborators a Service works with.
type Deps struct {
	LLM         llm.Completer
	Embedder    embedder.Embedder
	Collection  store.Collection
	Logger      *slog.Logger
	Metrics     *metrics.Recorder
	SearchLimit int
}

// Service holds the process-lifetime state shared by every action.
// It is safe for concurrent use.
type Service struct {
	llm         llm.Completer
	embedder    embedder.Embedder
	collection  store.Collection
	logger      *slog.Logger
	metrics     *metrics.Recorder
	searchLimit int
}

// New creates a Service. LLM, Embedder and Collection are required.
func New(deps Deps) (*Service, error) {
	if deps.LLM == nil || deps.Embedder == nil || deps.Collection == nil {
		return nil, fmt.Errorf("chat: LLM, Embedder and Collection are required")
	}
	if deps.Embedder.Dimensions() != deps.Collection.Dimensions() {
		return nil, fmt.Errorf("%w: embedder produces %d dimensions, collection %s stores %d",
			store.ErrDimensionMismatch, deps.Embedder.Dimensions(), deps.Collection.Name(), deps.Collection.Dimensions())
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.SearchLimit <= 0 {
		deps.SearchLimit = DefaultSearchLimit
	}
	return &Service{
		llm:         deps.LLM,
		embedder:    deps.Embedder,
		collection:  deps.Collection,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		searchLimit: deps.SearchLimit,
	}, nil
}

// Collection returns the collection exchanges are written to.
func (s *Service) Collection() store.Collection {
	return s.collection
}

// Embedder returns the embedder used for questions, answers and searches.
func (s *Service) Embedder() embedder.Embedder {
	return s.embedder
}

// Metrics returns the recorder, which may be nil.
func (s *Service) Metrics() *metrics.Recorder {
	return s.metrics
}

// SearchLimit returns the default number of search matches.
func (s *Service) SearchLimit() int {
	return s.searchLimit
}

// Ask sends question to the model and stores the question and answer. A
// failed model call still produces an answer (the failure message), which
// is stored like any other. Only blank input and cancellation are errors.
func (s *Service) Ask(ctx context.Context, question string) (*AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	result := &AskResult{
		Question:   question,
		ExchangeID: uuid.NewString(),
	}

	done := s.metrics.Time(metrics.ActionLLM)
	text, err := s.llm.Complete(ctx, question)
	done(err != nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f := llmFailure(err)
		s.logger.Warn("inference failed", "kind", f.Kind, "error", err)
		result.Answer = Answer{Text: f.Message, Failure: f}
	} else {
		result.Answer = Answer{Text: text}
	}

	ids, failure, err := s.store(ctx, result)
	if err != nil {
		return nil, err
	}
	result.IDs = ids
	result.StoreFailure = failure

	result.Duration = time.Since(start)
	s.metrics.Observe(metrics.ActionAsk, result.Duration, result.Answer.Failed() || failure != nil)
	return result, nil
}

// store embeds and inserts the exchange. Failures come back as a Failure;
// only cancellation is returned as an error.
func (s *Service) store(ctx context.Context, result *AskResult) ([]string, *Failure, error) {
	done := s.metrics.Time(metrics.ActionEmbed)
	vectors, err := s.embedder.Embed(ctx, []string{result.Question, result.Answer.Text})
	done(err != nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		s.logger.Error("failed to embed exchange", "exchange_id", result.ExchangeID, "error", err)
		return nil, &Failure{Kind: FailureEmbedding, Message: fmt.Sprintf("Error adding to ChromaDB: %v", err)}, nil
	}

	done = s.metrics.Time(metrics.ActionStore)
	ids, err := s.collection.Insert(ctx, store.Exchange{
		ID:                result.ExchangeID,
		Query:             result.Question,
		QueryEmbedding:    vectors[0],
		Response:          result.Answer.Text,
		ResponseEmbedding: vectors[1],
	})
	done(err != nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		s.logger.Error("failed to store exchange", "exchange_id", result.ExchangeID, "error", err)
		return nil, &Failure{Kind: FailureStore, Message: fmt.Sprintf("Error adding to ChromaDB: %v", err)}, nil
	}

	s.logger.Info("stored exchange",
		"collection", s.collection.Name(),
		"query_id", ids[0],
		"response_id", ids[1],
		"exchange_id", result.ExchangeID)
	return ids, nil, nil
}

// Search returns the documents closest to query, up to the configured limit.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	return s.SearchWithLimit(ctx, query, s.searchLimit)
}

// SearchWithLimit is Search with an explicit match limit; limit <= 0 uses
// the configured one.
func (s *Service) SearchWithLimit(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyInput
	}
	if limit <= 0 {
		limit = s.searchLimit
	}

	done := s.metrics.Time(metrics.ActionSearch)
	result, err := s.search(ctx, query, limit)
	if err != nil {
		done(true)
		return nil, err
	}
	done(result.Failure != nil)
	return result, nil
}

func (s *Service) search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	result := &SearchResult{Query: query}

	fail := func(kind FailureKind, err error) (*SearchResult, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("search failed", "kind", kind, "error", err)
		result.Failure = &Failure{Kind: kind, Message: fmt.Sprintf("Error searching in ChromaDB: %v", err)}
		result.Lines = []string{result.Failure.Message}
		return result, nil
	}

	vector, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return fail(FailureEmbedding, err)
	}

	matches, err := s.collection.Query(ctx, vector, limit)
	if err != nil {
		return fail(FailureStore, err)
	}

	if len(matches) == 0 {
		result.Empty = true
		result.Lines = []string{NoMatchesMessage}
		result.Matches = []store.Match{}
		return result, nil
	}

	result.Matches = matches
	result.Lines = make([]string, len(matches))
	for i, m := range matches {
		result.Lines[i] = m.Document
	}
	return result, nil
}

// History returns every stored document in insertion order, queries and
// responses interleaved.
func (s *Service) History(ctx context.Context) (*History, error) {
	done := s.metrics.Time(metrics.ActionHistory)

	snap, err := s.collection.GetAll(ctx)
	if err != nil {
		done(true)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("failed to read history", "error", err)
		return &History{
			Items:   []HistoryItem{},
			Failure: &Failure{Kind: FailureStore, Message: fmt.Sprintf("Error retrieving history: %v", err)},
		}, nil
	}
	done(false)

	items := make([]HistoryItem, len(snap.Entries))
	for i, e := range snap.Entries {
		items[i] = HistoryItem{
			Index:      i + 1,
			ID:         e.ID,
			ExchangeID: e.ExchangeID,
			Kind:       e.Kind,
			Document:   e.Document,
			CreatedAt:  e.CreatedAt,
		}
	}
	return &History{Items: items}, nil
}

// Embeddings returns every stored vector with its first preview dimensions.
// preview <= 0 uses DefaultPreview.
func (s *Service) Embeddings(ctx context.Context, preview int) (*EmbeddingsView, error) {
	if preview <= 0 {
		preview = DefaultPreview
	}
	done := s.metrics.Time(metrics.ActionEmbeddings)

	snap, err := s.collection.GetAll(ctx)
	if err != nil {
		done(true)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("failed to read embeddings", "error", err)
		return &EmbeddingsView{
			Items:   []EmbeddingPreview{},
			Failure: &Failure{Kind: FailureStore, Message: fmt.Sprintf("Error retrieving embeddings: %v", err)},
		}, nil
	}
	done(false)

	view := &EmbeddingsView{Items: make([]EmbeddingPreview, len(snap.Embeddings)), Empty: len(snap.Embeddings) == 0}
	for i, vec := range snap.Embeddings {
		n := preview
		if n > len(vec) {
			n = len(vec)
		}
		head := make([]float32, n)
		copy(head, vec[:n])
		view.Items[i] = EmbeddingPreview{
			Index:      i + 1,
			ID:         snap.IDs[i],
			Dimensions: len(vec),
			Preview:    head,
		}
	}
	return view, nil
}

// llmFailure converts an inference error into a Failure carrying the
// message shown in place of the answer.
func llmFailure(err error) *Failure {
	kind := FailureTransport
	if llmErr, ok := llm.AsError(err); ok {
		switch llmErr.Kind {
		case llm.KindStatus:
			kind = FailureStatus
		case llm.KindInvalidResponse:
			kind = FailureInvalidResponse
		}
	}
	return &Failure{Kind: kind, Message: err.Error()}
}

// Clear removes every stored exchange. Identifiers are not reused afterwards.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.collection.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	s.logger.Info("cleared collection", "collection", s.collection.Name())
	return nil
}
