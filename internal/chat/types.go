package chat

import (
	"errors"
	"time"

	"github.com/parley-dev/parley/internal/store"
)

// ErrEmptyInput is returned when a question or search query is blank.
var ErrEmptyInput = errors.New("input is empty")

const (
	// NoMatchesMessage is the single result line of a search that found nothing.
	NoMatchesMessage = "No matches found."
	// NoEmbeddingsMessage is shown when the collection holds no vectors.
	NoEmbeddingsMessage = "No embeddings found."
	// DefaultPreview is how many leading dimensions the embeddings view shows.
	DefaultPreview = 10
)

// FailureKind classifies a failure that is reported inline.
type FailureKind string

const (
	FailureTransport       FailureKind = "transport"
	FailureStatus          FailureKind = "status"
	FailureInvalidResponse FailureKind = "invalid_response"
	FailureEmbedding       FailureKind = "embedding"
	FailureStore           FailureKind = "store"
)

// Failure is an action outcome that went wrong but is still shown to the user.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Error lets a Failure travel as an error where needed.
func (f *Failure) Error() string {
	return f.Message
}

// Answer is either the model's text or a failure whose message stands in
// for the text.
type Answer struct {
	Text    string   `json:"text"`
	Failure *Failure `json:"failure,omitempty"`
}

// Failed reports whether the model call failed.
func (a Answer) Failed() bool {
	return a.Failure != nil
}

// AskResult is the outcome of asking one question.
type AskResult struct {
	Question     string        `json:"question"`
	Answer       Answer        `json:"answer"`
	ExchangeID   string        `json:"exchange_id"`
	IDs          []string      `json:"ids,omitempty"`
	StoreFailure *Failure      `json:"store_failure,omitempty"`
	Duration     time.Duration `json:"-"`
}

// Stored reports whether the exchange reached the collection.
func (r *AskResult) Stored() bool {
	return r.StoreFailure == nil && len(r.IDs) == 2
}

// SearchResult is the outcome of a similarity search. Lines holds what the
// user sees: matched documents, the no-match line or the failure message.
type SearchResult struct {
	Query   string        `json:"query"`
	Lines   []string      `json:"lines"`
	Matches []store.Match `json:"matches,omitempty"`
	Empty   bool          `json:"empty"`
	Failure *Failure      `json:"failure,omitempty"`
}

// HistoryItem is one stored document. Index is 1-based.
type HistoryItem struct {
	Index      int             `json:"index"`
	ID         string          `json:"id"`
	ExchangeID string          `json:"exchange_id"`
	Kind       store.EntryKind `json:"kind"`
	Document   string          `json:"document"`
	CreatedAt  time.Time       `json:"created_at"`
}

// History lists every stored document in insertion order.
type History struct {
	Items   []HistoryItem `json:"items"`
	Failure *Failure      `json:"failure,omitempty"`
}

// Documents returns the item texts in order.
func (h *History) Documents() []string {
	docs := make([]string, len(h.Items))
	for i, item := range h.Items {
		docs[i] = item.Document
	}
	return docs
}

// EmbeddingPreview shows the leading dimensions of one stored vector.
type EmbeddingPreview struct {
	Index      int       `json:"index"`
	ID         string    `json:"id"`
	Dimensions int       `json:"dimensions"`
	Preview    []float32 `json:"preview"`
}

// EmbeddingsView lists every stored vector, truncated for display.
type EmbeddingsView struct {
	Items   []EmbeddingPreview `json:"items"`
	Empty   bool               `json:"empty"`
	Failure *Failure           `json:"failure,omitempty"`
}
