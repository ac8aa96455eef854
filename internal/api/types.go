package api

import (
	"time"

	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/metrics"
)

// =============================================================================
// Chat API Types
// =============================================================================

// AskRequest represents a question sent to the model
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the outcome of one question. A failed model call is still
// a 200 response with Answer.Failure set.
type AskResponse = chat.AskResult

// SearchRequest represents a similarity search over stored exchanges
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"` // 0 = search.limit from config
}

// SearchResponse is the outcome of a similarity search
type SearchResponse = chat.SearchResult

// HistoryResponse lists every stored document in insertion order
type HistoryResponse = chat.History

// EmbeddingsResponse lists stored vectors truncated to a preview
type EmbeddingsResponse = chat.EmbeddingsView

// ClearResponse reports how many entries a clear removed
type ClearResponse struct {
	Removed int `json:"removed"`
}

// =============================================================================
// Status API Types
// =============================================================================

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse represents the status endpoint response
type StatusResponse struct {
	Daemon       *DaemonStatus       `json:"daemon"`
	Store        *StoreStatus        `json:"store"`
	Dependencies *DependenciesStatus `json:"dependencies"`
	Activity     metrics.Snapshot    `json:"activity"`
}

// DaemonStatus contains daemon runtime information
type DaemonStatus struct {
	Running       bool    `json:"running"`
	PID           int     `json:"pid"`
	Version       string  `json:"version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StoreStatus describes the collection exchanges are written to
type StoreStatus struct {
	Backend    string `json:"backend"`
	Collection string `json:"collection"`
	Dimensions int    `json:"dimensions"`
	Entries    int    `json:"entries"`
	Persistent bool   `json:"persistent"`
	Error      string `json:"error,omitempty"`
}

// DependenciesStatus reports whether the Ollama endpoints answer
type DependenciesStatus struct {
	LLM            bool   `json:"llm"`
	LLMModel       string `json:"llm_model"`
	LLMError       string `json:"llm_error,omitempty"`
	Embedder       bool   `json:"embedder"`
	EmbeddingModel string `json:"embedding_model"`
	EmbedderError  string `json:"embedder_error,omitempty"`
}

// ConfigResponse represents the config endpoint response
type ConfigResponse struct {
	Config *config.Config `json:"config"`
}
