package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
)

// statusProbeTimeout bounds each dependency probe made by /status
const statusProbeTimeout = 3 * time.Second

// HealthChecker is anything that can report whether it is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options holds the dependencies of a Handler
type Options struct {
	Service *chat.Service
	Config  *config.Config
	// LLM is probed by /status; nil reports the model as unavailable
	LLM     HealthChecker
	Backend string
	Version string
	Logger  *slog.Logger
}

// Handler handles HTTP requests for the Parley API
type Handler struct {
	service   *chat.Service
	config    *config.Config
	llm       HealthChecker
	backend   string
	version   string
	logger    *slog.Logger
	startTime time.Time
}

// NewHandler creates a new Handler instance
func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	return &Handler{
		service:   opts.Service,
		config:    opts.Config,
		llm:       opts.LLM,
		backend:   opts.Backend,
		version:   opts.Version,
		logger:    opts.Logger,
		startTime: time.Now(),
	}
}

// =============================================================================
// Handlers
// =============================================================================

// Health handles GET /health requests
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now(),
	}
	writeJSON(w, http.StatusOK, response)
}

// Status handles GET /status requests
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	coll := h.service.Collection()

	storeStatus := &StoreStatus{
		Backend:    h.backend,
		Collection: coll.Name(),
		Dimensions: coll.Dimensions(),
		Persistent: h.config.Store.IsPersistent(),
	}
	if count, err := coll.Count(ctx); err != nil {
		storeStatus.Error = err.Error()
	} else {
		storeStatus.Entries = count
	}

	emb := h.service.Embedder()
	deps := &DependenciesStatus{
		LLMModel:       h.config.LLM.Model,
		EmbeddingModel: emb.ModelName(),
	}
	if err := probe(ctx, h.llm); err != nil {
		deps.LLMError = err.Error()
	} else {
		deps.LLM = true
	}
	if err := probe(ctx, emb); err != nil {
		deps.EmbedderError = err.Error()
	} else {
		deps.Embedder = true
	}

	response := StatusResponse{
		Daemon: &DaemonStatus{
			Running:       true,
			PID:           os.Getpid(),
			Version:       h.version,
			UptimeSeconds: time.Since(h.startTime).Seconds(),
		},
		Store:        storeStatus,
		Dependencies: deps,
		Activity:     h.service.Metrics().Snapshot(),
	}
	writeJSON(w, http.StatusOK, response)
}

// Ask handles POST /api/ask requests
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ErrInvalidJSON.WithDetails(err.Error()))
		return
	}

	result, err := h.service.Ask(r.Context(), req.Question)
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search handles POST /api/search requests
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ErrInvalidJSON.WithDetails(err.Error()))
		return
	}
	if req.Limit < 0 {
		WriteBadRequest(w, ErrInvalidParameter.WithDetails("limit must not be negative"))
		return
	}

	result, err := h.service.SearchWithLimit(r.Context(), req.Query, req.Limit)
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// History handles GET /api/history requests
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context())
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// ClearHistory handles DELETE /api/history requests
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.service.Collection().Count(ctx)
	if err != nil {
		WriteServiceUnavailable(w, ErrStoreUnavailable.WithDetails(err.Error()))
		return
	}
	if err := h.service.Clear(ctx); err != nil {
		WriteServiceUnavailable(w, ErrStoreUnavailable.WithDetails(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, ClearResponse{Removed: count})
}

// Embeddings handles GET /api/embeddings requests
func (h *Handler) Embeddings(w http.ResponseWriter, r *http.Request) {
	preview := 0
	if raw := r.URL.Query().Get("preview"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, ErrInvalidParameter.WithDetails("preview must be a positive integer"))
			return
		}
		preview = n
	}

	view, err := h.service.Embeddings(r.Context(), preview)
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Config handles GET /config requests. Passwords are masked.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		Config: h.config.Redacted(),
	}
	writeJSON(w, http.StatusOK, response)
}

// =============================================================================
// Helpers
// =============================================================================

// writeActionError maps the errors a chat action can return to responses
func (h *Handler) writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		WriteBadRequest(w, ErrQueryEmpty)
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, ErrRequestTimeout)
	case errors.Is(err, context.Canceled):
		// The client went away; nobody will read the body.
		w.WriteHeader(http.StatusRequestTimeout)
	default:
		h.logger.Error("request failed", "error", err)
		WriteInternalError(w, ErrInternal.WithDetails(err.Error()))
	}
}

func probe(ctx context.Context, c HealthChecker) error {
	if c == nil {
		return errors.New("not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()
	return c.Health(ctx)
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
