package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// defaultRequestTimeout applies when the config sets none. Model calls on
// a cold Ollama can take minutes.
const defaultRequestTimeout = 10 * time.Minute

// Router wraps a chi router with handler configuration
type Router struct {
	chi     chi.Router
	handler *Handler
}

// NewRouter creates a new Router with the given dependencies
func NewRouter(opts Options) *Router {
	handler := NewHandler(opts)

	timeout := handler.config.Daemon.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(handler.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	// Chat page
	r.Get("/", handler.Page)
	r.Post("/ask", handler.PageAsk)
	r.Post("/search", handler.PageSearch)

	// Daemon
	r.Get("/health", handler.Health)
	r.Get("/status", handler.Status)
	r.Get("/config", handler.Config)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", handler.Ask)
		r.Post("/search", handler.Search)
		r.Get("/history", handler.History)
		r.Delete("/history", handler.ClearHistory)
		r.Get("/embeddings", handler.Embeddings)
	})

	return &Router{
		chi:     r,
		handler: handler,
	}
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.chi.ServeHTTP(w, req)
}
