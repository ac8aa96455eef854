package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/embedder"
	"github.com/parley-dev/parley/internal/metrics"
	"github.com/parley-dev/parley/internal/store"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// testLogger creates a silent logger for testing
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubCompleter answers every prompt with a canned reply
type stubCompleter struct {
	reply string
	err   error
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

// stubHealth reports a fixed health result
type stubHealth struct {
	err error
}

func (s stubHealth) Health(ctx context.Context) error {
	return s.err
}

// testOptions builds handler options around a fresh in-memory collection
func testOptions(t *testing.T, completer *stubCompleter) Options {
	t.Helper()

	s, err := store.OpenSQLite(context.Background(), store.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	coll, err := s.GetOrCreateCollection(context.Background(), config.DefaultCollection, embedder.MockDimensions)
	require.NoError(t, err)

	svc, err := chat.New(chat.Deps{
		LLM:        completer,
		Embedder:   embedder.NewMockEmbedder(),
		Collection: coll,
		Logger:     testLogger(),
		Metrics:    metrics.New(),
	})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Embedding.Provider = "mock"

	return Options{
		Service: svc,
		Config:  cfg,
		LLM:     stubHealth{},
		Backend: s.Backend(),
		Version: "test",
		Logger:  testLogger(),
	}
}

// setupTestRouter creates a router whose model always answers "4"
func setupTestRouter(t *testing.T) *Router {
	t.Helper()
	return NewRouter(testOptions(t, &stubCompleter{reply: "4"}))
}

// doJSON sends a JSON request through the router
func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// doForm posts a form through the router
func doForm(t *testing.T, h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals a recorded JSON body
func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

var errUnreachable = errors.New("connection refused")
