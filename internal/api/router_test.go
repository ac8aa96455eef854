package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Route Registration Tests
// =============================================================================

func TestRouterRegistersRoutes(t *testing.T) {
	router := setupTestRouter(t)

	testCases := []struct {
		method string
		path   string
		body   any
		status int
	}{
		{http.MethodGet, "/", nil, http.StatusOK},
		{http.MethodGet, "/health", nil, http.StatusOK},
		{http.MethodGet, "/status", nil, http.StatusOK},
		{http.MethodGet, "/config", nil, http.StatusOK},
		{http.MethodPost, "/api/ask", AskRequest{Question: "hi"}, http.StatusOK},
		{http.MethodPost, "/api/search", SearchRequest{Query: "hi"}, http.StatusOK},
		{http.MethodGet, "/api/history", nil, http.StatusOK},
		{http.MethodDelete, "/api/history", nil, http.StatusOK},
		{http.MethodGet, "/api/embeddings", nil, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := doJSON(t, router, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}
}

func TestRouterRejectsWrongMethods(t *testing.T) {
	router := setupTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/health"},
		{http.MethodDelete, "/status"},
		{http.MethodGet, "/api/ask"},
		{http.MethodGet, "/api/search"},
		{http.MethodPost, "/api/history"},
		{http.MethodPut, "/config"},
		{http.MethodGet, "/ask"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := doJSON(t, router, tc.method, tc.path, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		})
	}
}

func TestRouterReturns404ForUnknownRoutes(t *testing.T) {
	router := setupTestRouter(t)

	for _, path := range []string{"/unknown", "/api", "/api/reindex", "/search/extra"} {
		rr := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestRouterSetsRequestID(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterRecoversFromPanics(t *testing.T) {
	opts := testOptions(t, &stubCompleter{reply: "4"})
	opts.Service = nil
	router := NewRouter(opts)

	rr := doJSON(t, router, http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// =============================================================================
// Integration
// =============================================================================

func TestRouterImplementsHTTPHandler(t *testing.T) {
	var _ http.Handler = setupTestRouter(t)
}

func TestRouterCanBeUsedWithHTTPServer(t *testing.T) {
	server := httptest.NewServer(setupTestRouter(t))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/health", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
