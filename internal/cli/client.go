package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/parley-dev/parley/internal/api"
	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/daemon"
)

// Client provides methods to communicate with the parleyd daemon
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a daemon client for baseURL. A zero timeout waits
// as long as the request context allows.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientFromRoot creates a client for the daemon serving root. The
// address recorded by a running daemon wins over the configured one, so a
// daemon started on port 0 is still found.
func NewClientFromRoot(root string) (*Client, error) {
	cfg, err := config.NewLoader(root).LoadOrDefault()
	if err != nil {
		return nil, ErrConfigInvalid(err)
	}

	timeout := cfg.Daemon.RequestTimeout
	if daemonURL != "" {
		return NewClient(daemonURL, timeout), nil
	}
	if u := daemon.NewStateManager(root).RunningURL(); u != "" {
		return NewClient(u, timeout), nil
	}
	return NewClient(cfg.Daemon.BaseURL(), timeout), nil
}

// BaseURL returns the daemon URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks if the daemon is healthy
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var health api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Status retrieves the daemon, store and dependency status
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var status api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ask sends a question to the model and stores the exchange
func (c *Client) Ask(ctx context.Context, question string) (*chat.AskResult, error) {
	var result chat.AskResult
	if err := c.do(ctx, http.MethodPost, "/api/ask", api.AskRequest{Question: question}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search looks up stored exchanges with the daemon's default limit
func (c *Client) Search(ctx context.Context, query string) (*chat.SearchResult, error) {
	return c.SearchWithLimit(ctx, query, 0)
}

// SearchWithLimit looks up stored exchanges; limit 0 uses the daemon default
func (c *Client) SearchWithLimit(ctx context.Context, query string, limit int) (*chat.SearchResult, error) {
	var result chat.SearchResult
	if err := c.do(ctx, http.MethodPost, "/api/search", api.SearchRequest{Query: query, Limit: limit}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History lists every stored document in insertion order
func (c *Client) History(ctx context.Context) (*chat.History, error) {
	var history chat.History
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// ClearHistory removes every stored exchange
func (c *Client) ClearHistory(ctx context.Context) (*api.ClearResponse, error) {
	var resp api.ClearResponse
	if err := c.do(ctx, http.MethodDelete, "/api/history", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Embeddings lists stored vectors, each cut to preview components
func (c *Client) Embeddings(ctx context.Context, preview int) (*chat.EmbeddingsView, error) {
	path := "/api/embeddings"
	if preview > 0 {
		path += "?" + url.Values{"preview": {strconv.Itoa(preview)}}.Encode()
	}
	var view chat.EmbeddingsView
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Config retrieves the configuration the daemon is running with
func (c *Client) Config(ctx context.Context) (*config.Config, error) {
	var resp api.ConfigResponse
	if err := c.do(ctx, http.MethodGet, "/config", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Config, nil
}

// do sends a request with an optional JSON body and decodes the JSON
// response into result. Non-2xx responses are returned as api.APIError
// when the body carries one.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrDaemonConnectionFailed(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.APIError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			return apiErr
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
