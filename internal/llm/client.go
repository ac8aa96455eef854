// Package llm talks to an Ollama server through its OpenAI-compatible
// chat-completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where a local Ollama listens.
	DefaultBaseURL = "http://localhost:11434"
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "llama3.2:latest"

	completionsPath = "/v1/chat/completions"
	tagsPath        = "/api/tags"
)

// Completer produces an answer for a single user prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds options for the chat client.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration // 0 = no timeout
}

// Client sends prompts to Ollama. It never retries.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Compile-time check that Client implements Completer
var _ Completer = (*Client)(nil)

// NewClient creates a chat client, filling in defaults for empty fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	base = strings.TrimSuffix(base, "/v1")
	return &Client{
		baseURL:    base,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the server address without a trailing /v1.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Complete sends prompt as a single user message and returns the content of
// the first choice. Failures are *Error values.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &Error{Kind: KindTransport, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindStatus, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &Error{Kind: KindInvalidResponse, StatusCode: resp.StatusCode, Body: string(respBody), Cause: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &Error{Kind: KindInvalidResponse, StatusCode: resp.StatusCode, Body: string(respBody), Cause: ErrNoChoices}
	}

	return parsed.Choices[0].Message.Content, nil
}

// Health checks that the server answers on /api/tags.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.Models(ctx)
	return err
}

// Models lists the models installed on the server.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tagsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &Error{Kind: KindStatus, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Cause: err}
	}
	return tags.Models, nil
}

// HasModel reports whether the configured model is installed. A missing
// ":latest" tag on either side is treated as equal.
func (c *Client) HasModel(ctx context.Context) (bool, error) {
	models, err := c.Models(ctx)
	if err != nil {
		return false, err
	}
	want := strings.TrimSuffix(c.model, ":latest")
	for _, m := range models {
		if strings.TrimSuffix(m.Name, ":latest") == want {
			return true, nil
		}
	}
	return false, nil
}
