package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second})
}

func writeChoices(w http.ResponseWriter, contents ...string) {
	resp := chatResponse{ID: "chatcmpl-1", Model: DefaultModel}
	for i, c := range contents {
		resp.Choices = append(resp.Choices, chatChoice{Index: i, Message: Message{Role: "assistant", Content: c}})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ============================================================================
// Complete
// ============================================================================

func TestClient_Complete_Success(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:latest", req.Model)
		assert.Equal(t, []Message{{Role: "user", Content: "What is 2+2?"}}, req.Messages)

		writeChoices(w, "4", "four")
	})

	answer, err := client.Complete(context.Background(), "What is 2+2?")

	require.NoError(t, err)
	assert.Equal(t, "4", answer, "first choice wins")
}

func TestClient_Complete_StatusError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model crashed"}`))
	})

	_, err := client.Complete(context.Background(), "hello")

	llmErr, ok := AsError(err)
	require.True(t, ok, "expected *Error, got %T", err)
	assert.Equal(t, KindStatus, llmErr.Kind)
	assert.Equal(t, 500, llmErr.StatusCode)
	assert.Equal(t, `Error Ollama API: 500. Response:{"error":"model crashed"}`, err.Error())
}

func TestClient_Complete_TransportError(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := client.Complete(context.Background(), "hello")

	llmErr, ok := AsError(err)
	require.True(t, ok, "expected *Error, got %T", err)
	assert.Equal(t, KindTransport, llmErr.Kind)
	assert.Contains(t, err.Error(), "Error connecting to Ollama API: ")
	assert.NotNil(t, errors.Unwrap(err))
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoices(w)
	})

	_, err := client.Complete(context.Background(), "hello")

	llmErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidResponse, llmErr.Kind)
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestClient_Complete_UndecodableBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.Complete(context.Background(), "hello")

	llmErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidResponse, llmErr.Kind)
	assert.Contains(t, err.Error(), "Invalid response from Ollama API")
}

func TestClient_Complete_ContextCancelled(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeChoices(w, "late")
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, "hello")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, ok := AsError(err)
	assert.False(t, ok, "cancellation is not an inference failure")
}

func TestClient_Complete_SingleRequestNoRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Complete(context.Background(), "hello")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

// ============================================================================
// Construction
// ============================================================================

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, client.BaseURL())
	assert.Equal(t, DefaultModel, client.Model())
}

func TestNewClient_StripsV1Suffix(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://gpu-box:11434/v1/"})
	assert.Equal(t, "http://gpu-box:11434", client.BaseURL())
}

// ============================================================================
// Models / Health
// ============================================================================

func TestClient_Models(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest","size":2019393189},{"name":"all-minilm:latest"}]}`))
	})

	models, err := client.Models(context.Background())

	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama3.2:latest", models[0].Name)
	assert.NoError(t, client.Health(context.Background()))

	has, err := client.HasModel(context.Background())
	require.NoError(t, err)
	assert.True(t, has)
}

func TestClient_HasModel_Missing(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"mistral:7b"}]}`))
	})

	has, err := client.HasModel(context.Background())

	require.NoError(t, err)
	assert.False(t, has)
}

func TestClient_Health_Down(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.Health(context.Background())

	llmErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 502, llmErr.StatusCode)
}
