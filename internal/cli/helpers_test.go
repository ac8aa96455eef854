package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/parley-dev/parley/internal/api"
	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/embedder"
	"github.com/parley-dev/parley/internal/metrics"
	"github.com/parley-dev/parley/internal/store"
	"github.com/stretchr/testify/require"
)

var registerOnce sync.Once

// fixedCompleter answers every prompt with reply
type fixedCompleter struct {
	reply string
}

func (f fixedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, nil
}

// startTestDaemon serves the real API over an in-memory collection and
// returns its URL.
func startTestDaemon(t *testing.T, reply string) string {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := store.OpenSQLite(context.Background(), store.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	coll, err := s.GetOrCreateCollection(context.Background(), config.DefaultCollection, embedder.MockDimensions)
	require.NoError(t, err)

	svc, err := chat.New(chat.Deps{
		LLM:        fixedCompleter{reply: reply},
		Embedder:   embedder.NewMockEmbedder(),
		Collection: coll,
		Logger:     logger,
		Metrics:    metrics.New(),
	})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Embedding.Provider = "mock"

	srv := httptest.NewServer(api.NewRouter(api.Options{
		Service: svc,
		Config:  cfg,
		Backend: s.Backend(),
		Version: "test",
		Logger:  logger,
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// resetFlags restores every package-level flag variable to its default.
func resetFlags() {
	jsonOutput = false
	verbose = false
	rootDir = ""
	daemonURL = ""
	searchLimit = 0
	historyClear = false
	historyYes = false
	embeddingsPreview = chat.DefaultPreview
	initStoreDSN = ""
	initProvider = ""
	initSkipCheck = false
	startForeground = false
	configFromDaemon = false
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	registerOnce.Do(RegisterConfigCommand)

	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
