package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/parley-dev/parley/internal/api"
	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/embedder"
	"github.com/parley-dev/parley/internal/llm"
	"github.com/parley-dev/parley/internal/metrics"
	"github.com/parley-dev/parley/internal/store"
)

// Version is reported by /health and /status. Overridden at build time.
var Version = "0.1.0"

const (
	shutdownTimeout   = 5 * time.Second
	modelCheckTimeout = 2 * time.Second
)

// ErrAlreadyRunning is returned by Run when another daemon owns the PID file.
var ErrAlreadyRunning = errors.New("daemon already running")

// Daemon owns the chat service and the HTTP server in front of it.
type Daemon struct {
	root     string
	config   *config.Config
	logger   *slog.Logger
	store    store.Store
	embedder embedder.Embedder
	closeEmb func() error
	llm      *llm.Client
	metrics  *metrics.Recorder
	service  *chat.Service
	state    *StateManager
	server   *http.Server

	mu      sync.Mutex
	addr    net.Addr
	ready   chan struct{}
	closed  bool
	started time.Time
}

// New creates a Daemon with its embedder, store, LLM client and chat service.
func New(ctx context.Context, root string, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.ValidateOrError(cfg); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	emb, closeEmb, err := embedder.NewFromConfig(ctx, &embedder.ProviderConfig{
		Provider:   cfg.Embedding.Provider,
		URL:        cfg.Embedding.OllamaURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		MaxTokens:  cfg.Embedding.MaxTokens,
		Overflow:   cfg.Embedding.Overflow,
		CacheSize:  cfg.Embedding.CacheSize,
		RedisURL:   cfg.Embedding.RedisURL,
		Timeout:    cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	st, err := store.Open(ctx, StoreDSN(root, cfg.Store.DSN))
	if err != nil {
		_ = closeEmb()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	collection, err := st.GetOrCreateCollection(ctx, cfg.Store.Collection, emb.Dimensions())
	if err != nil {
		st.Close()
		_ = closeEmb()
		return nil, fmt.Errorf("failed to open collection %s: %w", cfg.Store.Collection, err)
	}

	llmClient := llm.NewClient(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	checkModel(ctx, llmClient, logger)

	recorder := metrics.New()
	service, err := chat.New(chat.Deps{
		LLM:         llmClient,
		Embedder:    emb,
		Collection:  collection,
		Logger:      logger,
		Metrics:     recorder,
		SearchLimit: cfg.Search.Limit,
	})
	if err != nil {
		st.Close()
		_ = closeEmb()
		return nil, err
	}

	logger.Info("daemon initialized",
		"store", st.Backend(),
		"collection", collection.Name(),
		"dimensions", collection.Dimensions(),
		"llm_model", cfg.LLM.Model,
		"embedding_model", emb.ModelName())

	return &Daemon{
		root:     root,
		config:   cfg,
		logger:   logger,
		store:    st,
		embedder: emb,
		closeEmb: closeEmb,
		llm:      llmClient,
		metrics:  recorder,
		service:  service,
		state:    NewStateManager(root),
		ready:    make(chan struct{}),
	}, nil
}

// checkModel warns when the chat model cannot be used yet. Asks still run and
// report the failure inline.
func checkModel(ctx context.Context, client *llm.Client, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	ok, err := client.HasModel(ctx)
	switch {
	case err != nil:
		logger.Warn("ollama is not reachable", "url", client.BaseURL(), "error", err)
	case !ok:
		logger.Warn("chat model is not installed", "model", client.Model(), "hint", "ollama pull "+client.Model())
	}
}

// StoreDSN resolves relative sqlite paths against root. Postgres URLs and
// the in-memory DSN are returned unchanged.
func StoreDSN(root, dsn string) string {
	if dsn == "" || dsn == config.MemoryDSN || store.IsPostgresDSN(dsn) || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(root, dsn)
}

// Service returns the chat service backing the daemon.
func (d *Daemon) Service() *chat.Service {
	return d.service
}

// Handler builds the HTTP handler serving the API and the page.
func (d *Daemon) Handler() http.Handler {
	return api.NewRouter(api.Options{
		Service: d.service,
		Config:  d.config,
		LLM:     d.llm,
		Backend: d.store.Backend(),
		Version: Version,
		Logger:  d.logger,
	})
}

// Ready is closed once the listener is bound and state has been written.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Addr returns the bound listener address, or nil before Ready.
func (d *Daemon) Addr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Run starts the API server and blocks until ctx is cancelled or a
// shutdown signal arrives.
func (d *Daemon) Run(ctx context.Context) error {
	if running, pid := d.state.IsRunning(); running {
		d.Close()
		return fmt.Errorf("%w with PID %d", ErrAlreadyRunning, pid)
	}

	listener, err := net.Listen("tcp", d.config.Daemon.Address())
	if err != nil {
		d.Close()
		return fmt.Errorf("failed to listen on %s: %w", d.config.Daemon.Address(), err)
	}

	if err := d.state.WritePID(os.Getpid()); err != nil {
		listener.Close()
		d.Close()
		return err
	}

	d.mu.Lock()
	d.addr = listener.Addr()
	d.started = time.Now()
	d.mu.Unlock()

	if err := d.saveState(); err != nil {
		listener.Close()
		d.cleanup()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, ShutdownSignals()...)
	defer signal.Stop(sigCh)

	d.server = &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		d.logger.Info("starting API server", "addr", listener.Addr().String())
		if err := d.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()
	close(d.ready)

	select {
	case <-ctx.Done():
		d.logger.Info("context cancelled, shutting down")
	case sig := <-sigCh:
		d.logger.Info("received signal, shutting down", "signal", sig)
	case err := <-serverErrCh:
		if err != nil {
			d.logger.Error("server error", "error", err)
			d.cleanup()
			return err
		}
	}

	return d.shutdown()
}

func (d *Daemon) saveState() error {
	state := &DaemonState{Version: 1}
	state.Daemon.PID = os.Getpid()
	state.Daemon.StartedAt = d.started
	state.Daemon.Address = d.clientAddress()
	state.Store.Backend = d.store.Backend()
	state.Store.Collection = d.service.Collection().Name()
	state.Store.Persistent = d.config.Store.IsPersistent()
	return d.state.SaveState(state)
}

// clientAddress is the bound address with wildcard hosts replaced by loopback.
func (d *Daemon) clientAddress() string {
	tcp, ok := d.addr.(*net.TCPAddr)
	if !ok {
		return d.addr.String()
	}
	host := d.config.Daemon.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, fmt.Sprint(tcp.Port))
}

// shutdown performs graceful shutdown of all components
func (d *Daemon) shutdown() error {
	d.logger.Info("shutting down daemon", "activity", metrics.FormatSummary(d.metrics.Snapshot()))

	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("server shutdown error", "error", err)
		}
	}

	d.cleanup()
	return nil
}

// cleanup releases resources and removes the PID file.
func (d *Daemon) cleanup() {
	if err := d.Close(); err != nil {
		d.logger.Warn("close error", "error", err)
	}
	if err := d.state.RemovePID(); err != nil {
		d.logger.Warn("failed to remove PID file", "error", err)
	}
}

// Close releases the store and embedder. Safe to call more than once.
func (d *Daemon) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if d.closeEmb != nil {
		if err := d.closeEmb(); err != nil {
			errs = append(errs, fmt.Errorf("embedder: %w", err))
		}
	}
	return errors.Join(errs...)
}
