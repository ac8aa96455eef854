package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/embedder"
	"github.com/parley-dev/parley/internal/llm"
	"github.com/parley-dev/parley/internal/setup"
	"github.com/spf13/cobra"
)

const setupCheckTimeout = 3 * time.Second

var (
	initStoreDSN  string
	initProvider  string
	initSkipCheck bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Parley in the current directory",
	Long: `Initialize Parley by creating a .parley directory with a default
config.yaml.

By default exchanges live in memory and are lost when the daemon stops.
Pass --store to keep them in a sqlite-vec file or a Postgres database.

Examples:
  parley init
  parley init --store .parley/chat.db
  parley init --store postgres://localhost/parley
  parley init --provider mock`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd, GetRootDir())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initStoreDSN, "store", "", "Store DSN (sqlite path, postgres:// URL or :memory:)")
	initCmd.Flags().StringVar(&initProvider, "provider", "", "Embedding provider ("+providerNames()+")")
	initCmd.Flags().BoolVar(&initSkipCheck, "skip-check", false, "Do not check the Ollama install")
}

// InitResult represents the result of an init operation for JSON output
type InitResult struct {
	Success    bool          `json:"success"`
	RootDir    string        `json:"root_dir"`
	ConfigPath string        `json:"config_path"`
	StoreDSN   string        `json:"store_dsn"`
	Ollama     *setup.Report `json:"ollama,omitempty"`
	Message    string        `json:"message,omitempty"`
}

func runInit(cmd *cobra.Command, root string) error {
	p := printerFor(cmd)

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return ErrInvalidRootDir(root)
	}

	loader := config.NewLoader(root)
	if loader.Exists() {
		msg := fmt.Sprintf("Parley already initialized at %s", loader.ParleyDirPath())
		if IsJSONOutput() {
			return p.JSON(InitResult{
				Success:    false,
				RootDir:    root,
				ConfigPath: loader.ConfigPath(),
				Message:    msg,
			})
		}
		p.Warn("%s", msg)
		return nil
	}

	cfg := config.Default()
	if initStoreDSN != "" {
		cfg.Store.DSN = initStoreDSN
	}
	if initProvider != "" {
		cfg.Embedding.Provider = initProvider
	}
	if err := config.ValidateOrError(cfg); err != nil {
		return ErrConfigInvalid(err)
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(loader.ParleyDirPath(), "logs"), 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	var report *setup.Report
	if !initSkipCheck {
		r := checkOllama(cmd.Context(), cfg)
		report = &r
	}

	if IsJSONOutput() {
		return p.JSON(InitResult{
			Success:    true,
			RootDir:    root,
			ConfigPath: loader.ConfigPath(),
			StoreDSN:   cfg.Store.DSN,
			Ollama:     report,
			Message:    "Initialized Parley successfully",
		})
	}

	p.Success("Initialized Parley in %s", loader.ParleyDirPath())
	p.Info("Embeddings: %s (%s)", embedder.ProviderType(cfg.Embedding.Provider).DisplayName(), cfg.Embedding.Model)
	if !cfg.Store.IsPersistent() {
		p.Info("Exchanges are kept in memory; use --store to persist them")
	}
	if report != nil {
		printSetupReport(p, report)
	}
	return nil
}

// checkOllama reports whether the configured chat model, and the embedding
// model when Ollama produces embeddings, are ready to use.
func checkOllama(ctx context.Context, cfg *config.Config) setup.Report {
	models := []string{cfg.LLM.Model}
	if cfg.Embedding.Provider == "ollama" {
		models = append(models, cfg.Embedding.Model)
	}

	client := llm.NewClient(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: setupCheckTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, setupCheckTimeout)
	defer cancel()
	return setup.NewDetector(client, models...).Check(ctx)
}

func printSetupReport(p *Printer, report *setup.Report) {
	switch report.Status {
	case setup.StatusReady:
		p.Success("Ollama is ready")
	case setup.StatusRunning:
		for _, m := range report.Missing() {
			p.Warn("Model %s is not installed; run '%s'", m.Name, m.PullCmd)
		}
	default:
		p.Warn("Ollama is %s: %s", report.Status, report.Error)
		if report.InstallCmd != "" {
			p.Info("Install it with: %s", report.InstallCmd)
		}
		if report.InstallHint != "" {
			p.Info("%s", report.InstallHint)
		}
	}
}

func providerNames() string {
	names := make([]string, 0, len(embedder.AllProviders()))
	for _, p := range embedder.AllProviders() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
