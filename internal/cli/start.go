package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/daemon"
	"github.com/spf13/cobra"
)

const healthTimeout = 10 * time.Second

var startForeground bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Parley daemon",
	Long: `Start the parleyd daemon, which serves the chat page and the JSON API.

Use --foreground to run it in this process with logs on stderr.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().BoolVarP(&startForeground, "foreground", "f", false, "Run daemon in foreground (for debugging)")
}

func runStart(cmd *cobra.Command, args []string) error {
	root := GetRootDir()
	p := printerFor(cmd)

	stateManager := daemon.NewStateManager(root)
	if running, pid := stateManager.IsRunning(); running {
		return ErrDaemonAlreadyRunning(pid)
	}

	cfg, err := config.NewLoader(root).LoadOrDefault()
	if err != nil {
		return ErrConfigInvalid(err)
	}
	if err := config.ValidateOrError(cfg); err != nil {
		return ErrConfigInvalid(err)
	}

	if startForeground {
		return runDaemonForeground(cmd, root, cfg)
	}

	if err := os.MkdirAll(daemonLogDir(stateManager), 0755); err != nil {
		return ErrDaemonStartFailed(err)
	}
	logFile, err := os.OpenFile(stateManager.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return ErrDaemonStartFailed(err)
	}
	defer logFile.Close()

	daemonCmd := exec.Command("parleyd", "--dir", root)
	daemonCmd.Stdout = logFile
	daemonCmd.Stderr = logFile
	if err := daemonCmd.Start(); err != nil {
		return ErrDaemonStartFailed(err)
	}
	pid := daemonCmd.Process.Pid
	_ = daemonCmd.Process.Release()

	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()
	baseURL, err := waitForHealthy(ctx, stateManager, pid)
	if err != nil {
		if daemon.IsProcessRunning(pid) {
			_, _ = daemon.TerminateProcess(pid, time.Second)
		}
		return ErrDaemonHealthTimeout(stateManager.LogPath())
	}

	if IsJSONOutput() {
		return p.JSON(map[string]any{"pid": pid, "url": baseURL})
	}
	p.Success("Parley daemon started (PID %d) at %s", pid, baseURL)
	return nil
}

// waitForHealthy polls until the daemon with pid has recorded its address
// and answers /health, or ctx expires.
func waitForHealthy(ctx context.Context, stateManager *daemon.StateManager, pid int) (string, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if !daemon.IsProcessRunning(pid) {
				return "", errors.New("daemon exited during startup")
			}
			state, err := stateManager.LoadState()
			if err != nil || state.Daemon.PID != pid || state.BaseURL() == "" {
				continue
			}
			client := NewClient(state.BaseURL(), time.Second)
			if _, err := client.Health(ctx); err == nil {
				return state.BaseURL(), nil
			}
		}
	}
}

func daemonLogDir(stateManager *daemon.StateManager) string {
	return filepath.Join(stateManager.Dir(), daemon.LogDir)
}

// runDaemonForeground runs the daemon in this process until interrupted
func runDaemonForeground(cmd *cobra.Command, root string, cfg *config.Config) error {
	p := printerFor(cmd)
	p.Info("Starting Parley daemon in foreground mode...")
	p.Info("Press Ctrl+C to stop\n")

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: ParseLogLevel(cfg.Daemon.LogLevel),
	}))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d, err := daemon.New(ctx, root, cfg, logger)
	if err != nil {
		return ErrDaemonStartFailed(err)
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return NewCLIError(err.Error(), "Stop it with 'parley stop' first")
		}
		return err
	}

	p.Info("Daemon stopped")
	return nil
}

// ParseLogLevel maps a daemon.log_level value to a slog level. Unknown
// values fall back to info.
func ParseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
