package cli

import (
	"time"

	"github.com/parley-dev/parley/internal/daemon"
	"github.com/spf13/cobra"
)

const stopGrace = 5 * time.Second

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Parley daemon",
	Long: `Stop the running Parley daemon process.

The daemon gets SIGTERM and five seconds to shut down before it is killed.
An in-memory store loses its exchanges when the daemon stops.`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	p := printerFor(cmd)
	stateManager := daemon.NewStateManager(GetRootDir())

	running, pid := stateManager.IsRunning()
	if !running {
		if pid > 0 {
			p.Info("Daemon was not running (cleaned up stale PID file for PID %d)", pid)
		} else {
			p.Info("Daemon is not running")
		}
		return nil
	}

	killed, err := daemon.TerminateProcess(pid, stopGrace)
	if err != nil {
		return WrapError(err, "Failed to stop Parley daemon", "Stop the process manually")
	}
	_ = stateManager.RemovePID()

	if killed {
		p.Warn("Parley daemon killed (PID %d)", pid)
		return nil
	}
	p.Success("Parley daemon stopped (PID %d)", pid)
	return nil
}
