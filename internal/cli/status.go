package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/parley-dev/parley/internal/api"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon, store and model status",
	Long: `Display the current status of the Parley daemon.

Shows information about:
  - Daemon running state and uptime
  - The collection exchanges are stored in
  - Whether the chat and embedding models answer
  - Per-action call counts and latencies

Examples:
  parley status
  parley status --json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := NewClientFromRoot(GetRootDir())
	if err != nil {
		return err
	}

	status, err := client.Status(cmd.Context())
	if err != nil {
		return ErrDaemonConnectionFailed(err)
	}

	p := printerFor(cmd)
	if IsJSONOutput() {
		return p.JSON(status)
	}

	p.Info("Parley Status")
	p.Info("=============")
	p.Info("")

	p.Info("Daemon:")
	if status.Daemon != nil {
		p.Info("  Running:  %v", status.Daemon.Running)
		p.Info("  PID:      %d", status.Daemon.PID)
		p.Info("  Version:  %s", status.Daemon.Version)
		p.Info("  Uptime:   %s", formatDuration(status.Daemon.UptimeSeconds))
	} else {
		p.Info("  Not available")
	}
	p.Info("")

	p.Info("Store:")
	if s := status.Store; s != nil {
		p.Info("  Backend:    %s", s.Backend)
		p.Info("  Collection: %s (%d dimensions)", s.Collection, s.Dimensions)
		p.Info("  Entries:    %d", s.Entries)
		p.Info("  Persistent: %v", s.Persistent)
		if s.Error != "" {
			p.Info("  Error:      %s", s.Error)
		}
	} else {
		p.Info("  Not available")
	}
	p.Info("")

	p.Info("Dependencies:")
	if d := status.Dependencies; d != nil {
		p.Info("  LLM:      %s (%s)", boolToStatus(d.LLM), d.LLMModel)
		if d.LLMError != "" && IsVerbose() {
			p.Info("            %s", d.LLMError)
		}
		p.Info("  Embedder: %s (%s)", boolToStatus(d.Embedder), d.EmbeddingModel)
		if d.EmbedderError != "" && IsVerbose() {
			p.Info("            %s", d.EmbedderError)
		}
	} else {
		p.Info("  Not available")
	}

	if len(status.Activity.Actions) > 0 {
		p.Info("")
		p.Info("Activity:")
		p.Table([]string{"ACTION", "CALLS", "FAILED", "AVG", "MAX"}, activityRows(status))
	}

	return nil
}

func activityRows(status *api.StatusResponse) [][]string {
	names := make([]string, 0, len(status.Activity.Actions))
	for name := range status.Activity.Actions {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		s := status.Activity.Actions[name]
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%d", s.Failures),
			fmt.Sprintf("%.0fms", s.AvgMs()),
			fmt.Sprintf("%dms", s.MaxMs),
		})
	}
	return rows
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", seconds)
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func boolToStatus(ok bool) string {
	if ok {
		return "OK"
	}
	return "Not available"
}
