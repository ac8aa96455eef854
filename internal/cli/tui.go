package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/parley-dev/parley/internal/api"
	"github.com/parley-dev/parley/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Chat with the daemon in a terminal UI",
	Long: `Open an interactive terminal version of the chat page: history at the
top, a question box and a search box below it. Tab switches boxes, Enter
submits, Esc or Ctrl+C quits.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	client, err := NewClientFromRoot(GetRootDir())
	if err != nil {
		return err
	}
	if _, err := client.Health(cmd.Context()); err != nil {
		return ErrDaemonConnectionFailed(err)
	}

	model := tui.New(cmd.Context(), client, api.PageTitle)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = program.Run()
	return err
}
