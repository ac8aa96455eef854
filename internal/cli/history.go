package cli

import (
	"github.com/spf13/cobra"
)

var (
	historyClear bool
	historyYes   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List every stored question and answer",
	Long: `List every stored document in the order it was added.

--clear removes all stored exchanges. New entries continue numbering after
the cleared ones, so ids are never reused.

Examples:
  parley history
  parley history --json
  parley history --clear --yes`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Remove every stored exchange")
	historyCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "Do not ask for confirmation with --clear")
}

func runHistory(cmd *cobra.Command, args []string) error {
	client, err := NewClientFromRoot(GetRootDir())
	if err != nil {
		return err
	}
	p := printerFor(cmd)

	if historyClear {
		if !historyYes {
			return NewCLIError("Refusing to clear history without confirmation", "Re-run with --clear --yes")
		}
		resp, err := client.ClearHistory(cmd.Context())
		if err != nil {
			return fromAPIError(err)
		}
		if IsJSONOutput() {
			return p.JSON(resp)
		}
		p.Success("Removed %d stored documents", resp.Removed)
		return nil
	}

	history, err := client.History(cmd.Context())
	if err != nil {
		return fromAPIError(err)
	}
	return p.Render(formatter().FormatHistory(history))
}
