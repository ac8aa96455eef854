package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search earlier questions and answers",
	Long: `Search stored questions and answers by meaning.

The query is embedded with the same model as the stored exchanges and the
nearest documents are printed, closest first. Use --verbose for ids,
distances and why each document matched.

Examples:
  parley search "arithmetic"
  parley search "weather in Paris" --limit 3
  parley search "deployment" -v`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum results (default: search.limit from config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery()
	}
	if searchLimit < 0 {
		return NewCLIError("--limit must not be negative", "Omit --limit to use the configured default")
	}

	client, err := NewClientFromRoot(GetRootDir())
	if err != nil {
		return err
	}

	result, err := client.SearchWithLimit(cmd.Context(), query, searchLimit)
	if err != nil {
		return fromAPIError(err)
	}

	return printerFor(cmd).Render(formatter().FormatSearch(result))
}
