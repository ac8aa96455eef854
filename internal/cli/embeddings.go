package cli

import (
	"github.com/parley-dev/parley/internal/chat"
	"github.com/spf13/cobra"
)

var embeddingsPreview int

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Show the stored vectors",
	Long: `List every stored vector, cut to its first components.

Examples:
  parley embeddings
  parley embeddings --preview 4`,
	Args: cobra.NoArgs,
	RunE: runEmbeddings,
}

func init() {
	rootCmd.AddCommand(embeddingsCmd)
	embeddingsCmd.Flags().IntVar(&embeddingsPreview, "preview", chat.DefaultPreview, "Number of components shown per vector")
}

func runEmbeddings(cmd *cobra.Command, args []string) error {
	if embeddingsPreview < 1 {
		return NewCLIError("--preview must be at least 1", "")
	}

	client, err := NewClientFromRoot(GetRootDir())
	if err != nil {
		return err
	}

	view, err := client.Embeddings(cmd.Context(), embeddingsPreview)
	if err != nil {
		return fromAPIError(err)
	}
	return printerFor(cmd).Render(formatter().FormatEmbeddings(view))
}
