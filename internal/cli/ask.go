package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the model a question",
	Long: `Send a question to the chat model. The question and the answer are
both stored, so they show up in history and search afterwards.

If the model cannot be reached the error text is printed (and stored) in
place of an answer.

Examples:
  parley ask "What is 2+2?"
  parley ask "Summarize our last talk" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion()
	}

	client, err := NewClientFromRoot(GetRootDir())
	if err != nil {
		return err
	}

	result, err := client.Ask(cmd.Context(), question)
	if err != nil {
		return fromAPIError(err)
	}

	return printerFor(cmd).Render(formatter().FormatAnswer(result))
}
