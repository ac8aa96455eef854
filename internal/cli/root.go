// Package cli implements the parley command line client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version     = "0.1.0"
	BuildCommit = "unknown"
	BuildDate   = "unknown"

	jsonOutput bool
	verbose    bool
	rootDir    string
	daemonURL  string
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley - a local chatbot that remembers every exchange",
	Long: `Parley forwards questions to a local Ollama model and keeps every
question and answer in a vector store, so past exchanges can be
listed and searched by meaning.

The parleyd daemon owns the store and serves a web page and a JSON API;
this command talks to it.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "Directory holding .parley (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&daemonURL, "url", "", "Daemon URL (default: from running daemon state or config)")
	cobra.OnInitialize(initRootDir)
}

func initRootDir() {
	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get current directory: %v\n", err)
			os.Exit(1)
		}
	}
}

func GetRootDir() string {
	return rootDir
}

func IsJSONOutput() bool {
	return jsonOutput
}

func IsVerbose() bool {
	return verbose
}
