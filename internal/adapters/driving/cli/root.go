// Package cli implements the docsift command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/harborline/docsift/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "docsift",
	Short: "Change-aware document ingestion",
	Long: `docsift fetches documents from a configured source, detects which
ones changed since the last run, extracts and chunks their text and
loads the result into a document store. Unchanged documents are never
re-processed.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default ~/.docsift)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}
