// Package cli implements the human-guard command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "human-guard",
	Short: "Schedule and session enforcement for the human.md framework",
	Long: "Checks declarative working-hours policy before a session starts and\n" +
		"tracks cumulative work across sessions. No daemon: every invocation\n" +
		"reads state from disk, decides, writes state back, and exits.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
