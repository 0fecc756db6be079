package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/humanmd/guard/internal/guard"
)

var checkForce bool

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkForce, "force", false, "Override blocks (still refreshes session state)")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the schedule and write session-state.json",
	Long: "Loads the nearest human.md policy, classifies the current instant,\n" +
		"reconciles orphan sessions, enforces break rules, and writes a fresh\n" +
		"session-state snapshot for the mid-session checker.\n\n" +
		"Exit code 0 if work may proceed, 1 if blocked, 2 for wind-down.",
	Run: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) {
	outcome := guard.Check(guard.Options{Force: checkForce})
	if code := outcome.ExitCode(); code != 0 {
		os.Exit(code)
	}
}
