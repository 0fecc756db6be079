package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/humanmd/guard/internal/config"
	"github.com/humanmd/guard/internal/guard"
)

var (
	sessionStartDir    string
	sessionStartForce  bool
	sessionTouchWorked int
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionTouchCmd)

	sessionStartCmd.Flags().StringVar(&sessionStartDir, "dir", ".", "Project directory to record")
	sessionStartCmd.Flags().BoolVar(&sessionStartForce, "force", false, "Mark the session as force-started")
	sessionTouchCmd.Flags().IntVar(&sessionTouchWorked, "worked", -1, "Minutes worked since the last real break")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Bracket work sessions in the shared ledger",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Register a new session and print its id",
	RunE:  runSessionStart,
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	env := config.LoadEnv()
	id, err := guard.StartSession(env.LedgerPath, sessionStartDir, sessionStartForce, time.Now())
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	fmt.Println(id)
	return nil
}

var sessionEndCmd = &cobra.Command{
	Use:   "end <id>",
	Short: "Mark a session as ended and clean its markers",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionEnd,
}

func runSessionEnd(cmd *cobra.Command, args []string) error {
	env := config.LoadEnv()
	if err := guard.EndSession(env.LedgerPath, env.MarkerDir, args[0], time.Now()); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

var sessionTouchCmd = &cobra.Command{
	Use:   "touch <id>",
	Short: "Record activity for a running session",
	Long: "Writes the last-activity sentinel for the session, and optionally the\n" +
		"work-since-break sentinel (--worked). Both are folded into the ledger\n" +
		"entry when the session ends.",
	Args: cobra.ExactArgs(1),
	RunE: runSessionTouch,
}

func runSessionTouch(cmd *cobra.Command, args []string) error {
	env := config.LoadEnv()
	if err := guard.TouchSession(env.MarkerDir, args[0], sessionTouchWorked, time.Now()); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}
