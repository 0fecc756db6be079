package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/humanmd/guard/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a starter human.md with comments",
	Long: "Creates ~/.claude/human.md with a commented default schedule.\n" +
		"Edit the file to set your timezone, hours, and messages.",
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	dir := filepath.Join(home, ".claude")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	path := filepath.Join(dir, "human.md")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("human.md already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(config.DefaultPolicyYAML()), 0644); err != nil {
		return fmt.Errorf("failed to write human.md: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}
