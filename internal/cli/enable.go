package cli

import (
	"fmt"
	"os"

	"github.com/fenv-org/mementor/internal/config"
	"github.com/fenv-org/mementor/internal/storage"
	"github.com/spf13/cobra"
)

func newEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable mementor for the current git repository",
		Long: `Enable mementor for the current git repository.

Creates a .mementor/ dot-directory at the repository root holding a
single SQLite database. Hooks configured to invoke 'mementor hook ...'
no-op silently until this has been run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			gitRoot, err := EnsureGitRoot()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return NewSilentError(err)
			}

			if config.IsEnabled(gitRoot) {
				fmt.Fprintln(cmd.OutOrStdout(), "mementor is already enabled here.")
				return nil
			}

			if err := os.MkdirAll(config.DotDir(gitRoot), 0o755); err != nil {
				return fmt.Errorf("create .mementor/: %w", err)
			}

			db, err := storage.Open(config.DBPath(gitRoot))
			if err != nil {
				return fmt.Errorf("create database: %w", err)
			}
			defer db.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "mementor enabled.")
			return nil
		},
	}
}
