package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fenv-org/mementor/internal/ingest"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <transcript> <session_id>",
		Short: "Ingest a transcript file into the project's memory database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			gitRoot, err := EnsureGitRoot()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return NewSilentError(err)
			}
			if err := EnsureEnabled(gitRoot); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return NewSilentError(err)
			}

			e, err := openEngine(gitRoot)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return NewSilentError(err)
			}
			defer e.Close()

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			pipeline := ingest.New(e.DB, e.Emb)
			if err := pipeline.Ingest(context.Background(), args[1], args[0], cwd, gitRoot); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return NewSilentError(err)
			}
			return nil
		},
	}
	return cmd
}
