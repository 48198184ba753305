package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fenv-org/mementor/internal/search"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a hybrid recall query against the project's memory database",
		Args:  cobra.MinimumNArgs(1),
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

			pipeline := search.New(e.DB, e.Emb)
			result, err := pipeline.Search(context.Background(), strings.Join(args, " "), k, "")
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return NewSilentError(err)
			}
			if result == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No relevant past context found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 5, "Maximum number of memories to return")
	return cmd
}
