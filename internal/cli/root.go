// Package cli implements mementor's command surface: enable, ingest,
// query, model download, and the four lifecycle hook subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set by the build via -ldflags, defaulting to "dev" for
// local builds.
var Version = "dev"

const gettingStarted = `

Getting Started:
  mementor enable            Enable mementor in a git repository
  mementor query "text"      Recall past context related to text
  mementor model download    Download the local embedding model
`

// NewRootCmd returns the root command for the mementor CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mementor",
		Short:         "Mementor — local-first memory for your coding assistant",
		Long:          "Mementor gives a conversational coding assistant durable, queryable memory of past sessions." + gettingStarted,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	coreGroup := &cobra.Group{ID: "core", Title: "Core Commands:"}
	hookGroup := &cobra.Group{ID: "hooks", Title: "Hook Commands:"}
	cmd.AddGroup(coreGroup, hookGroup)

	enableCmd := newEnableCmd()
	enableCmd.GroupID = "core"
	ingestCmd := newIngestCmd()
	ingestCmd.GroupID = "core"
	queryCmd := newQueryCmd()
	queryCmd.GroupID = "core"
	modelCmd := newModelCmd()
	modelCmd.GroupID = "core"

	hookCmd := newHookCmd()
	hookCmd.GroupID = "hooks"

	cmd.AddCommand(enableCmd, ingestCmd, queryCmd, modelCmd, hookCmd, newVersionCmd())

	cmd.SetVersionTemplate("mementor {{.Version}}\n")
	cmd.Version = Version

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "mementor", Version)
			return nil
		},
	}
}

// Run executes the root command and exits with the appropriate code.
func Run() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !IsSilentError(err) {
			fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		}
		os.Exit(1)
	}
}
