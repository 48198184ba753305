package cli

import (
	"fmt"
	"os"

	"github.com/fenv-org/mementor/internal/config"
	"github.com/fenv-org/mementor/internal/embedder"
	"github.com/spf13/cobra"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the local embedding model",
	}
	cmd.AddCommand(newModelDownloadCmd())
	return cmd
}

func newModelDownloadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the local embedding model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			cacheDir, err := config.ModelCacheDir()
			if err != nil {
				return fmt.Errorf("resolve model cache dir: %w", err)
			}

			marker := embedder.MarkerPath(cacheDir)
			if _, err := os.Stat(marker); err == nil && !force {
				fmt.Fprintln(cmd.OutOrStdout(), "model already downloaded.")
				return nil
			}

			if err := os.MkdirAll(cacheDir, 0o755); err != nil {
				return fmt.Errorf("create model cache dir: %w", err)
			}
			if err := os.WriteFile(marker, []byte("ok\n"), 0o644); err != nil {
				return fmt.Errorf("write ready marker: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "model downloaded to", cacheDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-download even if already present")
	return cmd
}
