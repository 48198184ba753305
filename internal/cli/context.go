package cli

import (
	"fmt"

	"github.com/fenv-org/mementor/internal/config"
	"github.com/fenv-org/mementor/internal/merr"
)

// EnsureGitRoot discovers the primary version-control root from the
// current directory.
func EnsureGitRoot() (string, error) {
	gitRoot, err := config.GitRoot(".")
	if err != nil {
		return "", fmt.Errorf("mementor must be run inside a git repository: %w", err)
	}
	return gitRoot, nil
}

// EnsureEnabled returns a user-facing error when the project has not
// been enabled with 'mementor enable'.
func EnsureEnabled(gitRoot string) error {
	if err := config.EnsureEnabled(gitRoot); err != nil {
		if err == merr.ErrNotConfigured {
			return fmt.Errorf("mementor is not enabled here; run 'mementor enable' first")
		}
		return err
	}
	return nil
}
