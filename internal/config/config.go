// Package config resolves the on-disk locations mementor uses: the
// project's dot-directory, discovered by walking up from the current
// directory to the nearest git root, and the model cache under the
// user's home directory.
package config

import (
	"os"
	"path/filepath"

	"github.com/fenv-org/mementor/internal/merr"
)

const dirName = ".mementor"

// GitRoot walks up from start looking for a .git entry, locating the
// primary worktree root.
func GitRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", merr.ErrNotConfigured
		}
		dir = parent
	}
}

// DotDir returns the dot-directory holding the project's database, under
// the git root. Not to be confused with the hook protocol's project_dir
// (the invocation's current working directory) — see pathextract.
func DotDir(gitRoot string) string {
	return filepath.Join(gitRoot, dirName)
}

// DBPath returns the path to the project's single SQLite database file.
func DBPath(gitRoot string) string {
	return filepath.Join(DotDir(gitRoot), "mementor.db")
}

// IsEnabled reports whether the project dot-directory (and its database)
// already exists.
func IsEnabled(gitRoot string) bool {
	_, err := os.Stat(DBPath(gitRoot))
	return err == nil
}

// ModelCacheDir returns the directory the embedder's model-download
// collaborator writes into: $MEMENTOR_MODEL_CACHE_DIR if set, otherwise
// ~/.cache/mementor/models.
func ModelCacheDir() (string, error) {
	if dir := os.Getenv("MEMENTOR_MODEL_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "mementor", "models"), nil
}

// EnsureEnabled returns merr.ErrNotConfigured when the project has not been
// enabled (no database present) — callers surface this as "not enabled".
func EnsureEnabled(gitRoot string) error {
	if !IsEnabled(gitRoot) {
		return merr.ErrNotConfigured
	}
	return nil
}
