package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fenv-org/mementor/internal/config"
	"github.com/fenv-org/mementor/internal/hooks"
	"github.com/fenv-org/mementor/internal/ingest"
	"github.com/fenv-org/mementor/internal/search"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// traceHook writes a one-line debug trace, gated behind MEMENTOR_DEBUG so
// normal hook invocations stay silent. The trace id exists only to let a
// user correlate one hook invocation's stderr lines when several fire in
// quick succession; it is never persisted.
func traceHook(cmd *cobra.Command, event, sessionID string) {
	if os.Getenv("MEMENTOR_DEBUG") == "" {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "mementor: hook=%s session=%s trace=%s\n", event, sessionID, hooks.TraceID())
}

// recentFilesLimit bounds the SubagentStart hook's file list.
const recentFilesLimit = 10

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Run a lifecycle hook, reading its JSON input from stdin",
	}
	cmd.AddCommand(
		newHookSubcommand("stop", runStopHook),
		newHookSubcommand("pre-compact", runPreCompactHook),
		newHookSubcommand("pre-tool-use", runPreToolUseHook),
		newHookSubcommand("subagent-start", runSubagentStartHook),
	)
	return cmd
}

func newHookSubcommand(use string, run func(cmd *cobra.Command) error) *cobra.Command {
	return &cobra.Command{
		Use:  use,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd)
		},
	}
}

// hookNotEnabled reports whether the project has not been enabled. When
// true, hook handlers silently no-op (exit 0, no output) so the host
// assistant keeps running — only CLI commands fail loudly.
func hookNotEnabled() (string, bool) {
	gitRoot, err := config.GitRoot(".")
	if err != nil {
		return "", true
	}
	if !config.IsEnabled(gitRoot) {
		return "", true
	}
	return gitRoot, false
}

func writeHookOutput(w io.Writer, out hooks.Output) error {
	enc, err := json.Marshal(out)
	if err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

func runStopHook(cmd *cobra.Command) error {
	var in hooks.Stop
	if err := json.NewDecoder(cmd.InOrStdin()).Decode(&in); err != nil {
		return fmt.Errorf("decode stop hook input: %w", err)
	}
	traceHook(cmd, "Stop", in.SessionID)

	gitRoot, notEnabled := hookNotEnabled()
	if notEnabled {
		return nil
	}

	e, err := openEngine(gitRoot)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil
	}
	defer e.Close()

	pipeline := ingest.New(e.DB, e.Emb)
	if err := pipeline.Ingest(context.Background(), in.SessionID, in.TranscriptPath, in.CWD, gitRoot); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	return nil
}

func runPreCompactHook(cmd *cobra.Command) error {
	var in hooks.PreCompact
	if err := json.NewDecoder(cmd.InOrStdin()).Decode(&in); err != nil {
		return fmt.Errorf("decode pre-compact hook input: %w", err)
	}
	traceHook(cmd, "PreCompact", in.SessionID)

	gitRoot, notEnabled := hookNotEnabled()
	if notEnabled {
		fmt.Fprintln(cmd.ErrOrStderr(), "mementor is not enabled for this project. Run `mementor enable` first.")
		return nil
	}

	e, err := openEngine(gitRoot)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil
	}
	defer e.Close()

	pipeline := ingest.New(e.DB, e.Emb)
	if err := pipeline.Compact(context.Background(), in.SessionID, in.TranscriptPath, in.CWD, gitRoot); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	return nil
}

func runPreToolUseHook(cmd *cobra.Command) error {
	var in hooks.PreToolUse
	if err := json.NewDecoder(cmd.InOrStdin()).Decode(&in); err != nil {
		return fmt.Errorf("decode pre-tool-use hook input: %w", err)
	}
	traceHook(cmd, "PreToolUse", in.SessionID)

	filePath := in.ToolInput.FilePath
	if filePath == "" {
		filePath = in.ToolInput.NotebookPath
	}
	if filePath == "" {
		return nil
	}

	gitRoot, notEnabled := hookNotEnabled()
	if notEnabled {
		return nil
	}

	e, err := openEngine(gitRoot)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil
	}
	defer e.Close()

	pipeline := search.New(e.DB, e.Emb)
	ctx, err := pipeline.FileOnlySearch(filePath, in.CWD, gitRoot, defaultTopK, in.SessionID)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil
	}
	if ctx == "" {
		return nil
	}

	return writeHookOutput(cmd.OutOrStdout(), hooks.NewOutput("PreToolUse", ctx))
}

func runSubagentStartHook(cmd *cobra.Command) error {
	var in hooks.SubagentStart
	if err := json.NewDecoder(cmd.InOrStdin()).Decode(&in); err != nil {
		return fmt.Errorf("decode subagent-start hook input: %w", err)
	}
	traceHook(cmd, "SubagentStart", in.SessionID)

	gitRoot, notEnabled := hookNotEnabled()
	if notEnabled {
		return nil
	}

	e, err := openEngine(gitRoot)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil
	}
	defer e.Close()

	files, err := e.DB.RecentFileMentions(in.SessionID, recentFilesLimit)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil
	}
	if len(files) == 0 {
		return nil
	}

	list := ""
	for i, f := range files {
		if i > 0 {
			list += "\n"
		}
		list += "- " + f
	}

	return writeHookOutput(cmd.OutOrStdout(), hooks.NewOutput(
		"SubagentStart",
		"Files recently touched in this session:\n"+list,
	))
}

// defaultTopK is the default result count used when a hook does not take
// a user-specified -k.
const defaultTopK = 5
