package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// chdirNoGitRepo points the process at a fresh directory with no .git
// entry above it, so hookNotEnabled reports true unconditionally — a
// temp dir under t.TempDir() is never inside the module's own repo.
func chdirNoGitRepo(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func runHookCmd(t *testing.T, run func(*cobra.Command) error, stdin string) (stdout, stderr string) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	var out, errBuf bytes.Buffer
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	if err := run(cmd); err != nil {
		t.Fatalf("hook run returned error: %v", err)
	}
	return out.String(), errBuf.String()
}

func TestStopHookNotEnabledIsSilent(t *testing.T) {
	chdirNoGitRepo(t)
	stdout, stderr := runHookCmd(t, runStopHook,
		`{"session_id":"s1","transcript_path":"/tmp/t.jsonl","cwd":"/tmp"}`)
	if stdout != "" || stderr != "" {
		t.Errorf("expected silent no-op, got stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestPreToolUseHookNotEnabledIsSilent(t *testing.T) {
	chdirNoGitRepo(t)
	stdout, stderr := runHookCmd(t, runPreToolUseHook,
		`{"session_id":"s1","tool_name":"Read","tool_input":{"file_path":"/tmp/a.go"},"cwd":"/tmp"}`)
	if stdout != "" || stderr != "" {
		t.Errorf("expected silent no-op, got stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestSubagentStartHookNotEnabledIsSilent(t *testing.T) {
	chdirNoGitRepo(t)
	stdout, stderr := runHookCmd(t, runSubagentStartHook,
		`{"session_id":"s1","cwd":"/tmp"}`)
	if stdout != "" || stderr != "" {
		t.Errorf("expected silent no-op, got stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestPreCompactHookNotEnabledWritesStderrDiagnostic(t *testing.T) {
	chdirNoGitRepo(t)
	stdout, stderr := runHookCmd(t, runPreCompactHook,
		`{"session_id":"s1","transcript_path":"/tmp/t.jsonl","cwd":"/tmp","trigger":"auto"}`)
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr == "" {
		t.Error("expected PreCompact to write a stderr diagnostic even when not enabled, unlike the other hooks")
	}
}

func TestPreToolUseHookNoFilePathIsNoOp(t *testing.T) {
	// Inside a git repository (not enabled), and the tool call carries
	// neither file_path nor notebook_path — nothing to search for, so the
	// hook returns before it checks whether the project is enabled.
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	stdout, stderr := runHookCmd(t, runPreToolUseHook,
		`{"session_id":"s1","tool_name":"Bash","tool_input":{},"cwd":"/tmp"}`)
	if stdout != "" || stderr != "" {
		t.Errorf("expected no-op when tool_input carries no path, got stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestHookInputDecodeErrorIsReturned(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetIn(bytes.NewBufferString("not json"))
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	if err := runStopHook(cmd); err == nil {
		t.Fatal("expected an error for malformed hook input JSON")
	}
}
