// Package hooks defines the line-delimited JSON contracts for the four
// lifecycle hooks mementor is invoked from. These shapes are an external
// collaborator's contract (Claude Code's hook protocol), not something
// this implementation controls — only consumed.
package hooks

import "github.com/google/uuid"

// Stop is the Stop hook's input: end of a conversational turn.
type Stop struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
}

// PreCompact is the PreCompact hook's input, fired just before Claude
// Code compacts a long conversation.
type PreCompact struct {
	SessionID          string `json:"session_id"`
	TranscriptPath     string `json:"transcript_path"`
	CWD                string `json:"cwd"`
	Trigger            string `json:"trigger"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

// ToolInput carries the subset of tool-call arguments the pre-tool-use
// collaborator consults.
type ToolInput struct {
	FilePath     string `json:"file_path,omitempty"`
	NotebookPath string `json:"notebook_path,omitempty"`
}

// PreToolUse is the PreToolUse hook's input, fired before a tool call
// executes.
type PreToolUse struct {
	SessionID string    `json:"session_id"`
	ToolName  string    `json:"tool_name"`
	ToolInput ToolInput `json:"tool_input"`
	CWD       string    `json:"cwd"`
}

// SubagentStart is the SubagentStart hook's input, fired when a subagent
// begins.
type SubagentStart struct {
	SessionID string `json:"session_id"`
	CWD       string `json:"cwd"`
}

// hookSpecificOutput is the inner payload of an output that injects
// context back into the assistant.
type hookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// Output is the stdout JSON shape emitted when context is injected. When
// nothing is injected, no output is written at all.
type Output struct {
	HookSpecificOutput hookSpecificOutput `json:"hookSpecificOutput"`
}

// NewOutput builds the injection payload for a given hook event name.
func NewOutput(eventName, additionalContext string) Output {
	return Output{HookSpecificOutput: hookSpecificOutput{
		HookEventName:     eventName,
		AdditionalContext: additionalContext,
	}}
}

// TraceID correlates one hook invocation's diagnostics, purely for debug
// traces — not a storage key, ULIDs own that role.
func TraceID() string {
	return uuid.NewString()
}
