// Package transcript streams an append-only JSONL conversation transcript
// into typed entries, messages, and PR-link records, with noise-type
// filtering and a richer entry/message/pr-link split than a plain
// line-by-line scan.
package transcript

// RawEntry is one accepted non-noise transcript line.
type RawEntry struct {
	LineIndex   int
	EntryType   string // "user" | "assistant" | "summary" | "compact_boundary" | "file_history_snapshot", or the line's own type for any other non-noise type
	Content     string
	ToolSummary string
	Timestamp   string
}

// Message is a parsed user/assistant message with non-empty text or a
// non-empty tool-summary list.
type Message struct {
	LineIndex          int
	Role               string // "user" | "assistant"
	Text               string
	ToolSummaries      []string
	Timestamp          string
	IsCompactionSummary bool
	HasUnknownBlocks   bool
	HasUnknownTool     bool
}

// PrLinkRecord is a typed `pr-link` transcript entry with all four
// required fields present.
type PrLinkRecord struct {
	LineIndex    int
	PrNumber     int
	PrURL        string
	PrRepository string
	Timestamp    string
}

// Result bundles the parser's three parallel outputs.
type Result struct {
	Entries  []RawEntry
	Messages []Message
	PrLinks  []PrLinkRecord
	// NextLineIndex is one past the last line the parser saw, whether or
	// not it produced output for that line — the ingest pipeline needs
	// this even when Messages is empty (e.g. a run of tool-only lines).
	NextLineIndex int
}

// noiseTypes are transcript entry types that carry no retrievable content
// and are skipped before any other processing.
var noiseTypes = map[string]bool{
	"progress":             true,
	"queue-operation":      true,
	"turn-duration":        true,
	"stop-hook-summary":    true,
}

// compactionSummaryPrefix marks a user message as the text Claude Code
// injects immediately after a compaction; turns built from it are tagged
// is_compaction_summary so FileMentions can be attributed to role
// "compaction_summary" instead of "turn".
const compactionSummaryPrefix = "This session is being continued from a previous conversation"
