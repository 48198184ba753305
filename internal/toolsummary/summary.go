// Package toolsummary renders a tool_use content block into the compact
// line `Name(key1="v1", key2="v2")` the transcript parser stores as
// Entry.tool_summary and folds into Turn.full_text, per a fixed whitelist
// of known tools rather than pattern-matching on data.
package toolsummary

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/rivo/uniseg"
)

// maxGraphemes bounds every field value to this many grapheme clusters,
// not bytes or code points, so multi-byte glyphs (CJK, Hangul, emoji)
// truncate on a visible-character boundary.
const maxGraphemes = 80

// whitelist maps a known tool name to the ordered list of input keys
// summarized for it. Order controls the rendered field order.
var whitelist = map[string][]string{
	"Read":         {"file_path"},
	"Edit":         {"file_path"},
	"Write":        {"file_path"},
	"NotebookEdit": {"notebook_path"},
	"Grep":         {"pattern", "path", "glob"},
	"Glob":         {"pattern", "path"},
	"Bash":         {"command"},
	"Task":         {"description", "subagent_type"},
	"Skill":        {"command"},
	"WebFetch":     {"url"},
	"WebSearch":    {"query"},
}

// skipped tools produce no summary and are dropped entirely: plan-mode
// toggles, todo/task bookkeeping, and user-prompting tools carry no
// durable file-or-decision content worth indexing.
var skipped = map[string]bool{
	"ExitPlanMode":     true,
	"TodoWrite":        true,
	"AskUserQuestion":  true,
}

// Summarize renders a tool_use block's name and JSON input into the
// compact summary line, or "" when the tool is in the skip set.
func Summarize(name string, input []byte) string {
	if skipped[name] {
		return ""
	}

	keys, known := whitelist[name]
	if !known {
		return name
	}

	fields := map[string]string{}
	if len(input) > 0 {
		_ = json.Unmarshal(input, &fields)
	}

	var parts []string
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == "" {
			continue
		}
		parts = append(parts, k+"=\""+escapeAndTruncate(v)+"\"")
	}

	return name + "(" + strings.Join(parts, ", ") + ")"
}

// escapeAndTruncate backslash-escapes double quotes and truncates to
// maxGraphemes grapheme clusters, appending "..." on truncation.
func escapeAndTruncate(s string) string {
	escaped := strings.ReplaceAll(s, `"`, `\"`)
	return TruncateGraphemes(escaped, maxGraphemes)
}

// TruncateGraphemes truncates s to at most n grapheme clusters, appending
// "..." when truncation occurs.
func TruncateGraphemes(s string, n int) string {
	gr := uniseg.NewGraphemes(s)
	var b strings.Builder
	count := 0
	for gr.Next() {
		if count == n {
			b.WriteString("...")
			return b.String()
		}
		b.WriteString(gr.Str())
		count++
	}
	return b.String()
}

// CountGraphemes returns the number of grapheme clusters in s. Exported
// for reuse by the search pipeline's triviality classifier, which counts
// information units the same grapheme-aware way.
func CountGraphemes(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
