// Package pathextract derives project-relative file references from
// tool-call summaries and "@"-mentions in a Turn's user text.
package pathextract

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fenv-org/mementor/internal/toolsummary"
)

// Mention is the sentinel tool name for paths found via @-mention rather
// than a tool call.
const Mention = "mention"

// FileRef is one normalized project-relative path plus its originating
// tool (or Mention).
type FileRef struct {
	Path string
	Tool string
}

// knownExtensions is the fixed, short list Bash command scanning accepts
// as evidence a whitespace-delimited token is a file path.
var knownExtensions = []string{
	".go", ".rs", ".py", ".js", ".ts", ".tsx", ".jsx", ".md", ".json",
	".yaml", ".yml", ".toml", ".txt", ".sh", ".sql", ".proto",
}

// Normalize tries projectDir then projectRoot as prefixes of an absolute
// path, stripping a trailing separator from the prefix and a leading
// separator from the remainder; it accepts the first non-empty result.
// Relative paths pass through unchanged. An absolute path matching
// neither prefix is discarded.
func Normalize(path, projectDir, projectRoot string) (string, bool) {
	if path == "" {
		return "", false
	}
	if !filepath.IsAbs(path) {
		return path, true
	}
	for _, prefix := range []string{projectDir, projectRoot} {
		if prefix == "" {
			continue
		}
		trimmedPrefix := strings.TrimSuffix(prefix, string(filepath.Separator))
		if !strings.HasPrefix(path, trimmedPrefix) {
			continue
		}
		rest := strings.TrimPrefix(path[len(trimmedPrefix):], string(filepath.Separator))
		if rest != "" {
			return rest, true
		}
	}
	return "", false
}

// FromToolSummary parses a rendered tool_summary line and extracts the
// path-bearing fields for tools the normalization rule applies to.
func FromToolSummary(line, projectDir, projectRoot string) []FileRef {
	name, fields := toolsummary.Parse(line)
	if fields == nil {
		return nil
	}

	var candidates []string
	switch name {
	case "Read", "Edit", "Write":
		candidates = appendIfSet(candidates, fields["file_path"])
	case "NotebookEdit":
		candidates = appendIfSet(candidates, fields["notebook_path"])
	case "Grep":
		candidates = appendIfSet(candidates, fields["path"])
	case "Bash":
		candidates = append(candidates, ScanTokens(fields["command"])...)
	}

	var refs []FileRef
	for _, c := range candidates {
		if norm, ok := Normalize(c, projectDir, projectRoot); ok {
			refs = append(refs, FileRef{Path: norm, Tool: name})
		}
	}
	return refs
}

func appendIfSet(list []string, v string) []string {
	if v == "" {
		return list
	}
	return append(list, v)
}

// ScanTokens scans free text for whitespace-delimited tokens that look
// like file paths: they contain "/" or end with a known extension. It is
// the Bash-argument-scanning heuristic, reused by the search pipeline to
// extract file hints from a raw query.
func ScanTokens(cmd string) []string {
	if cmd == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Fields(cmd) {
		tok = strings.Trim(tok, `'"`)
		if strings.Contains(tok, "/") || hasKnownExtension(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func hasKnownExtension(tok string) bool {
	for _, ext := range knownExtensions {
		if strings.HasSuffix(tok, ext) {
			return true
		}
	}
	return false
}

var mentionRe = regexp.MustCompile(`@[^\s]+`)
var trailingPunct = regexp.MustCompile(`[,;:)?!]+$`)

// Mentions extracts "@/…"-style mentions from free text, strips trailing
// punctuation, normalizes each, and returns them deduplicated and sorted.
func Mentions(text, projectDir, projectRoot string) []FileRef {
	seen := map[string]bool{}
	var out []FileRef
	for _, tok := range mentionRe.FindAllString(text, -1) {
		raw := strings.TrimPrefix(tok, "@")
		raw = trailingPunct.ReplaceAllString(raw, "")
		norm, ok := Normalize(raw, projectDir, projectRoot)
		if !ok || norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, FileRef{Path: norm, Tool: Mention})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
