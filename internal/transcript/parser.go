package transcript

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/fenv-org/mementor/internal/toolsummary"
)

type rawLine struct {
	Type      string          `json:"type"`
	Message   json.RawMessage `json:"message"`
	Timestamp string          `json:"timestamp"`

	// pr-link fields
	PrNumber     *int   `json:"prNumber"`
	PrURL        string `json:"prUrl"`
	PrRepository string `json:"prRepository"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Thinking string          `json:"thinking"`
	Name     string          `json:"name"`
	Input    json.RawMessage `json:"input"`
}

// Parse reads path from 0-based line startLine onward and produces the
// three parallel outputs the ingest pipeline consumes.
func Parse(path string, startLine int) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	res := &Result{NextLineIndex: startLine}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineIndex := -1
	for scanner.Scan() {
		lineIndex++
		if lineIndex < startLine {
			continue
		}
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			res.NextLineIndex = lineIndex + 1
			continue
		}

		var raw rawLine
		if err := json.Unmarshal(line, &raw); err != nil {
			// A single bad line is always recovered locally, never fatal.
			res.NextLineIndex = lineIndex + 1
			continue
		}

		if noiseTypes[raw.Type] {
			res.NextLineIndex = lineIndex + 1
			continue
		}

		switch raw.Type {
		case "pr-link":
			if pl, ok := parsePrLink(raw, lineIndex); ok {
				res.PrLinks = append(res.PrLinks, pl)
			}
		case "user", "assistant":
			msg, entry, ok := parseMessage(raw, lineIndex)
			if entry != nil {
				res.Entries = append(res.Entries, *entry)
			}
			if ok {
				res.Messages = append(res.Messages, *msg)
			}
		case "summary", "compact_boundary", "file_history_snapshot":
			res.Entries = append(res.Entries, RawEntry{
				LineIndex: lineIndex,
				EntryType: classificationTag(raw.Type),
				Timestamp: raw.Timestamp,
			})
		default:
			// Unrecognized, non-noise type: retained as a raw entry under
			// its own type tag so nothing silently vanishes.
			res.Entries = append(res.Entries, RawEntry{
				LineIndex: lineIndex,
				EntryType: raw.Type,
				Timestamp: raw.Timestamp,
			})
		}

		res.NextLineIndex = lineIndex + 1
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	return res, nil
}

func classificationTag(t string) string {
	switch t {
	case "compact_boundary":
		return "compact_boundary"
	case "file_history_snapshot":
		return "file_history_snapshot"
	default:
		return t
	}
}

func parsePrLink(raw rawLine, lineIndex int) (PrLinkRecord, bool) {
	if raw.PrNumber == nil || raw.PrURL == "" || raw.PrRepository == "" || raw.Timestamp == "" {
		return PrLinkRecord{}, false
	}
	return PrLinkRecord{
		LineIndex:    lineIndex,
		PrNumber:     *raw.PrNumber,
		PrURL:        raw.PrURL,
		PrRepository: raw.PrRepository,
		Timestamp:    raw.Timestamp,
	}, true
}

// parseMessage extracts the raw entry (always, when the envelope parses)
// and the higher-level Message (only when it carries text or tool
// summaries).
func parseMessage(raw rawLine, lineIndex int) (*Message, *RawEntry, bool) {
	if len(raw.Message) == 0 {
		return nil, nil, false
	}
	var msg rawMessage
	if err := json.Unmarshal(raw.Message, &msg); err != nil {
		return nil, nil, false
	}
	if msg.Role != "user" && msg.Role != "assistant" {
		return nil, nil, false
	}

	text, summaries, hasUnknownBlocks, hasUnknownTool := extractContent(msg.Content)

	entry := &RawEntry{
		LineIndex:   lineIndex,
		EntryType:   msg.Role,
		Content:     text,
		ToolSummary: strings.Join(summaries, " | "),
		Timestamp:   raw.Timestamp,
	}

	if text == "" && len(summaries) == 0 {
		return nil, entry, false
	}

	m := &Message{
		LineIndex:           lineIndex,
		Role:                msg.Role,
		Text:                text,
		ToolSummaries:       summaries,
		Timestamp:           raw.Timestamp,
		IsCompactionSummary: msg.Role == "user" && strings.HasPrefix(text, compactionSummaryPrefix),
		HasUnknownBlocks:    hasUnknownBlocks,
		HasUnknownTool:      hasUnknownTool,
	}
	return m, entry, true
}

// extractContent traverses content whether it is a plain string or an
// array of typed blocks, per the accepted-block-kind table: text and
// thinking append to the text body, tool_use is summarized, tool_result
// is skipped for text, and any unknown block is skipped with the
// advisory flag set.
func extractContent(content json.RawMessage) (text string, toolSummaries []string, hasUnknownBlocks, hasUnknownTool bool) {
	if len(content) == 0 {
		return "", nil, false, false
	}

	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s, nil, false, false
	}

	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return "", nil, false, false
	}

	var textParts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				textParts = append(textParts, b.Text)
			}
		case "thinking":
			if b.Thinking != "" {
				textParts = append(textParts, b.Thinking)
			}
		case "tool_use":
			summary := toolsummary.Summarize(b.Name, b.Input)
			if summary == "" {
				continue
			}
			if summary == b.Name && !isWhitelistedBareName(b.Name) {
				hasUnknownTool = true
			}
			toolSummaries = append(toolSummaries, summary)
		case "tool_result":
			// Skipped for text; the caller still sees it via the raw
			// entry's line, since every accepted line yields one.
		default:
			hasUnknownBlocks = true
		}
	}

	return strings.Join(textParts, "\n"), toolSummaries, hasUnknownBlocks, hasUnknownTool
}

func isWhitelistedBareName(name string) bool {
	switch name {
	case "Read", "Edit", "Write", "NotebookEdit", "Grep", "Glob", "Bash", "Task", "Skill", "WebFetch", "WebSearch":
		return true
	}
	return false
}
