package search

import (
	"strings"

	"github.com/fenv-org/mementor/internal/toolsummary"
)

// minUnits is the minimum information-unit count a query must clear to
// be considered searchable.
const minUnits = 3

// classification is the outcome of the triviality gate.
type classification int

const (
	searchable classification = iota
	trivialSlashCommand
	trivialTooShort
)

// classify implements the triviality gate: a slash command, or fewer
// than minUnits information units, is trivial and skips recall entirely.
func classify(query string) classification {
	if isSlashCommand(query) {
		return trivialSlashCommand
	}
	if countUnits(query) < minUnits {
		return trivialTooShort
	}
	return searchable
}

// isSlashCommand matches any whitespace-delimited token starting with
// "/" whose length is greater than 1 and whose remainder contains no
// further "/" — this excludes filesystem paths like "/tmp/x".
func isSlashCommand(query string) bool {
	for _, tok := range strings.Fields(query) {
		if len(tok) > 1 && tok[0] == '/' && !strings.Contains(tok[1:], "/") {
			return true
		}
	}
	return false
}

// countUnits counts information units: one grapheme for logographic-
// script runs, one whitespace-separated word otherwise. Korean Hangul is
// treated as space-separated, not logographic.
func countUnits(query string) int {
	units := 0
	for _, word := range strings.Fields(query) {
		if isLogographic(word) {
			units += toolsummary.CountGraphemes(word)
		} else {
			units++
		}
	}
	return units
}

// isLogographic reports whether word consists entirely of CJK
// ideographs or kana — scripts counted by grapheme rather than by word.
// Hangul is excluded: Korean is space-separated like Latin scripts.
func isLogographic(word string) bool {
	found := false
	for _, r := range word {
		switch {
		case isCJKIdeograph(r), isKana(r):
			found = true
		default:
			return false
		}
	}
	return found
}

func isCJKIdeograph(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified Ideographs
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0xF900 && r <= 0xFAFF) // CJK Compatibility Ideographs
}

func isKana(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) || // Hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // Katakana
		(r >= 0xFF65 && r <= 0xFF9F) // Half-width Katakana
}
