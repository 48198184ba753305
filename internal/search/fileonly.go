package search

import (
	"fmt"
	"strings"

	"github.com/fenv-org/mementor/internal/pathextract"
	"github.com/fenv-org/mementor/internal/storage"
)

// FileOnlySearch is the pre-tool-use collaborator's variant: normalize
// the input path, run file-path search alone, reconstruct turns, and
// format with the simpler "Past context for {path}" header.
func (p *Pipeline) FileOnlySearch(path, projectDir, projectRoot string, k int, sessionID string) (string, error) {
	norm, ok := pathextract.Normalize(path, projectDir, projectRoot)
	if !ok {
		return "", nil
	}

	var lastCompact *int
	if sessionID != "" {
		session, err := p.db.LoadSession(sessionID)
		if err != nil {
			return "", fmt.Errorf("load session: %w", err)
		}
		if session != nil {
			lastCompact = session.LastCompactLineIndex
		}
	}

	candidates, err := p.db.QueryFilePathCandidates([]string{norm}, k, sessionID, lastCompact)
	if err != nil {
		return "", fmt.Errorf("file path search: %w", err)
	}
	if len(candidates) == 0 {
		return "", nil
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	keys := make([]storage.TurnKey, len(candidates))
	for i, c := range candidates {
		keys[i] = storage.TurnKey{SessionID: c.SessionID, StartLine: c.StartLine}
	}
	chunksByTurn, err := p.db.QueryTurnChunks(keys)
	if err != nil {
		return "", fmt.Errorf("reconstruct chunks: %w", err)
	}

	var b strings.Builder
	any := false
	for _, key := range keys {
		text := strings.Join(chunksByTurn[key], "\n\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !any {
			fmt.Fprintf(&b, "## Past context for %s\n\n", norm)
			any = true
		} else {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	if !any {
		return "", nil
	}
	return b.String(), nil
}
