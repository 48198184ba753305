// Package search implements the hybrid vector + file-path + in-context
// filtering retrieval pipeline: classify query triviality, embed, over-
// fetch nearest chunks, merge with file-path evidence, and reconstruct a
// formatted markdown context block.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fenv-org/mementor/internal/embedder"
	"github.com/fenv-org/mementor/internal/pathextract"
	"github.com/fenv-org/mementor/internal/storage"
)

// OverFetch multiplies k to get the internal vector-search fetch size.
const OverFetch = 4

// MaxDistance discards vector candidates whose cosine distance exceeds
// this threshold.
const MaxDistance = 0.45

// FileMatchDistance is the synthetic distance assigned to a file-path
// match: below MaxDistance, above a typical strong semantic hit.
const FileMatchDistance = 0.35

// Skipped is returned for a trivial query instead of running recall.
const Skipped = ""

// Pipeline runs hybrid search against one project database.
type Pipeline struct {
	db  *storage.DB
	emb embedder.Embedder
}

func New(db *storage.DB, emb embedder.Embedder) *Pipeline {
	return &Pipeline{db: db, emb: emb}
}

type mergedResult struct {
	key      storage.TurnKey
	distance float64
}

// Search implements the eight-phase pipeline. sessionID, when non-empty,
// is the caller's current session: its turns are excluded from recall
// unless they fall at or before its compaction boundary.
func (p *Pipeline) Search(ctx context.Context, query string, k int, sessionID string) (string, error) {
	if classify(query) != searchable {
		return Skipped, nil
	}

	// Phase 1: embed the query.
	vectors, err := p.emb.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	queryVec := vectors[0]

	// Phase 2: extract file hints from the raw query.
	hints := pathextract.ScanTokens(query)

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

	kInternal := k * OverFetch

	// Phase 3: vector over-fetch with in-context filter applied in SQL.
	vectorCandidates, err := p.db.QueryVectorTopK(queryVec, kInternal, sessionID, lastCompact)
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}

	// Phase 4: file-path search, only when hints are non-empty.
	var fileCandidates []storage.FileCandidate
	if len(hints) > 0 {
		fileCandidates, err = p.db.QueryFilePathCandidates(hints, kInternal, sessionID, lastCompact)
		if err != nil {
			return "", fmt.Errorf("file path search: %w", err)
		}
	}

	// Phase 5: distance threshold.
	merged := map[storage.TurnKey]float64{}
	for _, c := range vectorCandidates {
		if c.Distance > MaxDistance {
			continue
		}
		key := storage.TurnKey{SessionID: c.SessionID, StartLine: c.StartLine}
		if existing, ok := merged[key]; !ok || c.Distance < existing {
			merged[key] = c.Distance
		}
	}

	// Phase 6: merge file matches — never worsen an existing entry.
	for _, c := range fileCandidates {
		key := storage.TurnKey{SessionID: c.SessionID, StartLine: c.StartLine}
		if existing, ok := merged[key]; ok && existing <= FileMatchDistance {
			continue
		}
		merged[key] = FileMatchDistance
	}

	if len(merged) == 0 {
		return "", nil
	}

	// Phase 7: sort ascending, truncate to k.
	results := make([]mergedResult, 0, len(merged))
	for key, dist := range merged {
		results = append(results, mergedResult{key: key, distance: dist})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].distance < results[j].distance })
	if len(results) > k {
		results = results[:k]
	}

	// Phase 8: reconstruct and format.
	keys := make([]storage.TurnKey, len(results))
	for i, r := range results {
		keys[i] = r.key
	}
	chunksByTurn, err := p.db.QueryTurnChunks(keys)
	if err != nil {
		return "", fmt.Errorf("reconstruct chunks: %w", err)
	}

	return formatContext(results, chunksByTurn), nil
}

func formatContext(results []mergedResult, chunksByTurn map[storage.TurnKey][]string) string {
	var b strings.Builder
	any := false
	memoryIndex := 0
	for _, r := range results {
		chunks := chunksByTurn[r.key]
		text := strings.Join(chunks, "\n\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !any {
			b.WriteString("## Relevant past context\n\n")
			any = true
		} else {
			b.WriteString("\n\n")
		}
		memoryIndex++
		fmt.Fprintf(&b, "### Memory %d (distance: %.4f)\n%s", memoryIndex, r.distance, text)
	}
	if !any {
		return ""
	}
	return b.String()
}
