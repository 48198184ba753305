package storage

import (
	"fmt"
	"strings"

	"github.com/fenv-org/mementor/internal/storage/vecmath"
)

// VectorCandidate is one turn surfaced by the vec_topk scan, with its best
// (minimum) distance across its own chunks.
type VectorCandidate struct {
	SessionID string
	StartLine int
	Distance  float64
}

// FileCandidate is one turn surfaced by a file-path hint match.
type FileCandidate struct {
	SessionID  string
	StartLine  int
	MatchCount int
}

// TurnKey identifies a surviving merged result for chunk reconstruction.
type TurnKey struct {
	SessionID string
	StartLine int
}

// inContextFilter builds the SQL predicate implementing compaction-
// boundary suppression: turns from excludeSessionID are dropped unless
// their start_line is at or before lastCompactLineIndex for that session.
func inContextFilter(excludeSessionID string, lastCompactLineIndex *int) (string, []interface{}) {
	if excludeSessionID == "" {
		return "", nil
	}
	boundary := -1
	if lastCompactLineIndex != nil {
		boundary = *lastCompactLineIndex
	}
	return " AND NOT (t.session_id = ? AND t.start_line > ?)", []interface{}{excludeSessionID, boundary}
}

// QueryVectorTopK over-fetches kInternal nearest chunks from the vec_topk
// virtual table, joins back to Turn, groups to one row per turn keeping
// the minimum distance, and applies the in-context filter in SQL.
func (d *DB) QueryVectorTopK(query []float32, kInternal int, excludeSessionID string, lastCompactLineIndex *int) ([]VectorCandidate, error) {
	filterSQL, filterArgs := inContextFilter(excludeSessionID, lastCompactLineIndex)

	sqlStr := `
		SELECT t.session_id, t.start_line, MIN(vc.distance) AS dist
		FROM vec_chunks vc
		JOIN chunks c ON c.rowid = vc.rowid
		JOIN turns t ON t.id = c.turn_id
		WHERE vc.query = ? AND vc.k = ?` + filterSQL + `
		GROUP BY t.session_id, t.start_line`

	args := append([]interface{}{vecmath.Pack(query), kInternal}, filterArgs...)

	rows, err := d.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("vector topk query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []VectorCandidate
	for rows.Next() {
		var c VectorCandidate
		if err := rows.Scan(&c.SessionID, &c.StartLine, &c.Distance); err != nil {
			return nil, fmt.Errorf("scan vector candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// QueryFilePathCandidates finds turns whose FileMentions match any hint,
// ranked by distinct-hint match count.
func (d *DB) QueryFilePathCandidates(hints []string, limit int, excludeSessionID string, lastCompactLineIndex *int) ([]FileCandidate, error) {
	if len(hints) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(hints))
	args := make([]interface{}, 0, len(hints)+3)
	for i, h := range hints {
		placeholders[i] = "?"
		args = append(args, h)
	}

	filterSQL, filterArgs := inContextFilter(excludeSessionID, lastCompactLineIndex)
	args = append(args, filterArgs...)
	args = append(args, limit)

	sqlStr := fmt.Sprintf(`
		SELECT t.session_id, t.start_line, COUNT(DISTINCT fm.file_path) AS matches
		FROM file_mentions fm
		JOIN turns t ON t.id = fm.turn_id
		WHERE fm.file_path IN (%s)%s
		GROUP BY t.session_id, t.start_line
		ORDER BY matches DESC
		LIMIT ?`, strings.Join(placeholders, ","), filterSQL)

	rows, err := d.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("file path query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []FileCandidate
	for rows.Next() {
		var c FileCandidate
		if err := rows.Scan(&c.SessionID, &c.StartLine, &c.MatchCount); err != nil {
			return nil, fmt.Errorf("scan file candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentFileMentions returns up to limit distinct file paths mentioned in
// the given session, most-recently-touched (by owning turn's start_line)
// first — the SubagentStart hook's "recently touched files" summary.
func (d *DB) RecentFileMentions(sessionID string, limit int) ([]string, error) {
	rows, err := d.Query(`
		SELECT fm.file_path
		FROM file_mentions fm
		JOIN turns t ON t.id = fm.turn_id
		WHERE t.session_id = ?
		GROUP BY fm.file_path
		ORDER BY MAX(t.start_line) DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent file mentions query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan recent file mention: %w", err)
		}
		out = append(out, path)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryTurnChunks batch-fetches all chunks for the surviving
// (session_id, start_line) pairs in one statement, ordered so callers can
// join content in chunk_index order per turn.
func (d *DB) QueryTurnChunks(keys []TurnKey) (map[TurnKey][]string, error) {
	if len(keys) == 0 {
		return map[TurnKey][]string{}, nil
	}

	clauses := make([]string, len(keys))
	args := make([]interface{}, 0, len(keys)*2)
	for i, k := range keys {
		clauses[i] = "(t.session_id = ? AND t.start_line = ?)"
		args = append(args, k.SessionID, k.StartLine)
	}

	sqlStr := fmt.Sprintf(`
		SELECT t.session_id, t.start_line, c.content
		FROM chunks c
		JOIN turns t ON t.id = c.turn_id
		WHERE %s
		ORDER BY t.session_id, t.start_line, c.chunk_index`, strings.Join(clauses, " OR "))

	rows, err := d.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("turn chunks query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := map[TurnKey][]string{}
	for rows.Next() {
		var sessionID, content string
		var startLine int
		if err := rows.Scan(&sessionID, &startLine, &content); err != nil {
			return nil, fmt.Errorf("scan turn chunk: %w", err)
		}
		key := TurnKey{SessionID: sessionID, StartLine: startLine}
		out[key] = append(out[key], content)
	}
	return out, rows.Err()
}
