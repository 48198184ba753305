package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fenv-org/mementor/internal/storage/vecmath"
)

// WithTx runs fn inside a single transaction, matching the ordering
// guarantee the ingest pipeline needs per turn: delete-provisional →
// upsert-turn → insert-chunks → insert-file-mentions, all committed
// together or not at all.
func (d *DB) WithTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadSession returns (nil, nil) when no session with this id exists yet
// — the ingest pipeline synthesizes a default in that case rather than
// treating it as an error.
func (d *DB) LoadSession(id string) (*Session, error) {
	row := d.QueryRow(`
		SELECT id, transcript_path, project_dir, started_at, last_line_index,
		       provisional_turn_start, last_compact_line_index, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var s Session
	var startedAt, createdAt, updatedAt sql.NullString
	var provisional, lastCompact sql.NullInt64
	err := row.Scan(&s.ID, &s.TranscriptPath, &s.ProjectDir, &startedAt, &s.LastLineIndex,
		&provisional, &lastCompact, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s.StartedAt = startedAt.String
	s.CreatedAt = createdAt.String
	s.UpdatedAt = updatedAt.String
	if provisional.Valid {
		v := int(provisional.Int64)
		s.ProvisionalTurnStart = &v
	}
	if lastCompact.Valid {
		v := int(lastCompact.Int64)
		s.LastCompactLineIndex = &v
	}
	return &s, nil
}

// InsertSessionPlaceholder inserts a bare session row so foreign keys on
// entries/turns resolve, the way a new Session is synthesized on first
// ingest.
func (d *DB) InsertSessionPlaceholder(id, transcriptPath, projectDir string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := d.Exec(`
		INSERT OR IGNORE INTO sessions
			(id, transcript_path, project_dir, last_line_index, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`, id, transcriptPath, projectDir, now, now)
	if err != nil {
		return fmt.Errorf("insert session placeholder: %w", err)
	}
	return nil
}

// UpsertSessionTx writes back the fields the ingest pipeline's final step
// mutates: last_line_index, provisional_turn_start, and
// last_compact_line_index (preserved by the caller passing it through
// unchanged when not advancing it). Takes an already-open transaction so a
// caller can commit it together with other writes — the ingest pipeline
// uses this to fold a compaction boundary update into the same commit as
// the session watermark advance.
func UpsertSessionTx(tx *sql.Tx, s *Session) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.Exec(`
		UPDATE sessions
		SET last_line_index = ?, provisional_turn_start = ?, last_compact_line_index = ?,
		    started_at = COALESCE(?, started_at), updated_at = ?
		WHERE id = ?`,
		s.LastLineIndex, nullableInt(s.ProvisionalTurnStart), nullableInt(s.LastCompactLineIndex),
		nullIfEmpty(s.StartedAt), now, s.ID)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// SetCompactionBoundary advances last_compact_line_index for a session.
// Callers fold this into the same transaction as the triggering ingest's
// final session upsert rather than issuing it as a separate commit.
func SetCompactionBoundary(tx *sql.Tx, sessionID string, lineIndex int) error {
	_, err := tx.Exec(`
		UPDATE sessions
		SET last_compact_line_index = MAX(COALESCE(last_compact_line_index, 0), ?)
		WHERE id = ?`, lineIndex, sessionID)
	if err != nil {
		return fmt.Errorf("set compaction boundary: %w", err)
	}
	return nil
}

// InsertEntry is idempotent on (session_id, line_index). Content and
// tool_summary are compressed above compressThreshold — most raw
// transcript lines are small, but tool output blobs and long assistant
// turns are not.
func (d *DB) InsertEntry(e Entry) error {
	_, err := d.Exec(`
		INSERT OR IGNORE INTO entries
			(session_id, line_index, entry_type, content, tool_summary, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.LineIndex, e.EntryType, blobOrNil(compressBlob(e.Content)),
		blobOrNil(compressBlob(e.ToolSummary)), nullIfEmpty(e.Timestamp))
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// LoadEntries returns a session's raw entries in line order, decompressing
// content and tool_summary.
func (d *DB) LoadEntries(sessionID string) ([]Entry, error) {
	rows, err := d.Query(`
		SELECT line_index, entry_type, content, tool_summary, timestamp
		FROM entries WHERE session_id = ? ORDER BY line_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var e Entry
		var content, toolSummary []byte
		var timestamp sql.NullString
		if err := rows.Scan(&e.LineIndex, &e.EntryType, &content, &toolSummary, &timestamp); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.SessionID = sessionID
		e.Timestamp = timestamp.String
		if e.Content, err = decompressBlob(content); err != nil {
			return nil, fmt.Errorf("decompress entry content: %w", err)
		}
		if e.ToolSummary, err = decompressBlob(toolSummary); err != nil {
			return nil, fmt.Errorf("decompress entry tool_summary: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func blobOrNil(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return b
}

// InsertPrLink is idempotent on (session_id, pr_number).
func (d *DB) InsertPrLink(p PrLink) error {
	_, err := d.Exec(`
		INSERT OR IGNORE INTO pr_links (session_id, pr_number, pr_url, pr_repository, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		p.SessionID, p.PrNumber, p.PrURL, p.PrRepository, p.Timestamp)
	if err != nil {
		return fmt.Errorf("insert pr_link: %w", err)
	}
	return nil
}

// DeleteTurnByStartLine removes the provisional Turn being rewritten;
// cascade deletes its Chunks and FileMentions.
func DeleteTurnByStartLine(tx *sql.Tx, sessionID string, startLine int) error {
	_, err := tx.Exec(`DELETE FROM turns WHERE session_id = ? AND start_line = ?`, sessionID, startLine)
	if err != nil {
		return fmt.Errorf("delete provisional turn: %w", err)
	}
	return nil
}

// UpsertTurn inserts or replaces a Turn row. Its id is generated by the
// caller up front, since chunks/file_mentions reference it within the same
// transaction.
func UpsertTurn(tx *sql.Tx, t Turn) error {
	provisional := 0
	if t.Provisional {
		provisional = 1
	}
	_, err := tx.Exec(`
		INSERT INTO turns (id, session_id, start_line, end_line, provisional, full_text)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, start_line) DO UPDATE SET
			id = excluded.id,
			end_line = excluded.end_line,
			provisional = excluded.provisional,
			full_text = excluded.full_text`,
		t.ID, t.SessionID, t.StartLine, t.EndLine, provisional, t.FullText)
	if err != nil {
		return fmt.Errorf("upsert turn: %w", err)
	}
	return nil
}

// InsertChunk stores a chunk with its packed embedding.
func InsertChunk(tx *sql.Tx, c Chunk) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO chunks (turn_id, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?)`,
		c.TurnID, c.ChunkIndex, c.Content, vecmath.Pack(c.Embedding))
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// InsertFileMention is idempotent on (turn_id, file_path, tool_name).
func InsertFileMention(tx *sql.Tx, f FileMention) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO file_mentions (turn_id, file_path, tool_name)
		VALUES (?, ?, ?)`, f.TurnID, f.FilePath, f.ToolName)
	if err != nil {
		return fmt.Errorf("insert file_mention: %w", err)
	}
	return nil
}

// DeleteSession cascades to entries, turns (and transitively chunks,
// file_mentions) and pr_links.
func (d *DB) DeleteSession(id string) error {
	_, err := d.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
