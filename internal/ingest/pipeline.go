// Package ingest drives the incremental parse → group → chunk → embed →
// persist pipeline and reconciles provisional turns and PR links across
// invocations.
package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/fenv-org/mementor/internal/chunk"
	"github.com/fenv-org/mementor/internal/embedder"
	"github.com/fenv-org/mementor/internal/idgen"
	"github.com/fenv-org/mementor/internal/pathextract"
	"github.com/fenv-org/mementor/internal/storage"
	"github.com/fenv-org/mementor/internal/transcript"
	"github.com/fenv-org/mementor/internal/turn"
)

// Pipeline drives ingestion against one project database.
type Pipeline struct {
	db       *storage.DB
	embedder embedder.Embedder
	ids      *idgen.Gen

	// sf collapses concurrent Ingest calls for the same session id into
	// one in-flight run, preserving single-writer discipline without a
	// global lock.
	sf singleflight.Group
}

func New(db *storage.DB, emb embedder.Embedder) *Pipeline {
	return &Pipeline{db: db, embedder: emb, ids: idgen.New()}
}

// Ingest implements the component design's ten-step algorithm.
func (p *Pipeline) Ingest(ctx context.Context, sessionID, transcriptPath, projectDir, projectRoot string) error {
	_, err, _ := p.sf.Do(sessionID, func() (interface{}, error) {
		return nil, p.ingest(ctx, sessionID, transcriptPath, projectDir, projectRoot, nil)
	})
	return err
}

// withFinalTx, when non-nil, is run inside the same transaction as the
// final session-advance write, letting a caller extend that one commit
// (Compact uses this to fold in the compaction boundary update).
func (p *Pipeline) ingest(ctx context.Context, sessionID, transcriptPath, projectDir, projectRoot string, withFinalTx func(tx *sql.Tx, lastLineIndex int) error) error {
	// Step 1: load (or synthesize) the session.
	session, err := p.db.LoadSession(sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	isNew := session == nil
	readFrom := 0
	if session != nil {
		if session.ProvisionalTurnStart != nil {
			readFrom = *session.ProvisionalTurnStart
		} else {
			readFrom = session.LastLineIndex
		}
	}

	// Step 2: parse from readFrom.
	result, err := transcript.Parse(transcriptPath, readFrom)
	if err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}
	if len(result.Entries) == 0 && len(result.Messages) == 0 && len(result.PrLinks) == 0 {
		if withFinalTx == nil || session == nil {
			return nil
		}
		// Nothing new to ingest, but a caller extending this commit (e.g.
		// Compact) still needs to run against the session's current
		// watermark.
		return p.db.WithTx(func(tx *sql.Tx) error {
			return withFinalTx(tx, session.LastLineIndex)
		})
	}

	// Step 3: placeholder row for fresh sessions so foreign keys resolve.
	if isNew {
		if err := p.db.InsertSessionPlaceholder(sessionID, transcriptPath, projectDir); err != nil {
			return err
		}
	}

	// Step 4: raw entries, idempotent.
	for _, e := range result.Entries {
		if err := p.db.InsertEntry(storage.Entry{
			SessionID:   sessionID,
			LineIndex:   e.LineIndex,
			EntryType:   e.EntryType,
			Content:     e.Content,
			ToolSummary: e.ToolSummary,
			Timestamp:   e.Timestamp,
		}); err != nil {
			return err
		}
	}

	// Step 5: PR links, idempotent.
	for _, pl := range result.PrLinks {
		if err := p.db.InsertPrLink(storage.PrLink{
			SessionID:    sessionID,
			PrNumber:     pl.PrNumber,
			PrURL:        pl.PrURL,
			PrRepository: pl.PrRepository,
			Timestamp:    pl.Timestamp,
		}); err != nil {
			return err
		}
	}

	// Step 6: group into turns.
	turns := turn.Group(result.Messages)
	var previousProvisionalStart *int
	if session != nil {
		previousProvisionalStart = session.ProvisionalTurnStart
	}
	if len(turns) == 0 {
		return p.advanceSession(sessionID, session, result.NextLineIndex, previousProvisionalStart, withFinalTx)
	}

	// Step 7: rewrite a previously-provisional turn.
	if previousProvisionalStart != nil {
		if err := p.db.WithTx(func(tx *sql.Tx) error {
			return storage.DeleteTurnByStartLine(tx, sessionID, *previousProvisionalStart)
		}); err != nil {
			return fmt.Errorf("delete provisional turn: %w", err)
		}
	}

	var newProvisionalStart *int
	maxEndLine := -1

	// Step 8: process turns in ascending start_line order.
	for _, t := range turns {
		chunks := chunk.Split(t.FullText, p.embedder.Tokenizer())
		if len(chunks) == 0 {
			chunks = []string{t.FullText}
		}

		vectors, err := p.embedder.Embed(ctx, chunks)
		if err != nil {
			return fmt.Errorf("embed turn chunks: %w", err)
		}

		turnID := p.ids.New()
		role := "turn"
		if t.IsCompactionSummary {
			role = "compaction_summary"
		}

		refs := make([]pathextract.FileRef, 0)
		for _, summary := range t.ToolSummaries {
			refs = append(refs, pathextract.FromToolSummary(summary, projectDir, projectRoot)...)
		}
		refs = append(refs, pathextract.Mentions(t.UserText, projectDir, projectRoot)...)

		if err := p.db.WithTx(func(tx *sql.Tx) error {
			if err := storage.UpsertTurn(tx, storage.Turn{
				ID:          turnID,
				SessionID:   sessionID,
				StartLine:   t.StartLine,
				EndLine:     t.EndLine,
				Provisional: t.Provisional,
				FullText:    t.FullText,
			}); err != nil {
				return err
			}
			for i, c := range chunks {
				if err := storage.InsertChunk(tx, storage.Chunk{
					TurnID:     turnID,
					ChunkIndex: i,
					Content:    c,
					Embedding:  vectors[i],
				}); err != nil {
					return err
				}
			}
			for _, ref := range refs {
				toolName := ref.Tool
				if role == "compaction_summary" {
					toolName = "compaction_summary"
				}
				if err := storage.InsertFileMention(tx, storage.FileMention{
					TurnID:   turnID,
					FilePath: ref.Path,
					ToolName: toolName,
				}); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}

		if t.Provisional {
			start := t.StartLine
			newProvisionalStart = &start
		}
		if t.EndLine+1 > maxEndLine {
			maxEndLine = t.EndLine + 1
		}
	}

	// Step 10: advance the session.
	lastLine := maxEndLine
	if result.NextLineIndex > lastLine {
		lastLine = result.NextLineIndex
	}
	return p.advanceSession(sessionID, session, lastLine, newProvisionalStart, withFinalTx)
}

// advanceSession upserts the session row with the new watermark, preserving
// last_compact_line_index, and — when withFinalTx is non-nil — runs it in
// the same transaction before committing.
func (p *Pipeline) advanceSession(sessionID string, existing *storage.Session, lastLineIndex int, provisionalStart *int, withFinalTx func(tx *sql.Tx, lastLineIndex int) error) error {
	s := &storage.Session{
		ID:            sessionID,
		LastLineIndex: lastLineIndex,
	}
	if existing != nil {
		s.LastCompactLineIndex = existing.LastCompactLineIndex
		s.StartedAt = existing.StartedAt
	}
	s.ProvisionalTurnStart = provisionalStart
	return p.db.WithTx(func(tx *sql.Tx) error {
		if err := storage.UpsertSessionTx(tx, s); err != nil {
			return err
		}
		if withFinalTx != nil {
			return withFinalTx(tx, lastLineIndex)
		}
		return nil
	})
}

// Compact runs the same parse → group → chunk → embed → persist pipeline
// as Ingest, but folds the compaction boundary update into the single
// transaction that commits the final session-advance write, closing the
// race where a crash between two separate commits could advance
// last_line_index without also advancing last_compact_line_index.
func (p *Pipeline) Compact(ctx context.Context, sessionID, transcriptPath, projectDir, projectRoot string) error {
	_, err, _ := p.sf.Do(sessionID, func() (interface{}, error) {
		return nil, p.ingest(ctx, sessionID, transcriptPath, projectDir, projectRoot,
			func(tx *sql.Tx, lastLineIndex int) error {
				return storage.SetCompactionBoundary(tx, sessionID, lastLineIndex)
			})
	})
	return err
}
