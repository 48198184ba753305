package storage

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenv-org/mementor/internal/storage/vecmath"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "mementor.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenCreatesSchemaAndVecTable(t *testing.T) {
	d := openTestDB(t)
	if _, err := d.Exec("SELECT count(*) FROM sessions"); err != nil {
		t.Errorf("sessions table missing: %v", err)
	}
	if _, err := d.Exec("SELECT count(*) FROM vec_chunks WHERE query = ? AND k = ?", vecmath.Pack([]float32{1, 0}), 1); err != nil {
		t.Errorf("vec_chunks virtual table not queryable: %v", err)
	}
}

func TestSessionLoadMissingReturnsNilNoError(t *testing.T) {
	d := openTestDB(t)
	s, err := d.LoadSession("does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil session, got %+v", s)
	}
}

func TestInsertSessionPlaceholderIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	if err := d.InsertSessionPlaceholder("sess-1", "/tmp/t.jsonl", "/repo"); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertSessionPlaceholder("sess-1", "/tmp/t.jsonl", "/repo"); err != nil {
		t.Fatal(err)
	}
	s, err := d.LoadSession("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatal("expected session to exist")
	}
	if s.TranscriptPath != "/tmp/t.jsonl" {
		t.Errorf("transcript path = %q", s.TranscriptPath)
	}
}

func TestEntryRoundTripCompressesLargeContent(t *testing.T) {
	d := openTestDB(t)
	if err := d.InsertSessionPlaceholder("sess-1", "/tmp/t.jsonl", "/repo"); err != nil {
		t.Fatal(err)
	}

	large := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	if err := d.InsertEntry(Entry{
		SessionID: "sess-1", LineIndex: 0, EntryType: "user",
		Content: large, ToolSummary: "", Timestamp: "2026-01-01T00:00:00Z",
	}); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertEntry(Entry{
		SessionID: "sess-1", LineIndex: 1, EntryType: "tool_result",
		Content: "small", ToolSummary: "Read(path=\"a.go\")",
	}); err != nil {
		t.Fatal(err)
	}

	entries, err := d.LoadEntries("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Content != large {
		t.Error("large content did not round-trip through compression")
	}
	if entries[1].Content != "small" || entries[1].ToolSummary != "Read(path=\"a.go\")" {
		t.Errorf("small entry round-trip mismatch: %+v", entries[1])
	}
}

func TestInsertEntryIdempotentOnLineIndex(t *testing.T) {
	d := openTestDB(t)
	if err := d.InsertSessionPlaceholder("sess-1", "/tmp/t.jsonl", "/repo"); err != nil {
		t.Fatal(err)
	}
	e := Entry{SessionID: "sess-1", LineIndex: 0, EntryType: "user", Content: "hi"}
	if err := d.InsertEntry(e); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertEntry(e); err != nil {
		t.Fatal(err)
	}
	entries, err := d.LoadEntries("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected idempotent insert to leave 1 row, got %d", len(entries))
	}
}

func TestTurnChunkFileMentionCascadeOnProvisionalRewrite(t *testing.T) {
	d := openTestDB(t)
	if err := d.InsertSessionPlaceholder("sess-1", "/tmp/t.jsonl", "/repo"); err != nil {
		t.Fatal(err)
	}

	err := d.WithTx(func(tx *sql.Tx) error {
		if err := UpsertTurn(tx, Turn{
			ID: "turn-1", SessionID: "sess-1", StartLine: 0, EndLine: 1,
			Provisional: true, FullText: "user: hello\nassistant: hi",
		}); err != nil {
			return err
		}
		if err := InsertChunk(tx, Chunk{TurnID: "turn-1", ChunkIndex: 0, Content: "hello", Embedding: []float32{1, 0}}); err != nil {
			return err
		}
		return InsertFileMention(tx, FileMention{TurnID: "turn-1", FilePath: "a.go", ToolName: "Read"})
	})
	if err != nil {
		t.Fatal(err)
	}

	var chunkCount int
	if err := d.QueryRow("SELECT count(*) FROM chunks").Scan(&chunkCount); err != nil {
		t.Fatal(err)
	}
	if chunkCount != 1 {
		t.Fatalf("expected 1 chunk before rewrite, got %d", chunkCount)
	}

	// Rewriting the provisional turn (spec §4.3's trailing-context promotion)
	// deletes the old turn row, cascading to its chunks and file_mentions.
	err = d.WithTx(func(tx *sql.Tx) error {
		if err := DeleteTurnByStartLine(tx, "sess-1", 0); err != nil {
			return err
		}
		if err := UpsertTurn(tx, Turn{
			ID: "turn-1b", SessionID: "sess-1", StartLine: 0, EndLine: 2,
			Provisional: false, FullText: "user: hello\nassistant: hi\nuser: thanks",
		}); err != nil {
			return err
		}
		return InsertChunk(tx, Chunk{TurnID: "turn-1b", ChunkIndex: 0, Content: "hello hi thanks", Embedding: []float32{1, 0}})
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := d.QueryRow("SELECT count(*) FROM chunks").Scan(&chunkCount); err != nil {
		t.Fatal(err)
	}
	if chunkCount != 1 {
		t.Errorf("expected cascade delete to leave exactly 1 chunk after rewrite, got %d", chunkCount)
	}
	var mentionCount int
	if err := d.QueryRow("SELECT count(*) FROM file_mentions").Scan(&mentionCount); err != nil {
		t.Fatal(err)
	}
	if mentionCount != 0 {
		t.Errorf("expected cascade delete to remove the old turn's file_mentions, got %d", mentionCount)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	d := openTestDB(t)
	if err := d.InsertSessionPlaceholder("sess-1", "/tmp/t.jsonl", "/repo"); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertEntry(Entry{SessionID: "sess-1", LineIndex: 0, EntryType: "user", Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	if err := d.DeleteSession("sess-1"); err != nil {
		t.Fatal(err)
	}
	entries, err := d.LoadEntries("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected cascade delete to remove entries, got %d", len(entries))
	}
}

func TestRecentFileMentionsOrderedByRecencyNotAlphabet(t *testing.T) {
	d := openTestDB(t)
	if err := d.InsertSessionPlaceholder("sess-1", "/tmp/t.jsonl", "/repo"); err != nil {
		t.Fatal(err)
	}

	// Insert in an order where alphabetical and recency order disagree:
	// "Cargo.toml" is touched last (highest start_line) but sorts first
	// alphabetically.
	err := d.WithTx(func(tx *sql.Tx) error {
		for i, path := range []string{"src/lib.rs", "src/main.rs", "Cargo.toml"} {
			turnID := "turn-" + path
			if err := UpsertTurn(tx, Turn{
				ID: turnID, SessionID: "sess-1", StartLine: i, EndLine: i, FullText: "x",
			}); err != nil {
				return err
			}
			if err := InsertFileMention(tx, FileMention{TurnID: turnID, FilePath: path, ToolName: "Read"}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := d.RecentFileMentions("sess-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Cargo.toml", "src/main.rs", "src/lib.rs"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestQueryVectorTopKExcludesFutureOwnSessionTurns(t *testing.T) {
	d := openTestDB(t)
	if err := d.InsertSessionPlaceholder("sess-1", "/tmp/t.jsonl", "/repo"); err != nil {
		t.Fatal(err)
	}

	err := d.WithTx(func(tx *sql.Tx) error {
		if err := UpsertTurn(tx, Turn{ID: "t1", SessionID: "sess-1", StartLine: 0, EndLine: 0, FullText: "x"}); err != nil {
			return err
		}
		if err := InsertChunk(tx, Chunk{TurnID: "t1", ChunkIndex: 0, Content: "a", Embedding: []float32{1, 0, 0}}); err != nil {
			return err
		}
		if err := UpsertTurn(tx, Turn{ID: "t2", SessionID: "sess-1", StartLine: 10, EndLine: 10, FullText: "y"}); err != nil {
			return err
		}
		return InsertChunk(tx, Chunk{TurnID: "t2", ChunkIndex: 0, Content: "b", Embedding: []float32{1, 0, 0}})
	})
	if err != nil {
		t.Fatal(err)
	}

	boundary := 5
	candidates, err := d.QueryVectorTopK([]float32{1, 0, 0}, 20, "sess-1", &boundary)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].StartLine != 0 {
		t.Errorf("expected only the pre-boundary turn to survive the in-context filter, got %+v", candidates)
	}
}
