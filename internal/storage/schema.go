package storage

import (
	"database/sql"
	"strconv"
)

// schemaVersion is the current user_version. A fresh database is created
// from snapshotDDL at version 0 and stamped straight to this version;
// existing databases below it are advanced by migrations, in order.
const schemaVersion = 1

// migrations holds incremental scripts keyed by the version they advance
// *to*. There is only one version today; new columns or tables land here
// as the schema grows, never as edits to snapshotDDL.
var migrations = map[int]string{}

// snapshotDDL is the ten-table variant adopted by this implementation:
// entries, turns, chunks, file_mentions, pr_links, and the turns_fts
// mirror, plus the sessions table they all hang off of.
const snapshotDDL = `
CREATE TABLE IF NOT EXISTS sessions (
	id                       TEXT PRIMARY KEY,
	transcript_path          TEXT NOT NULL,
	project_dir              TEXT NOT NULL,
	started_at               TEXT,
	last_line_index          INTEGER NOT NULL DEFAULT 0,
	provisional_turn_start   INTEGER,
	last_compact_line_index  INTEGER,
	created_at               TEXT NOT NULL,
	updated_at               TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	session_id    TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	line_index    INTEGER NOT NULL,
	entry_type    TEXT NOT NULL,
	content       BLOB,
	tool_summary  BLOB,
	timestamp     TEXT,
	UNIQUE(session_id, line_index)
);

CREATE TABLE IF NOT EXISTS turns (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	start_line   INTEGER NOT NULL,
	end_line     INTEGER NOT NULL,
	provisional  INTEGER NOT NULL DEFAULT 0,
	full_text    TEXT NOT NULL,
	UNIQUE(session_id, start_line)
);

CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);

CREATE TABLE IF NOT EXISTS chunks (
	turn_id      TEXT NOT NULL REFERENCES turns(id) ON DELETE CASCADE,
	chunk_index  INTEGER NOT NULL,
	content      TEXT NOT NULL,
	embedding    BLOB NOT NULL,
	UNIQUE(turn_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_turn ON chunks(turn_id);

CREATE TABLE IF NOT EXISTS file_mentions (
	turn_id    TEXT NOT NULL REFERENCES turns(id) ON DELETE CASCADE,
	file_path  TEXT NOT NULL,
	tool_name  TEXT NOT NULL,
	UNIQUE(turn_id, file_path, tool_name)
);

CREATE INDEX IF NOT EXISTS idx_file_mentions_path ON file_mentions(file_path);

CREATE TABLE IF NOT EXISTS pr_links (
	session_id     TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	pr_number      INTEGER NOT NULL,
	pr_url         TEXT NOT NULL,
	pr_repository  TEXT NOT NULL,
	timestamp      TEXT NOT NULL,
	UNIQUE(session_id, pr_number)
);

CREATE VIRTUAL TABLE IF NOT EXISTS turns_fts USING fts5(
	full_text,
	content='turns',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS turns_fts_ai AFTER INSERT ON turns BEGIN
	INSERT INTO turns_fts(rowid, full_text) VALUES (new.rowid, new.full_text);
END;

CREATE TRIGGER IF NOT EXISTS turns_fts_ad AFTER DELETE ON turns BEGIN
	INSERT INTO turns_fts(turns_fts, rowid, full_text) VALUES ('delete', old.rowid, old.full_text);
END;

CREATE TRIGGER IF NOT EXISTS turns_fts_au AFTER UPDATE ON turns BEGIN
	INSERT INTO turns_fts(turns_fts, rowid, full_text) VALUES ('delete', old.rowid, old.full_text);
	INSERT INTO turns_fts(rowid, full_text) VALUES (new.rowid, new.full_text);
END;
`

// applySchema brings a freshly opened connection up to schemaVersion,
// applying the snapshot at version 0 and incremental scripts after that,
// tracked via PRAGMA user_version so repeated opens are idempotent.
func applySchema(d *sql.DB) error {
	var current int
	if err := d.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}

	if current == 0 {
		if _, err := d.Exec(snapshotDDL); err != nil {
			return err
		}
		if _, err := d.Exec(pragmaSetVersion(schemaVersion)); err != nil {
			return err
		}
		return nil
	}

	for v := current + 1; v <= schemaVersion; v++ {
		script, ok := migrations[v]
		if !ok {
			continue
		}
		if _, err := d.Exec(script); err != nil {
			return err
		}
		if _, err := d.Exec(pragmaSetVersion(v)); err != nil {
			return err
		}
	}
	return nil
}

func pragmaSetVersion(v int) string {
	return "PRAGMA user_version = " + strconv.Itoa(v)
}
