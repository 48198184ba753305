// Package storage is the embedded relational store: a single SQLite
// database per project with WAL journaling, foreign keys enforced on
// every connection, and the vec_topk virtual table wired in via
// vector.go's ConnectHook — the storage design's "loadable extension".
package storage

import (
	"database/sql"
	"fmt"
)

// DB wraps the raw *sql.DB with the handful of queries the rest of the
// pipeline needs: free Insert*/Query* functions against one SQLite file
// instead of
// two DuckDB files.
type DB struct {
	*sql.DB
}

// Open opens (creating if absent) the project database at path, applies
// the standard pragmas on every connection, runs schema migrations, and
// creates the vec_chunks virtual table used by top-k search.
func Open(path string) (*DB, error) {
	dsn := path + "?_foreign_keys=on&_journal_mode=WAL"
	d, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer at a time — WAL allows concurrent readers, but this
	// driver does not pool connections across goroutines safely for
	// writes, so we mirror the single-writer discipline at the pool level.
	d.SetMaxOpenConns(1)

	if _, err := d.Exec("PRAGMA foreign_keys = ON"); err != nil {
		d.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := d.Exec("PRAGMA journal_mode = WAL"); err != nil {
		d.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := applySchema(d); err != nil {
		d.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if _, err := d.Exec(
		"CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec_topk(chunks, embedding)",
	); err != nil {
		d.Close()
		return nil, fmt.Errorf("create vec_chunks: %w", err)
	}

	return &DB{DB: d}, nil
}

// nullIfEmpty turns an empty string into a SQL NULL rather than a stored
// empty string, used for optional TEXT columns like Session.started_at.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
