// Package sqlite stores crawl state in an embedded database file. It mirrors
// the postgres adapter for single-host runs and for tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Timestamps are stored as unix milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS sites (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	root_url   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS crawls (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id      INTEGER NOT NULL REFERENCES sites (id),
	status       TEXT NOT NULL,
	max_pages    INTEGER NOT NULL,
	max_depth    INTEGER NOT NULL,
	pages_done   INTEGER NOT NULL DEFAULT 0,
	pages_queued INTEGER NOT NULL DEFAULT 0,
	started_at   INTEGER,
	finished_at  INTEGER,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS crawl_urls (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	crawl_id   INTEGER NOT NULL REFERENCES crawls (id),
	url        TEXT NOT NULL,
	depth      INTEGER NOT NULL,
	status     TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE (crawl_id, url)
);

CREATE INDEX IF NOT EXISTS crawl_urls_crawl_status_idx ON crawl_urls (crawl_id, status, id);

CREATE TABLE IF NOT EXISTS pages (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id        INTEGER NOT NULL REFERENCES sites (id),
	url            TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	latest_scan_id INTEGER,
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL,
	UNIQUE (site_id, url)
);

CREATE TABLE IF NOT EXISTS scans (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id         INTEGER NOT NULL REFERENCES sites (id),
	page_id         INTEGER REFERENCES pages (id),
	url             TEXT NOT NULL,
	status          TEXT NOT NULL,
	score           INTEGER NOT NULL DEFAULT 0,
	issues          INTEGER NOT NULL DEFAULT 0,
	impact_critical INTEGER NOT NULL DEFAULT 0,
	impact_serious  INTEGER NOT NULL DEFAULT 0,
	impact_moderate INTEGER NOT NULL DEFAULT 0,
	impact_minor    INTEGER NOT NULL DEFAULT 0,
	raw             TEXT,
	failure_reason  TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL
);
`

// Open opens (or creates) the database at path and applies the schema.
// SQLite allows a single writer, so the pool is capped at one connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}

func now() int64 {
	return time.Now().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMillis(ms.Int64)
	return &t
}

func fromNullID(id sql.NullInt64) *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Int64
	return &v
}

func toNullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
