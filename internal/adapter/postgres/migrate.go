package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS sites (
	id         BIGSERIAL PRIMARY KEY,
	root_url   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS crawls (
	id           BIGSERIAL PRIMARY KEY,
	site_id      BIGINT NOT NULL REFERENCES sites (id),
	status       TEXT NOT NULL,
	max_pages    INTEGER NOT NULL,
	max_depth    INTEGER NOT NULL,
	pages_done   INTEGER NOT NULL DEFAULT 0,
	pages_queued INTEGER NOT NULL DEFAULT 0,
	started_at   TIMESTAMPTZ,
	finished_at  TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS crawl_urls (
	id         BIGSERIAL PRIMARY KEY,
	crawl_id   BIGINT NOT NULL REFERENCES crawls (id),
	url        TEXT NOT NULL,
	depth      INTEGER NOT NULL,
	status     TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (crawl_id, url)
);

CREATE INDEX IF NOT EXISTS crawl_urls_crawl_status_idx ON crawl_urls (crawl_id, status, id);

CREATE TABLE IF NOT EXISTS pages (
	id             BIGSERIAL PRIMARY KEY,
	site_id        BIGINT NOT NULL REFERENCES sites (id),
	url            TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	latest_scan_id BIGINT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (site_id, url)
);

CREATE TABLE IF NOT EXISTS scans (
	id              BIGSERIAL PRIMARY KEY,
	site_id         BIGINT NOT NULL REFERENCES sites (id),
	page_id         BIGINT REFERENCES pages (id),
	url             TEXT NOT NULL,
	status          TEXT NOT NULL,
	score           INTEGER NOT NULL DEFAULT 0,
	issues          INTEGER NOT NULL DEFAULT 0,
	impact_critical INTEGER NOT NULL DEFAULT 0,
	impact_serious  INTEGER NOT NULL DEFAULT 0,
	impact_moderate INTEGER NOT NULL DEFAULT 0,
	impact_minor    INTEGER NOT NULL DEFAULT 0,
	raw             JSONB,
	failure_reason  TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the tables the crawler needs if they do not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
