package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// All statements run in one implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS collections (
    scope    TEXT PRIMARY KEY,
    db_id    TEXT NOT NULL,
    name     TEXT NOT NULL DEFAULT '',
    version  BIGINT NOT NULL DEFAULT 0,
    checksum TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS items (
    scope  TEXT NOT NULL,
    id     INTEGER NOT NULL,
    guid   TEXT NOT NULL,
    name   TEXT NOT NULL,
    record TEXT NOT NULL,
    PRIMARY KEY (scope, id)
);

CREATE TABLE IF NOT EXISTS received (
    db_id       TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    sender      TEXT NOT NULL DEFAULT '',
    version     BIGINT NOT NULL DEFAULT 0,
    checksum    TEXT NOT NULL DEFAULT '',
    item_count  INTEGER NOT NULL DEFAULT 0,
    payload     TEXT NOT NULL,
    received_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
    path        TEXT PRIMARY KEY,
    hash        TEXT NOT NULL,
    guid        TEXT NOT NULL DEFAULT '',
    imported_at TIMESTAMPTZ DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_items_guid ON items (guid);
CREATE INDEX IF NOT EXISTS idx_received_at ON received (received_at);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
