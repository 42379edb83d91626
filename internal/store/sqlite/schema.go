package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS collections (
		scope    TEXT PRIMARY KEY,
		db_id    TEXT NOT NULL,
		name     TEXT NOT NULL DEFAULT '',
		version  INTEGER NOT NULL DEFAULT 0,
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
		version     INTEGER NOT NULL DEFAULT 0,
		checksum    TEXT NOT NULL DEFAULT '',
		item_count  INTEGER NOT NULL DEFAULT 0,
		payload     TEXT NOT NULL,
		received_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imports (
		path        TEXT PRIMARY KEY,
		hash        TEXT NOT NULL,
		guid        TEXT NOT NULL DEFAULT '',
		imported_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_items_guid ON items (guid);
	CREATE INDEX IF NOT EXISTS idx_received_at ON received (received_at);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
