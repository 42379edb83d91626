package postgres

import (
	"context"
	"fmt"

	"rpitems/internal/store"
)

func (c *Client) GetImportRecords(ctx context.Context) (map[string]store.ImportRecord, error) {
	rows, err := c.pool.Query(ctx, `SELECT path, hash, guid FROM imports`)
	if err != nil {
		return nil, fmt.Errorf("query import records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]store.ImportRecord)
	for rows.Next() {
		var rec store.ImportRecord
		if err := rows.Scan(&rec.Path, &rec.Hash, &rec.GUID); err != nil {
			return nil, fmt.Errorf("scanning import record: %w", err)
		}
		records[rec.Path] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating import records: %w", err)
	}

	return records, nil
}

func (c *Client) RecordImport(ctx context.Context, rec store.ImportRecord) error {
	query := `
INSERT INTO imports (path, hash, guid, imported_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (path) DO UPDATE SET
    hash = EXCLUDED.hash,
    guid = EXCLUDED.guid,
    imported_at = now()
`
	if _, err := c.pool.Exec(ctx, query, rec.Path, rec.Hash, rec.GUID); err != nil {
		return fmt.Errorf("recording import of %s: %w", rec.Path, err)
	}
	return nil
}

func (c *Client) RemoveStaleImports(ctx context.Context, currentFiles []string) (int64, error) {
	if len(currentFiles) == 0 {
		return 0, nil
	}

	tag, err := c.pool.Exec(ctx, `DELETE FROM imports WHERE NOT (path = ANY($1))`, currentFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale imports: %w", err)
	}
	return tag.RowsAffected(), nil
}
