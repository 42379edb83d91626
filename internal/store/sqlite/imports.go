package sqlite

import (
	"context"
	"fmt"
	"strings"

	"rpitems/internal/store"
)

func (c *Client) GetImportRecords(ctx context.Context) (map[string]store.ImportRecord, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT path, hash, guid FROM imports`)
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
	VALUES (?, ?, ?, datetime('now'))
	ON CONFLICT (path) DO UPDATE SET
		hash = excluded.hash,
		guid = excluded.guid,
		imported_at = datetime('now')
	`
	if _, err := c.db.ExecContext(ctx, query, rec.Path, rec.Hash, rec.GUID); err != nil {
		return fmt.Errorf("recording import of %s: %w", rec.Path, err)
	}
	return nil
}

// RemoveStaleImports forgets files that no longer exist. An empty file list is
// treated as a failed walk and removes nothing.
func (c *Client) RemoveStaleImports(ctx context.Context, currentFiles []string) (int64, error) {
	if len(currentFiles) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(currentFiles))
	args := make([]any, len(currentFiles))
	for i, f := range currentFiles {
		placeholders[i] = "?"
		args[i] = f
	}

	query := fmt.Sprintf(`DELETE FROM imports WHERE path NOT IN (%s)`, strings.Join(placeholders, ", "))

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale imports: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return affected, nil
}
