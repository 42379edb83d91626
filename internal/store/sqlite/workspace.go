package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"rpitems/internal/catalog"
	"rpitems/internal/item"
	"rpitems/internal/store"
)

func (c *Client) SaveWorkspace(ctx context.Context, ws *catalog.Workspace) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveScope(ctx, tx, store.ScopeWorking, ws.Working); err != nil {
		return err
	}
	if ws.Snapshot == nil {
		if err := clearScope(ctx, tx, store.ScopeSnapshot); err != nil {
			return err
		}
	} else if err := saveScope(ctx, tx, store.ScopeSnapshot, ws.Snapshot); err != nil {
		return err
	}

	query := `
	INSERT INTO state (key, value, updated_at)
	VALUES (?, ?, datetime('now'))
	ON CONFLICT (key) DO UPDATE SET
		value = excluded.value,
		updated_at = datetime('now')
	`
	if _, err := tx.ExecContext(ctx, query, store.StateNextID, strconv.Itoa(ws.NextID)); err != nil {
		return fmt.Errorf("saving next id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing workspace: %w", err)
	}
	return nil
}

func clearScope(ctx context.Context, tx *sql.Tx, scope string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clearing %s items: %w", scope, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clearing %s metadata: %w", scope, err)
	}
	return nil
}

func saveScope(ctx context.Context, tx *sql.Tx, scope string, coll *item.Collection) error {
	if err := clearScope(ctx, tx, scope); err != nil {
		return err
	}

	meta := coll.Metadata
	_, err := tx.ExecContext(ctx, `
	INSERT INTO collections (scope, db_id, name, version, checksum)
	VALUES (?, ?, ?, ?, ?)
	`, scope, meta.ID, meta.Name, meta.Version, meta.Checksum)
	if err != nil {
		return fmt.Errorf("saving %s metadata: %w", scope, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (scope, id, guid, name, record) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing item insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range store.EncodeItems(coll) {
		it := coll.Items[row.ID]
		if _, err := stmt.ExecContext(ctx, scope, row.ID, it.GUID, it.Name, row.Record); err != nil {
			return fmt.Errorf("saving %s item %d: %w", scope, row.ID, err)
		}
	}
	return nil
}

func (c *Client) LoadWorkspace(ctx context.Context) (*catalog.Workspace, error) {
	ws := catalog.NewWorkspace()

	working, err := c.loadScope(ctx, store.ScopeWorking)
	if err != nil {
		return nil, err
	}
	if working != nil {
		ws.Working = working
	}
	snapshot, err := c.loadScope(ctx, store.ScopeSnapshot)
	if err != nil {
		return nil, err
	}
	ws.Snapshot = snapshot

	var value string
	err = c.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, store.StateNextID).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("loading next id: %w", err)
	default:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("parsing next id %q: %w", value, err)
		}
		ws.NextID = n
	}

	for _, id := range ws.Working.IDs() {
		if id >= ws.NextID {
			ws.NextID = id + 1
		}
	}
	return ws, nil
}

// loadScope returns nil when nothing was saved under scope.
func (c *Client) loadScope(ctx context.Context, scope string) (*item.Collection, error) {
	var meta item.Metadata
	err := c.db.QueryRowContext(ctx, `
	SELECT db_id, name, version, checksum FROM collections WHERE scope = ?
	`, scope).Scan(&meta.ID, &meta.Name, &meta.Version, &meta.Checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s metadata: %w", scope, err)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT id, record FROM items WHERE scope = ? ORDER BY id`, scope)
	if err != nil {
		return nil, fmt.Errorf("query %s items: %w", scope, err)
	}
	defer rows.Close()

	var stored []store.ItemRow
	for rows.Next() {
		var row store.ItemRow
		if err := rows.Scan(&row.ID, &row.Record); err != nil {
			return nil, fmt.Errorf("scanning %s item: %w", scope, err)
		}
		stored = append(stored, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s items: %w", scope, err)
	}

	return store.DecodeItems(stored, meta)
}
