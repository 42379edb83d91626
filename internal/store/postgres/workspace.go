package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"rpitems/internal/catalog"
	"rpitems/internal/item"
	"rpitems/internal/store"
)

func (c *Client) SaveWorkspace(ctx context.Context, ws *catalog.Workspace) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

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
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = now()
`
	if _, err := tx.Exec(ctx, query, store.StateNextID, strconv.Itoa(ws.NextID)); err != nil {
		return fmt.Errorf("saving next id: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing workspace: %w", err)
	}
	return nil
}

func clearScope(ctx context.Context, tx pgx.Tx, scope string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM items WHERE scope = $1`, scope); err != nil {
		return fmt.Errorf("clearing %s items: %w", scope, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM collections WHERE scope = $1`, scope); err != nil {
		return fmt.Errorf("clearing %s metadata: %w", scope, err)
	}
	return nil
}

func saveScope(ctx context.Context, tx pgx.Tx, scope string, coll *item.Collection) error {
	if err := clearScope(ctx, tx, scope); err != nil {
		return err
	}

	meta := coll.Metadata
	_, err := tx.Exec(ctx, `
INSERT INTO collections (scope, db_id, name, version, checksum)
VALUES ($1, $2, $3, $4, $5)
`, scope, meta.ID, meta.Name, meta.Version, meta.Checksum)
	if err != nil {
		return fmt.Errorf("saving %s metadata: %w", scope, err)
	}

	batch := &pgx.Batch{}
	rows := store.EncodeItems(coll)
	for _, row := range rows {
		it := coll.Items[row.ID]
		batch.Queue(`INSERT INTO items (scope, id, guid, name, record) VALUES ($1, $2, $3, $4, $5)`,
			scope, row.ID, it.GUID, it.Name, row.Record)
	}
	results := tx.SendBatch(ctx, batch)
	for _, row := range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("saving %s item %d: %w", scope, row.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("saving %s items: %w", scope, err)
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
	err = c.pool.QueryRow(ctx, `SELECT value FROM state WHERE key = $1`, store.StateNextID).Scan(&value)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
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

func (c *Client) loadScope(ctx context.Context, scope string) (*item.Collection, error) {
	var meta item.Metadata
	err := c.pool.QueryRow(ctx, `
SELECT db_id, name, version, checksum FROM collections WHERE scope = $1
`, scope).Scan(&meta.ID, &meta.Name, &meta.Version, &meta.Checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s metadata: %w", scope, err)
	}

	rows, err := c.pool.Query(ctx, `SELECT id, record FROM items WHERE scope = $1 ORDER BY id`, scope)
	if err != nil {
		return nil, fmt.Errorf("query %s items: %w", scope, err)
	}
	defer rows.Close()

	var stored []store.ItemRow
	for rows.Next() {
		var (
			id     int32
			record string
		)
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("scanning %s item: %w", scope, err)
		}
		stored = append(stored, store.ItemRow{ID: int(id), Record: record})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s items: %w", scope, err)
	}

	return store.DecodeItems(stored, meta)
}
