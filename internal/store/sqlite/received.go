package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rpitems/internal/item"
	"rpitems/internal/store"
)

// SaveReceived keeps the latest copy of each received database.
func (c *Client) SaveReceived(ctx context.Context, sender string, coll *item.Collection) error {
	meta := coll.Metadata
	if meta.ID == "" {
		return fmt.Errorf("saving received collection: database id is required")
	}

	query := `
	INSERT INTO received (db_id, name, sender, version, checksum, item_count, payload, received_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (db_id) DO UPDATE SET
		name = excluded.name,
		sender = excluded.sender,
		version = excluded.version,
		checksum = excluded.checksum,
		item_count = excluded.item_count,
		payload = excluded.payload,
		received_at = excluded.received_at
	`
	_, err := c.db.ExecContext(ctx, query,
		meta.ID,
		meta.Name,
		sender,
		meta.Version,
		meta.Checksum,
		coll.Len(),
		store.EncodeReceived(coll),
		c.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving received collection: %w", err)
	}
	return nil
}

// LoadReceived returns the received database with the given id, or the most
// recently received one when databaseID is empty. It returns nil when there is
// none.
func (c *Client) LoadReceived(ctx context.Context, databaseID string) (*store.Received, error) {
	query := `
	SELECT db_id, name, sender, version, checksum, payload, received_at
	FROM received
	WHERE ? = '' OR db_id = ?
	ORDER BY received_at DESC
	LIMIT 1
	`

	var (
		meta       item.Metadata
		sender     string
		payload    string
		receivedAt string
	)
	err := c.db.QueryRowContext(ctx, query, databaseID, databaseID).Scan(
		&meta.ID, &meta.Name, &sender, &meta.Version, &meta.Checksum, &payload, &receivedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading received collection: %w", err)
	}

	coll, err := store.DecodeReceived(payload, meta)
	if err != nil {
		return nil, err
	}
	at, err := time.Parse(time.RFC3339Nano, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing received_at %q: %w", receivedAt, err)
	}
	return &store.Received{Sender: sender, Collection: coll, ReceivedAt: at}, nil
}

func (c *Client) ListReceived(ctx context.Context) ([]store.ReceivedSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT db_id, name, sender, version, checksum, item_count, received_at
	FROM received
	ORDER BY received_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query received collections: %w", err)
	}
	defer rows.Close()

	var results []store.ReceivedSummary
	for rows.Next() {
		var (
			s          store.ReceivedSummary
			receivedAt string
		)
		if err := rows.Scan(&s.DatabaseID, &s.Name, &s.Sender, &s.Version, &s.Checksum, &s.Items, &receivedAt); err != nil {
			return nil, fmt.Errorf("scanning received collection: %w", err)
		}
		s.ReceivedAt, err = time.Parse(time.RFC3339Nano, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing received_at %q: %w", receivedAt, err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating received collections: %w", err)
	}
	return results, nil
}
