package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"rpitems/internal/item"
	"rpitems/internal/store"
)

func (c *Client) SaveReceived(ctx context.Context, sender string, coll *item.Collection) error {
	meta := coll.Metadata
	if meta.ID == "" {
		return fmt.Errorf("saving received collection: database id is required")
	}

	query := `
INSERT INTO received (db_id, name, sender, version, checksum, item_count, payload, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (db_id) DO UPDATE SET
    name = EXCLUDED.name,
    sender = EXCLUDED.sender,
    version = EXCLUDED.version,
    checksum = EXCLUDED.checksum,
    item_count = EXCLUDED.item_count,
    payload = EXCLUDED.payload,
    received_at = EXCLUDED.received_at
`
	_, err := c.pool.Exec(ctx, query,
		meta.ID,
		meta.Name,
		sender,
		meta.Version,
		meta.Checksum,
		coll.Len(),
		store.EncodeReceived(coll),
		c.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving received collection: %w", err)
	}
	return nil
}

func (c *Client) LoadReceived(ctx context.Context, databaseID string) (*store.Received, error) {
	query := `
SELECT db_id, name, sender, version, checksum, payload, received_at
FROM received
WHERE $1 = '' OR db_id = $1
ORDER BY received_at DESC
LIMIT 1
`
	var (
		meta     item.Metadata
		received store.Received
		payload  string
	)
	err := c.pool.QueryRow(ctx, query, databaseID).Scan(
		&meta.ID, &meta.Name, &received.Sender, &meta.Version, &meta.Checksum, &payload, &received.ReceivedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading received collection: %w", err)
	}

	coll, err := store.DecodeReceived(payload, meta)
	if err != nil {
		return nil, err
	}
	received.Collection = coll
	return &received, nil
}

func (c *Client) ListReceived(ctx context.Context) ([]store.ReceivedSummary, error) {
	rows, err := c.pool.Query(ctx, `
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
			s     store.ReceivedSummary
			count int32
		)
		if err := rows.Scan(&s.DatabaseID, &s.Name, &s.Sender, &s.Version, &s.Checksum, &count, &s.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scanning received collection: %w", err)
		}
		s.Items = int(count)
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating received collections: %w", err)
	}
	return results, nil
}
