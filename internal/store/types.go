package store

import (
	"fmt"
	"time"

	"rpitems/internal/item"
	"rpitems/internal/serial"
)

// Scopes of the items table.
const (
	ScopeWorking  = "working"
	ScopeSnapshot = "snapshot"
)

// StateNextID is the state key holding the local id counter.
const StateNextID = "next_id"

// Received is a collection completed by the sync receiver. The payload is kept
// in the wire serialization.
type Received struct {
	Sender     string
	Collection *item.Collection
	ReceivedAt time.Time
}

type ReceivedSummary struct {
	DatabaseID string
	Name       string
	Sender     string
	Version    int64
	Checksum   string
	Items      int
	ReceivedAt time.Time
}

// ImportRecord remembers which item a markdown file produced and the file hash
// at import time.
type ImportRecord struct {
	Path string
	Hash string
	GUID string
}

// ItemRow is one stored item with its local id.
type ItemRow struct {
	ID     int
	Record string
}

func EncodeItems(c *item.Collection) []ItemRow {
	ids := c.IDs()
	rows := make([]ItemRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, ItemRow{ID: id, Record: serial.SerializeItem(c.Items[id])})
	}
	return rows
}

func DecodeItems(rows []ItemRow, meta item.Metadata) (*item.Collection, error) {
	c := item.NewCollection()
	c.Metadata = meta
	for _, row := range rows {
		it, err := serial.DeserializeItem(row.Record)
		if err != nil {
			return nil, fmt.Errorf("decoding stored item %d: %w", row.ID, err)
		}
		c.Items[row.ID] = it
	}
	return c, nil
}

func EncodeReceived(c *item.Collection) string {
	return serial.SerializeCollection(c)
}

// DecodeReceived restores a received collection. Metadata comes from the
// stored columns, not the payload.
func DecodeReceived(payload string, meta item.Metadata) (*item.Collection, error) {
	c, err := serial.DeserializeCollection(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding received collection %s: %w", meta.ID, err)
	}
	c.Metadata = meta
	return c, nil
}
