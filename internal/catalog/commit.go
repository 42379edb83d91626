package catalog

import (
	"fmt"
	"strings"
	"time"

	"rpitems/internal/checksum"
	"rpitems/internal/dbsync"
	"rpitems/internal/guid"
	"rpitems/internal/item"
	"rpitems/internal/validate"
)

// Commit builds a snapshot of working. Validation runs before anything is
// copied. The metadata id is taken from previous so it stays stable across
// re-commits; an empty name keeps the previous name. Names too long for the
// START frame are rejected.
func Commit(working *item.Collection, name string, previous *item.Collection, now time.Time) (*item.Collection, error) {
	return commit(working, name, previous, now, guid.New)
}

func commit(working *item.Collection, name string, previous *item.Collection, now time.Time, newGUID func(string) string) (*item.Collection, error) {
	if working == nil {
		working = item.NewCollection()
	}
	if err := validate.Check(working); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	name = strings.TrimSpace(name)
	var id string
	if previous != nil {
		id = previous.Metadata.ID
		if name == "" {
			name = previous.Metadata.Name
		}
	}
	if name == "" {
		return nil, fmt.Errorf("committing: collection %w", ErrEmptyName)
	}
	if err := dbsync.CheckName(name, dbsync.DefaultMaxMessageBytes); err != nil {
		return nil, fmt.Errorf("committing: collection name: %w", err)
	}
	if id == "" {
		id = newGUID(name)
	}

	snapshot := working.Clone()
	snapshot.Metadata = item.Metadata{
		ID:       id,
		Name:     name,
		Version:  now.Unix(),
		Checksum: checksum.Collection(snapshot),
	}
	return snapshot, nil
}
