package ingest

import (
	"context"

	"rpitems/internal/store"
)

// Store is the part of the persistence layer the importer needs.
type Store interface {
	GetImportRecords(ctx context.Context) (map[string]store.ImportRecord, error)
	RecordImport(ctx context.Context, rec store.ImportRecord) error
	RemoveStaleImports(ctx context.Context, currentFiles []string) (int64, error)
}

type Result struct {
	ItemsAdded     int
	ItemsUpdated   int
	FilesSkipped   int
	RecordsRemoved int
	Errors         []error
}

type Options struct {
	Full bool
}
