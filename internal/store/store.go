package store

import (
	"context"

	"rpitems/internal/catalog"
	"rpitems/internal/item"
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	SaveWorkspace(ctx context.Context, ws *catalog.Workspace) error
	LoadWorkspace(ctx context.Context) (*catalog.Workspace, error)

	SaveReceived(ctx context.Context, sender string, c *item.Collection) error
	LoadReceived(ctx context.Context, databaseID string) (*Received, error)
	ListReceived(ctx context.Context) ([]ReceivedSummary, error)

	GetImportRecords(ctx context.Context) (map[string]ImportRecord, error)
	RecordImport(ctx context.Context, rec ImportRecord) error
	RemoveStaleImports(ctx context.Context, currentFiles []string) (int64, error)
}
