package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rpitems/internal/catalog"
	"rpitems/internal/item"
	"rpitems/internal/validate"
)

func commitCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Validate the working collection and commit a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Collection name (defaults to the previous name, then the project name)")
	return cmd
}

func runCommit(name string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	var snapshot *item.Collection
	err = withWorkspace(ctx, db, func(ws *catalog.Workspace) error {
		if name == "" && ws.Snapshot == nil {
			name = cfg.Project
		}
		snapshot, err = ws.Commit(name, time.Now())
		return err
	})
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(verr.Issues))
			printIssues(os.Stdout, verr.Issues)
		}
		return err
	}

	log.Infof("action: commit | result: success | id: %s | version: %d | checksum: %s | items: %d",
		snapshot.Metadata.ID, snapshot.Metadata.Version, snapshot.Metadata.Checksum, snapshot.Len())
	fmt.Fprintf(os.Stdout, "%s %s v%d %s (%d items)\n",
		snapshot.Metadata.ID, snapshot.Metadata.Name, snapshot.Metadata.Version, snapshot.Metadata.Checksum, snapshot.Len())
	return nil
}
