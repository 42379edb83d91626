package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rpitems/internal/config"
	"rpitems/internal/dbsync"
	"rpitems/internal/store"
)

func framesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frames",
		Short: "Print the sync frames of the committed snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			frames, err := snapshotFrames(ctx, cfg, db)
			if err != nil {
				return err
			}
			for _, frame := range frames {
				fmt.Fprintln(os.Stdout, frame)
			}
			return nil
		},
	}
}

func snapshotFrames(ctx context.Context, cfg *config.ProjectConfig, db store.Store) ([]string, error) {
	ws, err := db.LoadWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := ws.Committed()
	if err != nil {
		return nil, err
	}
	if ws.Dirty() {
		log.Warningf("action: build_frames | result: success | reason: working collection has uncommitted changes")
	}
	sender := dbsync.NewSender(cfg.Transport.ChunkSize)
	sender.MaxMessageBytes = cfg.Transport.MaxMessageBytes
	return sender.BuildSyncFrames(snapshot)
}
