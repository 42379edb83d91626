package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rpitems/internal/channel"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Publish the committed snapshot on the transport channel",
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

			ch, err := openChannel(ctx, cfg)
			if err != nil {
				return err
			}
			defer ch.Close()

			if err := channel.SendAll(ctx, ch, frames, cfg.Transport.SendInterval); err != nil {
				return err
			}
			log.Infof("action: sync | result: success | channel: %s | frames: %d", cfg.Transport.Channel, len(frames))
			fmt.Fprintf(os.Stdout, "Sent %d frames.\n", len(frames))
			return nil
		},
	}
}
