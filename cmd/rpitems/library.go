package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rpitems/internal/catalog"
)

func libraryCmd() *cobra.Command {
	var databaseID string
	var all bool
	cmd := &cobra.Command{
		Use:   "library",
		Short: "List received collections or the items of one",
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

			if all {
				summaries, err := db.ListReceived(ctx)
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					fmt.Fprintln(os.Stdout, "No received collections.")
					return nil
				}
				for _, s := range summaries {
					fmt.Fprintf(os.Stdout, "%s  %s v%d %s (%d items, from %s)\n", s.DatabaseID, s.Name, s.Version, s.Checksum, s.Items, s.Sender)
				}
				return nil
			}

			received, err := db.LoadReceived(ctx, databaseID)
			if err != nil {
				return err
			}
			if received == nil {
				fmt.Fprintln(os.Stdout, "No received collections.")
				return nil
			}
			lib := catalog.NewLibrary(received.Collection)
			meta := lib.Metadata()
			fmt.Fprintf(os.Stdout, "%s %s v%d (%d items)\n", meta.ID, meta.Name, meta.Version, lib.Len())
			for _, it := range lib.Items() {
				fmt.Fprintf(os.Stdout, "  %s  %s\n", it.GUID, it.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseID, "db", "", "Received database id (latest when empty)")
	cmd.Flags().BoolVar(&all, "all", false, "List every received collection")
	return cmd
}
