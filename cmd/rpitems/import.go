package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rpitems/internal/ingest"
)

var importFull bool

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import markdown item files into the working collection",
		RunE:  runImport,
	}
	cmd.Flags().BoolVar(&importFull, "full", false, "Force full re-import (ignore file hashes)")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
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

	ws, err := db.LoadWorkspace(ctx)
	if err != nil {
		return err
	}
	result, err := ingest.Run(ctx, cfg, ws, db, ingest.Options{Full: importFull})
	if err != nil {
		return err
	}
	if err := db.SaveWorkspace(ctx, ws); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Import complete.")
	fmt.Fprintf(os.Stdout, "  Items added:     %d\n", result.ItemsAdded)
	fmt.Fprintf(os.Stdout, "  Items updated:   %d\n", result.ItemsUpdated)
	fmt.Fprintf(os.Stdout, "  Files skipped:   %d\n", result.FilesSkipped)
	fmt.Fprintf(os.Stdout, "  Records removed: %d\n", result.RecordsRemoved)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", e)
		}
		return fmt.Errorf("import completed with errors")
	}

	return nil
}
