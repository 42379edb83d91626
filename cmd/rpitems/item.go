package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rpitems/internal/catalog"
	"rpitems/internal/item"
)

func itemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Edit items in the working collection",
	}
	cmd.AddCommand(itemAddCmd())
	cmd.AddCommand(itemListCmd())
	cmd.AddCommand(itemShowCmd())
	cmd.AddCommand(itemRemoveCmd())
	cmd.AddCommand(itemRenameCmd())
	return cmd
}

func itemAddCmd() *cobra.Command {
	var it item.Item
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it.Name = args[0]
			return runItemAdd(it)
		},
	}
	cmd.Flags().StringVar(&it.GUID, "guid", "", "Explicit guid (generated when empty)")
	cmd.Flags().StringVar(&it.Icon, "icon", "", "Icon texture name")
	cmd.Flags().StringVar(&it.Tooltip, "tooltip", "", "Tooltip text")
	cmd.Flags().StringVar(&it.Content, "content", "", "Display text")
	cmd.Flags().StringVar(&it.ContentTemplate, "template", "", "Content template containing "+item.TemplatePlaceholder)
	cmd.Flags().IntVar(&it.InitialCounter, "counter", 0, "Initial instance counter")
	return cmd
}

func runItemAdd(it item.Item) error {
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

	var id int
	err = withWorkspace(ctx, db, func(ws *catalog.Workspace) error {
		id, err = ws.AddItem(it)
		if err != nil {
			return err
		}
		it, err = ws.Item(id)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%d %s\n", id, it.GUID)
	return nil
}

func itemListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List working items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemList()
		},
	}
}

func runItemList() error {
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
	entries := ws.Items()
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No items found.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%4d  %s  %s\n", e.ID, e.Item.GUID, e.Item.Name)
	}
	if ws.Dirty() {
		fmt.Fprintln(os.Stdout, "\nUncommitted changes.")
	}
	return nil
}

func itemShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a working item with its actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runItemShow(id)
		},
	}
}

func runItemShow(id int) error {
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
	it, err := ws.Item(id)
	if err != nil {
		return err
	}
	printItem(it)
	return nil
}

func printItem(it item.Item) {
	fmt.Fprintf(os.Stdout, "Name:     %s\n", it.Name)
	fmt.Fprintf(os.Stdout, "GUID:     %s\n", it.GUID)
	if it.Icon != "" {
		fmt.Fprintf(os.Stdout, "Icon:     %s\n", it.Icon)
	}
	if it.Tooltip != "" {
		fmt.Fprintf(os.Stdout, "Tooltip:  %s\n", it.Tooltip)
	}
	if it.ContentTemplate != "" {
		fmt.Fprintf(os.Stdout, "Template: %s\n", it.ContentTemplate)
	}
	fmt.Fprintf(os.Stdout, "Counter:  %d\n", it.InitialCounter)
	if it.Content != "" {
		fmt.Fprintf(os.Stdout, "\n%s\n", it.Content)
	}
	if len(it.Actions) == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "\nActions (%d):\n", len(it.Actions))
	for _, a := range it.Actions {
		var methods []string
		for _, m := range a.Methods {
			methods = append(methods, formatMethod(m))
		}
		fmt.Fprintf(os.Stdout, "  - %s %q: %s\n", a.ID, a.Label, strings.Join(methods, ", "))
	}
}

func itemRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a working item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runItemEdit(func(ws *catalog.Workspace) error {
				return ws.RemoveItem(id)
			})
		},
	}
}

func itemRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename an item and give it a new guid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var guid string
			err = runItemEdit(func(ws *catalog.Workspace) error {
				guid, err = ws.Rename(id, args[1])
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%d %s\n", id, guid)
			return nil
		},
	}
}

func runItemEdit(fn func(ws *catalog.Workspace) error) error {
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

	return withWorkspace(ctx, db, fn)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item id: %s", s)
	}
	return id, nil
}
