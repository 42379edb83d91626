package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:          "rpitems",
		Short:        "Author, sync and hand out roleplay items",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "rpitems.yaml", "Project config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (DEBUG, INFO, WARNING, ERROR)")
	root.AddCommand(initCmd())
	root.AddCommand(itemCmd())
	root.AddCommand(actionCmd())
	root.AddCommand(importCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(commitCmd())
	root.AddCommand(framesCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(listenCmd())
	root.AddCommand(giveCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(libraryCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
