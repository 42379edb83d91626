package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rpitems/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var player string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new rpitems project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			if strings.TrimSpace(player) == "" {
				return fmt.Errorf("--player is required")
			}
			return runInit(projectName, player)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&player, "player", "", "Local character name")
	return cmd
}

func runInit(projectName, player string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	contents, err := config.Scaffold(projectName, player)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, contents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.MkdirAll("items", 0o755); err != nil {
		return fmt.Errorf("creating items directory: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Created %s\n", configPath)
	return nil
}
