package main

import (
	"context"
	"fmt"

	"github.com/op/go-logging"

	"rpitems/internal/catalog"
	"rpitems/internal/config"
	"rpitems/internal/logger"
	"rpitems/internal/store"
	"rpitems/internal/store/postgres"
	"rpitems/internal/store/sqlite"
)

var log = logging.MustGetLogger(logger.Module)

// loadConfig reads the project file and installs the logging backend.
func loadConfig() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if err := logger.Init(level); err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	driver, err := config.DatabaseDriver(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	var db store.Store
	switch driver {
	case "postgres":
		db, err = postgres.New(ctx, cfg.Database.DSN)
	default:
		db, err = sqlite.New(ctx, cfg.Database.DSN)
	}
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// withWorkspace loads the workspace, applies fn and saves the result when fn
// succeeds.
func withWorkspace(ctx context.Context, db store.Store, fn func(ws *catalog.Workspace) error) error {
	ws, err := db.LoadWorkspace(ctx)
	if err != nil {
		return err
	}
	if err := fn(ws); err != nil {
		return err
	}
	return db.SaveWorkspace(ctx, ws)
}
