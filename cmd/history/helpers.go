package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/account-history/internal/config"
	"github.com/Veraticus/account-history/internal/storage"
)

// openStore opens the archive at dbPath and brings its schema up to date.
func openStore(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// databasePath prefers an explicit --db flag over the configured archive.
func databasePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	cfg, err := currentConfig()
	if err != nil {
		return "", err
	}
	return cfg.Database.Path, nil
}
