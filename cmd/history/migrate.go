package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/account-history/internal/config"
	"github.com/Veraticus/account-history/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the archive database schema to the latest version.

Builds run with --db migrate automatically; this command prepares a
database ahead of time or reports its schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetBool("status")
			return runMigrate(cmd, dbPath, status)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Archive database (default: database.path from config)")
	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, flagValue string, statusOnly bool) error {
	ctx := cmd.Context()

	dbPath, err := databasePath(flagValue)
	if err != nil {
		return err
	}

	slog.Info("Starting database migration",
		"database", dbPath,
		"status_only", statusOnly)

	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if statusOnly {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database:        %s\nCurrent version: %d\nLatest version:  %d\n",
			store.Path(), current, storage.ExpectedSchemaVersion)
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("✅ Database migrations completed successfully!", "version", storage.ExpectedSchemaVersion)
	return nil
}
