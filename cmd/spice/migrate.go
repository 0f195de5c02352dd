package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-sort/internal/cli"
	"github.com/Veraticus/the-spice-must-sort/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Bring the ledger database schema up to date.`,
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the schema version without migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	if status, _ := cmd.Flags().GetBool("status"); !status {
		slog.Info("Running database migrations", "path", settings.DatabasePath)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Schema version %d of %d", version, storage.ExpectedSchemaVersion)
	if version == storage.ExpectedSchemaVersion {
		fmt.Fprintln(out, cli.FormatSuccess(msg))
	} else {
		fmt.Fprintln(out, cli.FormatWarning(msg+"; run `spice migrate`"))
	}
	return nil
}
