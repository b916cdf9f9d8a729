package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
	"github.com/jirafa27/DocumentSearcher/internal/shared/storage/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB) error {
					return db.RunMigrations(ctx, sqlDB)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB) error {
					return db.RollbackMigration(ctx, sqlDB)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB) error {
					if err := db.MigrationStatus(ctx, sqlDB); err != nil {
						return err
					}
					version, err := db.MigrationVersion(ctx, sqlDB)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
					return nil
				})
			},
		},
	)
	return cmd
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()
	return fn(ctx, sqlDB)
}
