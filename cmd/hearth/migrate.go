package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dukerupert/hearth/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and print their status",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	// Open applies pending migrations.
	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("path", cfg.DB.Path).Wrap(err)
	}
	defer db.Close()

	if err := database.Status(db); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "status").Wrap(err)
	}
	logger.Info("migrations applied", "path", cfg.DB.Path)
	return nil
}
