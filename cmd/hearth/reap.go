package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/reaper"
)

// NewReapCmd creates the reap subcommand.
func NewReapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Delete abandoned homes and expired sessions once, then exit",
		RunE:  runReap,
	}
}

func runReap(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		return oops.Code("DB_OPEN_FAILED").With("path", cfg.DB.Path).Wrap(err)
	}
	defer db.Close()

	r := reaper.New(db, reaper.Config{
		Interval:  cfg.Reaper.Interval,
		Retention: cfg.Reaper.Retention,
	}, logger.With("component", "reaper"))

	res, err := r.Sweep(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("deleted %d abandoned homes, purged %d expired sessions\n", len(res.HomesDeleted), res.SessionsPurged)
	return nil
}
