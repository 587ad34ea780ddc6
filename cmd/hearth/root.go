package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the hearth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hearth",
		Short:         "Hearth - shared homes, rooms and chores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewReapCmd())

	return cmd
}

// setup loads the configuration for cmd and installs the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.Setup(cfg.Log.Level, cfg.Log.Format), nil
}
