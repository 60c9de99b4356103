package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			// Opening the store applies pending migrations.
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			slog.Info("Migrations applied", "driver", cfg.Database.Driver)
			return nil
		},
	}
}
