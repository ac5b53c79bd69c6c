package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Rental-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Rental-api/internal/infrastructure/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica el esquema de NFS-e en la base configurada (DB_DRIVER)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if cfg.DB.Driver == "sqlite" {
			// Open aplica el esquema embebido.
			db, err := sqlite.Open(ctx, cfg.DB.SQLitePath)
			if err != nil {
				return err
			}
			db.Close()
			log.Info().Str("path", cfg.DB.SQLitePath).Msg("esquema sqlite aplicado")
			return nil
		}

		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		for _, name := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), "aplicada:", name)
		}
		log.Info().Int("scripts", len(applied)).Msg("migraciones aplicadas")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
