package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Rental-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Rental-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/Rental-api/pkg/config"
	"github.com/jhoicas/Rental-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "nfsectl",
	Short:         "Herramientas de operación de NFS-e",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute corre el comando raíz.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name}).WithComponent("nfsectl")
	return cfg, log, nil
}

// scriptRunner ejecuta un script SQL de varias sentencias en el driver configurado.
type scriptRunner struct {
	exec  func(ctx context.Context, script string) error
	close func()
}

func openRunner(ctx context.Context, cfg *config.Config) (*scriptRunner, error) {
	if cfg.DB.Driver == "sqlite" {
		db, err := sqlite.Open(ctx, cfg.DB.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &scriptRunner{
			exec: func(ctx context.Context, script string) error {
				_, err := db.ExecContext(ctx, script)
				return err
			},
			close: func() { db.Close() },
		}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &scriptRunner{
		exec: func(ctx context.Context, script string) error {
			_, err := pool.Exec(ctx, script)
			return err
		},
		close: pool.Close,
	}, nil
}
