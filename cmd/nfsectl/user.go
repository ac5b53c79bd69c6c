package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Rental-api/internal/application/auth"
	"github.com/jhoicas/Rental-api/internal/application/dto"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Rental-api/internal/infrastructure/sqlite"
)

var userFlags struct {
	tenant   string
	email    string
	password string
	name     string
	role     string
}

// create-user da de alta el primer owner del tenant; los siguientes se crean por la API.
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Crea un usuario del tenant (por defecto owner)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var uc *auth.AuthUseCase
		jwtCfg := auth.JWTConfig{Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer}
		if cfg.DB.Driver == "sqlite" {
			db, err := sqlite.Open(ctx, cfg.DB.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()
			uc = auth.NewAuthUseCase(sqlite.NewUserRepository(db), sqlite.NewTenantRepository(db), jwtCfg)
		} else {
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			uc = auth.NewAuthUseCase(postgres.NewUserRepository(pool), postgres.NewTenantRepository(pool), jwtCfg)
		}

		user, err := uc.RegisterUser(ctx, userFlags.tenant, dto.RegisterRequest{
			Email:    userFlags.email,
			Password: userFlags.password,
			Name:     userFlags.name,
			Role:     userFlags.role,
		})
		if err != nil {
			return fmt.Errorf("crear usuario: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", user.ID, user.Email, user.Role)
		log.Info().Str("tenant_id", user.TenantID).Str("role", user.Role).Msg("usuario creado")
		return nil
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&userFlags.tenant, "tenant", "", "ID del tenant")
	f.StringVar(&userFlags.email, "email", "", "email de acceso")
	f.StringVar(&userFlags.password, "password", "", "contraseña (mínimo 8 caracteres)")
	f.StringVar(&userFlags.name, "name", "", "nombre visible")
	f.StringVar(&userFlags.role, "role", entity.RoleOwner, "owner | admin | operator")
	_ = createUserCmd.MarkFlagRequired("tenant")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createUserCmd)
}
