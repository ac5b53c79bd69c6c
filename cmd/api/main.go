package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Rental-api/internal/application/auth"
	appnfse "github.com/jhoicas/Rental-api/internal/application/nfse"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
	"github.com/jhoicas/Rental-api/internal/infrastructure/focusnfe"
	"github.com/jhoicas/Rental-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Rental-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/Rental-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/Rental-api/internal/interfaces/http"
	"github.com/jhoicas/Rental-api/pkg/config"
	"github.com/jhoicas/Rental-api/pkg/logger"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
	"github.com/jhoicas/Rental-api/pkg/tokencrypt"
)

type repositories struct {
	invoices repository.InvoiceRepository
	tenants  repository.TenantRepository
	bookings repository.BookingRepository
	users    repository.UserRepository
	tx       appnfse.TxRunner
	catalog  pkgnfse.Catalog
	close    func()
}

//go:generate go tool swag init --dir ./,../../internal/interfaces/http,../../internal/application/dto,../../internal/application/nfse --generalInfo main.go --output ../../docs --outputTypes json

// @title                       Rental NFS-e API
// @version                     1.0
// @description                 Emisión de NFS-e (Focus NFe) para locadoras de equipos.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer <token JWT>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}
	tokens, err := tokencrypt.New(cfg.Fiscal.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("FISCAL_ENCRYPTION_KEY inválida")
	}

	ctx := context.Background()
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("base de datos")
	}
	defer repos.close()

	focus := focusnfe.NewFactory(cfg.Fiscal.StagingURL, cfg.Fiscal.ProductionURL, cfg.Fiscal.HTTPTimeout())
	nfseSvc := appnfse.NewService(appnfse.ServiceDeps{
		Invoices: repos.invoices,
		Tenants:  repos.tenants,
		Bookings: repos.bookings,
		Catalog:  repos.catalog,
		Tokens:   tokens,
		Clients:  focus.ClientFactory(),
		Reports:  xlsx.NewReportWriter(),
		Tx:       repos.tx,
		Logger:   log,
	})

	authUC := auth.NewAuthUseCase(repos.users, repos.tenants, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// La emisión espera al proveedor; el timeout de escritura lo cubre.
		WriteTimeout: cfg.Fiscal.HTTPTimeout() + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Rental NFS-e API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Auth:             authUC,
		NFSe:             nfseSvc,
		JWTSecret:        cfg.JWT.Secret,
		EmailOnAuthorize: cfg.Fiscal.EmailOnAuthorize,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openRepositories conecta el driver configurado y carga el catálogo de NFS-e nacional.
func openRepositories(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repositories, error) {
	if cfg.DB.Driver == "sqlite" {
		db, err := sqlite.Open(ctx, cfg.DB.SQLitePath)
		if err != nil {
			return nil, err
		}
		catalog, err := sqlite.LoadCatalog(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		logCatalog(log, catalog)
		return &repositories{
			invoices: sqlite.NewInvoiceRepository(db),
			tenants:  sqlite.NewTenantRepository(db),
			bookings: sqlite.NewBookingRepository(db),
			users:    sqlite.NewUserRepository(db),
			tx:       sqlite.NewTxRunner(db),
			catalog:  catalog,
			close:    func() { db.Close() },
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	catalog, err := postgres.LoadCatalog(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	logCatalog(log, catalog)
	return &repositories{
		invoices: postgres.NewInvoiceRepository(pool),
		tenants:  postgres.NewTenantRepository(pool),
		bookings: postgres.NewBookingRepository(pool),
		users:    postgres.NewUserRepository(pool),
		tx:       postgres.NewTxRunner(pool),
		catalog:  catalog,
		close:    pool.Close,
	}, nil
}

func logCatalog(log *logger.Logger, c *pkgnfse.StaticCatalog) {
	munis, codes := c.Len()
	log.Info().Int("municipios", munis).Int("codigos", codes).Msg("catálogo NFS-e nacional cargado")
}
