package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rental-api/internal/application/auth"
	appnfse "github.com/jhoicas/Rental-api/internal/application/nfse"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// Roles del token.
const (
	RoleOwner    = entity.RoleOwner
	RoleAdmin    = entity.RoleAdmin
	RoleOperator = entity.RoleOperator
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Auth             *auth.AuthUseCase
	NFSe             *appnfse.Service
	JWTSecret        string
	EmailOnAuthorize bool
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	authHandler := NewAuthHandler(deps.Auth)
	// Público; se registra antes del grupo protegido.
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	nfseHandler := NewNfseHandler(deps.NFSe, deps.EmailOnAuthorize)
	nfse := protected.Group("/nfse")
	requireNfse := RequireNfse(deps.NFSe.Feature())
	managers := RequireRole(RoleOwner, RoleAdmin)

	protected.Post("/auth/users", managers, authHandler.Register)

	nfse.Get("/preflight", nfseHandler.Preflight)

	// Emisión (requiere la funcionalidad habilitada)
	nfse.Post("/bookings/:bookingId/invoice", requireNfse, nfseHandler.CreateFromBooking)
	nfse.Post("/invoices/:id/retry", requireNfse, nfseHandler.Retry)

	// Consulta y gestión
	nfse.Get("/invoices", nfseHandler.List)
	nfse.Get("/invoices/export.xlsx", nfseHandler.Export)
	nfse.Get("/invoices/:id", nfseHandler.GetByID)
	nfse.Post("/invoices/:id/sync", nfseHandler.Sync)
	nfse.Post("/invoices/:id/cancel", managers, nfseHandler.Cancel)
	nfse.Post("/invoices/:id/email", nfseHandler.SendEmail)

	// Plantillas de descripción
	nfse.Post("/templates/validate", nfseHandler.ValidateTemplate)
	nfse.Post("/templates/preview", nfseHandler.PreviewTemplate)
}
