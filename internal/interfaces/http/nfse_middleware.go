package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rental-api/internal/application/dto"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
)

// nfseChecker es el contrato mínimo que necesita el middleware para verificar la funcionalidad.
// Lo implementa *nfse.FeatureChecker.
type nfseChecker interface {
	IsTenantNfseEnabled(ctx context.Context, tenantID string) (bool, error)
}

// RequireNfse verifica que el tenant del token tenga la emisión de NFS-e habilitada.
// Debe usarse DESPUÉS de AuthMiddleware (necesita LocalTenantID).
//
// Comportamiento:
//   - 401 si no hay tenant_id en el contexto.
//   - 403 NFSE_DISABLED si la funcionalidad no está habilitada.
//   - 503 si falla la consulta.
func RequireNfse(checker nfseChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID := GetTenantID(c)
		if tenantID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "tenant_id no encontrado en el token",
			})
		}

		enabled, err := checker.IsTenantNfseEnabled(c.UserContext(), tenantID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "NFSE_CHECK_FAILED",
				Message: "no se pudo verificar la funcionalidad, intente más tarde",
			})
		}

		if !enabled {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    domainnfse.CodeFeatureDisabled,
				Message: "la emisión de NFS-e no está habilitada para este tenant",
			})
		}

		return c.Next()
	}
}
