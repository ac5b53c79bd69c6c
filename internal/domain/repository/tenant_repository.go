package repository

import (
	"context"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// TenantRepository lectura de la configuración fiscal del tenant.
type TenantRepository interface {
	// GetByID devuelve el tenant con su configuración fiscal (Fiscal nil si no existe), o nil.
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	// NextDPSNumber reserva el siguiente número de DPS del tenant (secuencia atómica).
	NextDPSNumber(ctx context.Context, tenantID string) (int64, error)
}
