package repository

import (
	"context"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia de las NFS-e.
// Todas las lecturas filtran por tenant además del identificador.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update persiste estado, datos de la autoridad, errores y timestamps.
	// Los campos asignados por la autoridad nunca se sobrescriben con vacío.
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id, tenantID string) (*entity.Invoice, error)
	GetByReference(ctx context.Context, reference, tenantID string) (*entity.Invoice, error)
	ListByTenant(ctx context.Context, tenantID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
	// ActiveForBooking devuelve la NFS-e de la reserva que bloquea una nueva emisión
	// (PENDING, PROCESSING, AUTHORIZED o ERROR), o nil.
	ActiveForBooking(ctx context.Context, bookingID, tenantID string) (*entity.Invoice, error)
}
