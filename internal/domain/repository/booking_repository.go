package repository

import (
	"context"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// BookingRepository lectura de reservas con cliente e ítems.
type BookingRepository interface {
	// GetWithDetails devuelve la reserva con Customer (y dirección) e Items, o nil si no existe.
	GetWithDetails(ctx context.Context, id, tenantID string) (*entity.Booking, error)
}
