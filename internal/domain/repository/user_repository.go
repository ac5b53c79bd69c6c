package repository

import (
	"context"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	// Create devuelve domain.ErrDuplicate si el email ya existe.
	Create(ctx context.Context, user *entity.User) error
	// GetByEmail devuelve nil si no existe. El email es único en todo el sistema.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}
