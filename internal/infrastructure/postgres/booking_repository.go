package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
)

var _ repository.BookingRepository = (*BookingRepo)(nil)

// BookingRepo lectura de reservas con cliente e ítems.
type BookingRepo struct {
	q Querier
}

// NewBookingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBookingRepository(q Querier) *BookingRepo {
	return &BookingRepo{q: q}
}

// GetWithDetails obtiene la reserva del tenant con el cliente y los ítems, o nil.
func (r *BookingRepo) GetWithDetails(ctx context.Context, id, tenantID string) (*entity.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `
		SELECT b.id::text, b.tenant_id::text, b.number, b.customer_id::text, b.start_date, b.end_date,
		       b.total_price, b.created_at,
		       c.id::text, c.name, c.tax_id, c.email, c.phone, c.address::text
		FROM bookings b
		JOIN customers c ON c.id = b.customer_id
		WHERE b.id = $1 AND b.tenant_id = $2`
	var b entity.Booking
	var c entity.Customer
	var address *string
	err := r.q.QueryRow(ctx, query, id, tenantID).Scan(
		&b.ID, &b.TenantID, &b.Number, &b.CustomerID, &b.StartDate, &b.EndDate,
		&b.TotalPrice, &b.CreatedAt,
		&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	c.TenantID = b.TenantID
	if c.Address, err = parseAddress(address); err != nil {
		return nil, fmt.Errorf("dirección del cliente: %w", err)
	}
	b.Customer = &c

	rows, err := r.q.Query(ctx, `
		SELECT id::text, equipment_name, quantity, unit_price, subtotal
		FROM booking_items WHERE booking_id = $1 ORDER BY position, equipment_name`, id)
	if err != nil {
		return nil, fmt.Errorf("list booking items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.BookingItem
		if err := rows.Scan(&it.ID, &it.EquipmentName, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan booking item: %w", err)
		}
		b.Items = append(b.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list booking items: %w", err)
	}
	return &b, nil
}
