package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
)

var _ repository.BookingRepository = (*BookingRepo)(nil)

// BookingRepo lectura de reservas con cliente e ítems.
type BookingRepo struct {
	db DBTX
}

// NewBookingRepository construye el adaptador.
func NewBookingRepository(db DBTX) *BookingRepo {
	return &BookingRepo{db: db}
}

// GetWithDetails obtiene la reserva del tenant con el cliente y los ítems, o nil.
func (r *BookingRepo) GetWithDetails(ctx context.Context, id, tenantID string) (*entity.Booking, error) {
	query := `
		SELECT b.id, b.tenant_id, b.number, b.customer_id, b.start_date, b.end_date,
		       b.total_price, b.created_at,
		       c.id, c.name, c.tax_id, c.email, c.phone, c.address
		FROM bookings b
		JOIN customers c ON c.id = b.customer_id
		WHERE b.id = ? AND b.tenant_id = ?`
	var b entity.Booking
	var c entity.Customer
	var start, end, created string
	var address sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&b.ID, &b.TenantID, &b.Number, &b.CustomerID, &start, &end,
		&b.TotalPrice, &created,
		&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &address,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b.StartDate, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("inicio de la reserva: %w", err)
	}
	if b.EndDate, err = parseTime(end); err != nil {
		return nil, fmt.Errorf("fin de la reserva: %w", err)
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	c.TenantID = b.TenantID
	if c.Address, err = parseAddress(address); err != nil {
		return nil, fmt.Errorf("dirección del cliente: %w", err)
	}
	b.Customer = &c

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, equipment_name, quantity, unit_price, subtotal
		FROM booking_items WHERE booking_id = ? ORDER BY position, equipment_name`, id)
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
