package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking reserva de equipos (la transacción que se factura).
type Booking struct {
	ID         string
	TenantID   string
	Number     string
	CustomerID string
	StartDate  time.Time
	EndDate    time.Time
	TotalPrice decimal.Decimal
	Customer   *Customer
	Items      []BookingItem
	CreatedAt  time.Time
}

// BookingItem línea de la reserva.
type BookingItem struct {
	ID            string
	EquipmentName string
	Quantity      int
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
}
