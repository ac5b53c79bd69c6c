package nfse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
)

// TemplateValidation resultado de validar una plantilla de descripción.
type TemplateValidation struct {
	Valid     bool     `json:"valid"`
	Unknown   []string `json:"unknown_variables"`
	Variables []string `json:"available_variables"`
}

// ValidateTemplate reporta las variables desconocidas de la plantilla.
func ValidateTemplate(tpl string) TemplateValidation {
	unknown := domainnfse.ValidateTemplate(tpl)
	return TemplateValidation{
		Valid:     len(unknown) == 0,
		Unknown:   unknown,
		Variables: domainnfse.TemplateVariables,
	}
}

// PreviewDescription aplica la plantilla a una reserva real del tenant o, si bookingID está
// vacío, a una reserva de ejemplo. Plantilla vacía usa la configurada o la por defecto.
func (s *Service) PreviewDescription(ctx context.Context, tenantID, tpl, bookingID string) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		tenant, err := s.tenants.GetByID(ctx, tenantID)
		if err != nil {
			return "", fmt.Errorf("consultar tenant: %w", err)
		}
		if tenant != nil && tenant.Fiscal != nil {
			tpl = tenant.Fiscal.DescriptionTemplate
		}
	}
	if unknown := domainnfse.ValidateTemplate(tpl); len(unknown) > 0 {
		return "", &domainnfse.InvalidRequestError{
			Field:   "template",
			Message: "variables desconocidas: " + strings.Join(unknown, ", "),
		}
	}

	booking := SampleBooking()
	if bookingID != "" {
		b, err := s.bookings.GetWithDetails(ctx, bookingID, tenantID)
		if err != nil {
			return "", fmt.Errorf("consultar reserva: %w", err)
		}
		if b == nil {
			return "", &domainnfse.InvoiceNotFoundError{ID: bookingID}
		}
		booking = b
	}
	return domainnfse.RenderDescription(tpl, booking), nil
}

// SampleBooking reserva ficticia para previsualizar plantillas.
func SampleBooking() *entity.Booking {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &entity.Booking{
		Number:    "R-0001",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 4),
		Customer:  &entity.Customer{Name: "Construtora Exemplo Ltda"},
		Items: []entity.BookingItem{
			{EquipmentName: "Betoneira 400L", Quantity: 1, UnitPrice: decimal.RequireFromString("350.00"), Subtotal: decimal.RequireFromString("350.00")},
			{EquipmentName: "Andaime tubular", Quantity: 10, UnitPrice: decimal.RequireFromString("12.50"), Subtotal: decimal.RequireFromString("125.00")},
		},
		TotalPrice: decimal.RequireFromString("475.00"),
	}
}
