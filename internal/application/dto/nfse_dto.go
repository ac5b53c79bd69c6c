package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// CreateInvoiceRequest body para POST /api/nfse/bookings/:bookingId/invoice.
// SendEmail nil usa el valor por defecto del servidor (NFSE_EMAIL_ON_AUTHORIZE).
type CreateInvoiceRequest struct {
	SendEmail *bool `json:"send_email,omitempty"`
}

// CancelInvoiceRequest body para POST /api/nfse/invoices/:id/cancel.
type CancelInvoiceRequest struct {
	Justificativa string `json:"justificativa"`
}

// SendEmailRequest body para POST /api/nfse/invoices/:id/email.
// Vacío reenvía al email del tomador.
type SendEmailRequest struct {
	Emails []string `json:"emails"`
}

// TemplateRequest body de validación y previsualización de plantillas.
type TemplateRequest struct {
	Template  string `json:"template"`
	BookingID string `json:"booking_id,omitempty"`
}

// TemplatePreviewResponse texto renderizado.
type TemplatePreviewResponse struct {
	Description string `json:"description"`
}

// InvoiceFilterRequest query de GET /api/nfse/invoices.
type InvoiceFilterRequest struct {
	Limit     int    `query:"limit"`
	Offset    int    `query:"offset"`
	Status    string `query:"status"`
	BookingID string `query:"booking_id"`
	From      string `query:"from"` // YYYY-MM-DD
	To        string `query:"to"`
}

// Page devuelve la paginación normalizada.
func (r InvoiceFilterRequest) Page() PageRequest {
	p := PageRequest{Limit: r.Limit, Offset: r.Offset}
	p.Normalize()
	return p
}

// AddressResponse dirección del tomador.
type AddressResponse struct {
	Logradouro      string `json:"logradouro"`
	Numero          string `json:"numero"`
	Complemento     string `json:"complemento,omitempty"`
	Bairro          string `json:"bairro"`
	Cidade          string `json:"cidade,omitempty"`
	UF              string `json:"uf"`
	CEP             string `json:"cep"`
	CodigoMunicipio string `json:"codigo_municipio"`
}

// InvoiceResponse NFS-e en respuestas.
type InvoiceResponse struct {
	ID               string           `json:"id"`
	TenantID         string           `json:"tenant_id"`
	BookingID        string           `json:"booking_id"`
	Reference        string           `json:"reference"`
	Number           string           `json:"number,omitempty"`
	VerificationCode string           `json:"verification_code,omitempty"`
	Status           string           `json:"status"`
	Schema           string           `json:"schema"`
	ServiceValue     decimal.Decimal  `json:"service_value"`
	TotalValue       decimal.Decimal  `json:"total_value"`
	TaxRate          decimal.Decimal  `json:"tax_rate"`
	TaxAmount        decimal.Decimal  `json:"tax_amount"`
	TaxWithheld      bool             `json:"tax_withheld"`
	Description      string           `json:"description"`
	ServiceCode      string           `json:"service_code,omitempty"`
	TakerName        string           `json:"taker_name"`
	TakerTaxID       string           `json:"taker_tax_id"`
	TakerEmail       string           `json:"taker_email,omitempty"`
	TakerAddress     *AddressResponse `json:"taker_address,omitempty"`
	XMLURL           string           `json:"xml_url,omitempty"`
	PDFURL           string           `json:"pdf_url,omitempty"`
	ErrorCode        string           `json:"error_code,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	ProviderErrors   json.RawMessage  `json:"provider_errors,omitempty"`
	RetryCount       int              `json:"retry_count"`
	EmittedAt        *time.Time       `json:"emitted_at,omitempty"`
	CancelledAt      *time.Time       `json:"cancelled_at,omitempty"`
	CancelReason     string           `json:"cancel_reason,omitempty"`
	LastSentAt       *time.Time       `json:"last_sent_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// InvoiceFromEntity convierte la entidad al DTO de respuesta.
func InvoiceFromEntity(inv *entity.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	out := &InvoiceResponse{
		ID:               inv.ID,
		TenantID:         inv.TenantID,
		BookingID:        inv.BookingID,
		Reference:        inv.Reference,
		Number:           inv.Number,
		VerificationCode: inv.VerificationCode,
		Status:           string(inv.Status),
		Schema:           inv.Schema,
		ServiceValue:     inv.ServiceValue,
		TotalValue:       inv.TotalValue,
		TaxRate:          inv.TaxRate,
		TaxAmount:        inv.TaxAmount,
		TaxWithheld:      inv.TaxWithheld,
		Description:      inv.Description,
		ServiceCode:      inv.ServiceCode,
		TakerName:        inv.TakerName,
		TakerTaxID:       inv.TakerTaxID,
		TakerEmail:       inv.TakerEmail,
		XMLURL:           inv.XMLURL,
		PDFURL:           inv.PDFURL,
		ErrorCode:        inv.ErrorCode,
		ErrorMessage:     inv.ErrorMessage,
		RetryCount:       inv.RetryCount,
		EmittedAt:        inv.EmittedAt,
		CancelledAt:      inv.CancelledAt,
		CancelReason:     inv.CancelReason,
		LastSentAt:       inv.LastSentAt,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
	if inv.ProviderErrors != "" && json.Valid([]byte(inv.ProviderErrors)) {
		out.ProviderErrors = json.RawMessage(inv.ProviderErrors)
	}
	if a := inv.TakerAddress; a != nil {
		out.TakerAddress = &AddressResponse{
			Logradouro:      a.Street,
			Numero:          a.Number,
			Complemento:     a.Complement,
			Bairro:          a.District,
			Cidade:          a.City,
			UF:              a.UF,
			CEP:             a.CEP,
			CodigoMunicipio: a.MunicipalityCode,
		}
	}
	return out
}

// InvoiceListResponse listado paginado.
type InvoiceListResponse struct {
	Items []*InvoiceResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// EmissionResponse resultado de una emisión. Success=false con la NFS-e persistida en ERROR o REJECTED.
type EmissionResponse struct {
	Success    bool             `json:"success"`
	Invoice    *InvoiceResponse `json:"invoice,omitempty"`
	Error      *ErrorResponse   `json:"error,omitempty"`
	EmailError string           `json:"email_error,omitempty"`
}
