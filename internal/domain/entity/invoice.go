package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de la NFS-e en el ciclo de autorización.
type InvoiceStatus string

const (
	InvoiceStatusPending    InvoiceStatus = "PENDING"    // Persistida, aún no enviada
	InvoiceStatusProcessing InvoiceStatus = "PROCESSING" // Enviada, el proveedor procesa
	InvoiceStatusAuthorized InvoiceStatus = "AUTHORIZED" // Autorizada por la prefeitura
	InvoiceStatusRejected   InvoiceStatus = "REJECTED"   // Rechazada (erro_autorizacao)
	InvoiceStatusCancelled  InvoiceStatus = "CANCELLED"
	InvoiceStatusError      InvoiceStatus = "ERROR" // Falló el envío; recuperable con reintento
)

// Esquema de payload usado en la emisión.
const (
	InvoiceSchemaMunicipal = "municipal"
	InvoiceSchemaNational  = "nacional"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending:    {InvoiceStatusProcessing, InvoiceStatusAuthorized, InvoiceStatusRejected, InvoiceStatusError},
	InvoiceStatusProcessing: {InvoiceStatusAuthorized, InvoiceStatusRejected, InvoiceStatusCancelled},
	InvoiceStatusAuthorized: {InvoiceStatusCancelled},
	InvoiceStatusError:      {InvoiceStatusProcessing, InvoiceStatusAuthorized, InvoiceStatusRejected, InvoiceStatusError},
}

// CanTransitionTo indica si el cambio de estado avanza en el ciclo de vida.
// Quedarse en el mismo estado siempre es válido.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsSettled indica estados que no requieren consultar al proveedor.
func (s InvoiceStatus) IsSettled() bool {
	return s == InvoiceStatusAuthorized || s == InvoiceStatusCancelled || s == InvoiceStatusRejected
}

// Valid indica si el valor es un estado conocido.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusProcessing, InvoiceStatusAuthorized,
		InvoiceStatusRejected, InvoiceStatusCancelled, InvoiceStatusError:
		return true
	}
	return false
}

// Invoice NFS-e emitida a partir de una reserva.
// Los datos del tomador son una foto al momento de la emisión, independiente del cliente.
type Invoice struct {
	ID        string
	TenantID  string
	BookingID string

	Reference        string // ref enviada al proveedor (clave de idempotencia)
	Number           string // número asignado por la prefeitura
	VerificationCode string
	Status           InvoiceStatus
	Schema           string // municipal | nacional

	ServiceValue decimal.Decimal
	TotalValue   decimal.Decimal
	TaxRate      decimal.Decimal // porcentaje ISS, ej. 2.00
	TaxAmount    decimal.Decimal
	TaxWithheld  bool

	Description string
	ServiceCode string

	TakerName    string
	TakerTaxID   string
	TakerEmail   string
	TakerAddress *Address

	XMLURL string
	PDFURL string

	ErrorCode      string
	ErrorMessage   string
	ProviderErrors string // JSON con los erros[] del proveedor
	RetryCount     int

	EmittedAt    *time.Time
	CancelledAt  *time.Time
	CancelReason string
	LastSentAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CaptureAuthority copia los datos asignados por la autoridad sin borrar los ya capturados.
func (inv *Invoice) CaptureAuthority(number, verificationCode, xmlURL, pdfURL string) {
	if number != "" {
		inv.Number = number
	}
	if verificationCode != "" {
		inv.VerificationCode = verificationCode
	}
	if xmlURL != "" {
		inv.XMLURL = xmlURL
	}
	if pdfURL != "" {
		inv.PDFURL = pdfURL
	}
}

// ClearError limpia el último error registrado.
func (inv *Invoice) ClearError() {
	inv.ErrorCode = ""
	inv.ErrorMessage = ""
	inv.ProviderErrors = ""
}

// InvoiceFilter filtros del listado de NFS-e.
type InvoiceFilter struct {
	Status    InvoiceStatus
	BookingID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
