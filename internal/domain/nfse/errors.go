// Package nfse contiene las reglas de dominio de la emisión de NFS-e:
// taxonomía de errores, mapeo de respuestas del proveedor y el motor de plantillas
// de la descripción del servicio.
package nfse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// Códigos legibles por máquina de la taxonomía.
const (
	CodeFeatureDisabled  = "NFSE_DISABLED"
	CodeConfigIncomplete = "FISCAL_CONFIG_INCOMPLETE"
	CodeFocusAPI         = "FOCUS_API_ERROR"
	CodeFocusAuth        = "FOCUS_AUTH_ERROR"
	CodeFocusNotFound    = "FOCUS_NOT_FOUND"
	CodeFocusRateLimit   = "FOCUS_RATE_LIMIT"
	CodeFocusServer      = "FOCUS_SERVER_ERROR"
	CodeFocusUnknown     = "FOCUS_UNKNOWN_ERROR"
	CodeInvoiceNotFound  = "INVOICE_NOT_FOUND"
	CodeInvalidStatus    = "INVALID_INVOICE_STATUS"
	CodeTaxpayerData     = "TAXPAYER_DATA_ERROR"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnknown          = "UNKNOWN_ERROR"
)

// Coder lo implementan todos los errores de la taxonomía.
type Coder interface {
	error
	Code() string
}

// CodeOf extrae el código de la cadena de errores; CodeUnknown si no pertenece a la taxonomía.
func CodeOf(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeUnknown
}

// ProviderError elemento de erros[] devuelto por Focus NFe.
type ProviderError struct {
	Codigo   string `json:"codigo"`
	Mensagem string `json:"mensagem"`
	Correcao string `json:"correcao,omitempty"`
}

// ── Precondiciones ───────────────────────────────────────────────────────────

// FeatureDisabledError el tenant no tiene la emisión de NFS-e habilitada.
type FeatureDisabledError struct {
	TenantID string
}

func (e *FeatureDisabledError) Error() string {
	return "emisión de NFS-e no habilitada para el tenant " + e.TenantID
}
func (e *FeatureDisabledError) Code() string { return CodeFeatureDisabled }

// ConfigIncompleteError faltan campos obligatorios de la configuración fiscal.
type ConfigIncompleteError struct {
	MissingFields []string
}

func (e *ConfigIncompleteError) Error() string {
	return "configuración fiscal incompleta: faltan " + strings.Join(e.MissingFields, ", ")
}
func (e *ConfigIncompleteError) Code() string { return CodeConfigIncomplete }

// InvoiceNotFoundError la NFS-e (o la reserva a facturar) no existe para el tenant.
type InvoiceNotFoundError struct {
	ID string
}

func (e *InvoiceNotFoundError) Error() string { return "NFS-e o reserva no encontrada: " + e.ID }
func (e *InvoiceNotFoundError) Code() string  { return CodeInvoiceNotFound }

// InvoiceStatusError la operación no es legal en el estado actual.
type InvoiceStatusError struct {
	InvoiceID string
	Current   entity.InvoiceStatus
	Operation string
}

func (e *InvoiceStatusError) Error() string {
	return fmt.Sprintf("no se puede %s una NFS-e en estado %s", e.Operation, e.Current)
}
func (e *InvoiceStatusError) Code() string { return CodeInvalidStatus }

// TaxpayerDataError datos del tomador ausentes o inválidos.
type TaxpayerDataError struct {
	MissingFields []string
	Reason        string
}

func (e *TaxpayerDataError) Error() string {
	msg := "datos del tomador inválidos"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.MissingFields) > 0 {
		msg += " (campos: " + strings.Join(e.MissingFields, ", ") + ")"
	}
	return msg
}
func (e *TaxpayerDataError) Code() string { return CodeTaxpayerData }

// InvalidRequestError argumento rechazado localmente antes de llamar al proveedor.
type InvalidRequestError struct {
	Field   string
	Message string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("campo %s inválido: %s", e.Field, e.Message)
}
func (e *InvalidRequestError) Code() string { return CodeInvalidRequest }

// ── Proveedor ────────────────────────────────────────────────────────────────

// FocusAuthError token rechazado por el proveedor (401/403).
type FocusAuthError struct {
	Status  int
	Message string
}

func (e *FocusAuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("focus nfe: autenticación rechazada (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("focus nfe: autenticación rechazada (%d)", e.Status)
}
func (e *FocusAuthError) Code() string { return CodeFocusAuth }

// FocusAPIError error del proveedor. Kind distingue la variante:
// CodeFocusAPI (400/422 con erros[]), CodeFocusNotFound, CodeFocusRateLimit,
// CodeFocusServer y CodeFocusUnknown.
type FocusAPIError struct {
	Kind    string
	Status  int
	Message string
	Errors  []ProviderError
}

func (e *FocusAPIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "focus nfe: %s (%d)", e.Message, e.Status)
	for _, pe := range e.Errors {
		fmt.Fprintf(&b, "; %s: %s", pe.Codigo, pe.Mensagem)
	}
	return b.String()
}

func (e *FocusAPIError) Code() string {
	if e.Kind == "" {
		return CodeFocusAPI
	}
	return e.Kind
}

// IsNotFound indica que el proveedor no conoce la referencia.
func IsNotFound(err error) bool { return CodeOf(err) == CodeFocusNotFound }

// IsRateLimited indica 429 del proveedor.
func IsRateLimited(err error) bool { return CodeOf(err) == CodeFocusRateLimit }

// IsServerError indica 5xx del proveedor.
func IsServerError(err error) bool { return CodeOf(err) == CodeFocusServer }

// IsProviderError indica cualquier error originado en el proveedor.
func IsProviderError(err error) bool {
	var apiErr *FocusAPIError
	var authErr *FocusAuthError
	return errors.As(err, &apiErr) || errors.As(err, &authErr)
}
