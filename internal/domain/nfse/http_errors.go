package nfse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// providerErrorBody forma común de los cuerpos de error de Focus NFe.
type providerErrorBody struct {
	Codigo   string          `json:"codigo"`
	Mensagem string          `json:"mensagem"`
	Erros    []ProviderError `json:"erros"`
}

// MapHTTPError traduce una respuesta no-2xx del proveedor a la taxonomía.
// Es el único punto que interpreta errores HTTP de Focus NFe.
// Un cuerpo que no es JSON se trata como {}.
func MapHTTPError(status int, body []byte) error {
	var parsed providerErrorBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			parsed = providerErrorBody{}
		}
	}
	msg := parsed.Mensagem

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &FocusAuthError{Status: status, Message: msg}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "solicitud inválida"
			if len(parsed.Erros) > 0 {
				msg = "solicitud rechazada por el proveedor"
			}
		}
		return &FocusAPIError{Kind: CodeFocusAPI, Status: status, Message: msg, Errors: parsed.Erros}
	case status == http.StatusNotFound:
		if msg == "" {
			msg = "nota fiscal no encontrada en el proveedor"
		}
		return &FocusAPIError{Kind: CodeFocusNotFound, Status: status, Message: msg, Errors: parsed.Erros}
	case status == http.StatusTooManyRequests:
		if msg == "" {
			msg = "límite de solicitudes excedido"
		}
		return &FocusAPIError{Kind: CodeFocusRateLimit, Status: status, Message: msg}
	case status >= 500:
		if msg == "" {
			msg = "error interno del proveedor"
		}
		return &FocusAPIError{Kind: CodeFocusServer, Status: status, Message: msg}
	default:
		if msg == "" {
			msg = fmt.Sprintf("respuesta inesperada del proveedor: HTTP %d", status)
		}
		return &FocusAPIError{Kind: CodeFocusUnknown, Status: status, Message: msg, Errors: parsed.Erros}
	}
}
