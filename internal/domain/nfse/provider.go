package nfse

import (
	"net/http"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// Estados devueltos por Focus NFe en el campo status.
const (
	ProviderStatusProcessing     = "processando_autorizacao"
	ProviderStatusAuthorized     = "autorizado"
	ProviderStatusRejected       = "erro_autorizacao"
	ProviderStatusCancelled      = "cancelado"
	ProviderStatusCancelRejected = "erro_cancelamento"
)

// ProviderResponse cuerpo de las respuestas de Focus NFe (emisión, consulta y cancelación).
type ProviderResponse struct {
	Ref                  string          `json:"ref"`
	Status               string          `json:"status"`
	Numero               string          `json:"numero"`
	CodigoVerificacao    string          `json:"codigo_verificacao"`
	DataEmissao          string          `json:"data_emissao"`
	URL                  string          `json:"url"`
	URLDanfse            string          `json:"url_danfse"`
	CaminhoXMLNotaFiscal string          `json:"caminho_xml_nota_fiscal"`
	Mensagem             string          `json:"mensagem"`
	Erros                []ProviderError `json:"erros"`
}

// PDFURL prioriza el DANFSE; si no existe usa la URL de la prefeitura.
func (r *ProviderResponse) PDFURL() string {
	if r.URLDanfse != "" {
		return r.URLDanfse
	}
	return r.URL
}

// MapProviderStatus traduce el status del proveedor al estado interno.
// ok=false para valores desconocidos (el llamador conserva el estado actual).
func MapProviderStatus(status string) (entity.InvoiceStatus, bool) {
	switch status {
	case ProviderStatusProcessing:
		return entity.InvoiceStatusProcessing, true
	case ProviderStatusAuthorized:
		return entity.InvoiceStatusAuthorized, true
	case ProviderStatusRejected:
		return entity.InvoiceStatusRejected, true
	case ProviderStatusCancelled:
		return entity.InvoiceStatusCancelled, true
	default:
		return "", false
	}
}

// MapCancelRejection convierte un 2xx con status erro_cancelamento en error de la taxonomía.
// Devuelve nil si la respuesta no es un rechazo.
func MapCancelRejection(resp *ProviderResponse) error {
	if resp == nil || resp.Status != ProviderStatusCancelRejected {
		return nil
	}
	msg := resp.Mensagem
	if msg == "" {
		msg = "cancelación rechazada por la prefeitura"
	}
	return &FocusAPIError{Kind: CodeFocusAPI, Status: http.StatusOK, Message: msg, Errors: resp.Erros}
}
