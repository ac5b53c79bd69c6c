package nfse_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/domain/nfse"
)

// ──────────────────────────────────────────────────────────────────────────────
// MapHTTPError
// ──────────────────────────────────────────────────────────────────────────────

func TestMapHTTPError_Auth(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		err := nfse.MapHTTPError(status, []byte(`{"codigo":"permissao_negada","mensagem":"token inválido"}`))
		var authErr *nfse.FocusAuthError
		require.ErrorAs(t, err, &authErr, "status %d debe mapear a error de autenticación", status)
		assert.Equal(t, status, authErr.Status)
		assert.Equal(t, nfse.CodeFocusAuth, nfse.CodeOf(err))
	}
}

func TestMapHTTPError_ValidacionConErros(t *testing.T) {
	body := `{"erros":[{"codigo":"E10","mensagem":"CNPJ do tomador inválido","correcao":"Informe um CNPJ válido"}]}`
	for _, status := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity} {
		err := nfse.MapHTTPError(status, []byte(body))
		var apiErr *nfse.FocusAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, nfse.CodeFocusAPI, apiErr.Code())
		assert.Equal(t, status, apiErr.Status)
		require.Len(t, apiErr.Errors, 1)
		assert.Equal(t, "E10", apiErr.Errors[0].Codigo)
		assert.Equal(t, "Informe um CNPJ válido", apiErr.Errors[0].Correcao)
		assert.Contains(t, err.Error(), "CNPJ do tomador inválido")
	}
}

func TestMapHTTPError_ValidacionSinEstructura(t *testing.T) {
	err := nfse.MapHTTPError(http.StatusBadRequest, []byte("<html>bad request</html>"))
	var apiErr *nfse.FocusAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Errors)
	assert.NotEmpty(t, apiErr.Message, "sin erros[] debe haber un mensaje genérico")
}

func TestMapHTTPError_Variantes(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusNotFound, nfse.CodeFocusNotFound},
		{http.StatusTooManyRequests, nfse.CodeFocusRateLimit},
		{http.StatusInternalServerError, nfse.CodeFocusServer},
		{http.StatusBadGateway, nfse.CodeFocusServer},
		{http.StatusConflict, nfse.CodeFocusUnknown},
		{http.StatusTeapot, nfse.CodeFocusUnknown},
	}
	for _, tc := range cases {
		err := nfse.MapHTTPError(tc.status, nil)
		assert.Equal(t, tc.code, nfse.CodeOf(err), "status %d", tc.status)
		var apiErr *nfse.FocusAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tc.status, apiErr.Status, "el status HTTP se conserva")
	}
	assert.True(t, nfse.IsNotFound(nfse.MapHTTPError(404, nil)))
	assert.True(t, nfse.IsRateLimited(nfse.MapHTTPError(429, nil)))
	assert.True(t, nfse.IsServerError(nfse.MapHTTPError(503, nil)))
	assert.True(t, nfse.IsProviderError(nfse.MapHTTPError(401, nil)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Taxonomía
// ──────────────────────────────────────────────────────────────────────────────

func TestCodeOf_AtraviesaWrapping(t *testing.T) {
	err := fmt.Errorf("emitir: %w", &nfse.ConfigIncompleteError{MissingFields: []string{"cnpj"}})
	assert.Equal(t, nfse.CodeConfigIncomplete, nfse.CodeOf(err))
	assert.Equal(t, nfse.CodeUnknown, nfse.CodeOf(errors.New("otro")))
	assert.False(t, nfse.IsProviderError(err))
}

func TestInvoiceStatusError_Mensaje(t *testing.T) {
	err := &nfse.InvoiceStatusError{InvoiceID: "inv-1", Current: entity.InvoiceStatusPending, Operation: "cancelar"}
	assert.Equal(t, "no se puede cancelar una NFS-e en estado PENDING", err.Error())
	assert.Equal(t, nfse.CodeInvalidStatus, err.Code())
}

func TestTaxpayerDataError_Campos(t *testing.T) {
	err := &nfse.TaxpayerDataError{MissingFields: []string{"endereco.cep", "endereco.uf"}}
	assert.Contains(t, err.Error(), "endereco.cep, endereco.uf")
	assert.Equal(t, nfse.CodeTaxpayerData, nfse.CodeOf(err))
}
