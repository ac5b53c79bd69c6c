package nfse_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appnfse "github.com/jhoicas/Rental-api/internal/application/nfse"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

func toMap(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

// ──── Emisión: escenarios de punta a punta ────

func TestCreateFromBooking_MunicipalTomadorCNPJ(t *testing.T) {
	f := newFixture(t, municipalIBGE)

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	require.True(t, res.Success, "error: %v", res.Err)

	p, ok := f.client.lastPayload.(*appnfse.MunicipalPayload)
	require.True(t, ok, "se esperaba payload municipal, llegó %T", f.client.lastPayload)
	assert.Equal(t, "12345678000195", p.Tomador.CNPJ)
	assert.Empty(t, p.Tomador.CPF)
	assert.Equal(t, "170500", p.Servico.ItemListaServico)
	assert.Empty(t, p.Servico.CodigoTributacaoNacionalISS)
	assert.Equal(t, "11222333000181", p.Prestador.CNPJ, "prestador solo dígitos")
	require.NotNil(t, p.Tomador.Endereco)
	assert.Equal(t, "SP", p.Tomador.Endereco.UF)
	assert.Equal(t, "01001000", p.Tomador.Endereco.CEP)

	assert.True(t, p.OptanteSimplesNacional)
	assert.Equal(t, pkgnfse.RegimeEspecialMEEPPSimples, p.RegimeEspecialTributacao)

	tomador := toMap(t, p)["tomador"].(map[string]any)
	assert.NotContains(t, tomador, "cpf")
	assert.Contains(t, tomador, "cnpj")

	inv := f.invoices.only(t)
	assert.Equal(t, entity.InvoiceStatusProcessing, inv.Status)
	assert.Equal(t, entity.InvoiceSchemaMunicipal, inv.Schema)
	assert.True(t, strings.HasPrefix(inv.Reference, appnfse.ReferencePrefix))
	assert.Equal(t, inv.Reference, f.client.lastRef)
	assert.True(t, decimal.RequireFromString("20.00").Equal(inv.TaxAmount), "ISS del 2 por ciento sobre 1000")
	assert.Equal(t, "token-focus", f.gotToken)
	assert.Equal(t, pkgnfse.EnvHomologacao, f.gotEnv)
}

func TestCreateFromBooking_CNPJSinDireccionEsPrecondicion(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.bookings.bookings[bookingID].Customer.Address = nil

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	assert.Nil(t, res)
	var tpErr *domainnfse.TaxpayerDataError
	require.ErrorAs(t, err, &tpErr)
	assert.Equal(t, []string{"endereco"}, tpErr.MissingFields)
	assert.Equal(t, 0, f.invoices.count(), "no se persiste nada")
	assert.Equal(t, 0, f.client.emitCalls)
}

func TestCreateFromBooking_DocumentoConDigitoVerificadorInvalido(t *testing.T) {
	for _, doc := range []string{"12345678000196", "111.444.777-36"} {
		t.Run(doc, func(t *testing.T) {
			f := newFixture(t, municipalIBGE)
			f.bookings.bookings[bookingID].Customer.TaxID = doc

			res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
			assert.Nil(t, res)
			assert.Equal(t, domainnfse.CodeTaxpayerData, domainnfse.CodeOf(err))
			assert.Equal(t, 0, f.invoices.count(), "no se persiste nada")
			assert.Equal(t, 0, f.client.emitCalls)
		})
	}
}

func TestCreateFromBooking_NacionalDPS(t *testing.T) {
	f := newFixture(t, nationalIBGE)
	require.False(t, f.tenants.tenants[tenantID].Fiscal.RegimeNormal, "configuración sin régimen explícito")

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	require.True(t, res.Success, "error: %v", res.Err)

	p, ok := f.client.lastPayload.(*appnfse.NationalPayload)
	require.True(t, ok, "se esperaba payload nacional, llegó %T", f.client.lastPayload)
	assert.Equal(t, "12345678000195", p.CNPJTomador)
	assert.Equal(t, "990101", p.CodigoTributacaoNacionalISS)
	assert.Equal(t, "1", p.NumeroDPS)
	assert.Equal(t, "2024-03-01", p.DataCompetencia, "competencia = inicio de la reserva")

	assert.Equal(t, pkgnfse.OpcaoSimplesNacionalMEEPP, p.CodigoOpcaoSimplesNacional)
	assert.Equal(t, 6, p.RegimeEspecialTributacao)

	m := toMap(t, p)
	assert.Contains(t, m, "regime_especial_tributacao")
	assert.Contains(t, m, "cnpj_tomador")
	assert.NotContains(t, m, "percentual_aliquota_iss")
	assert.NotContains(t, m, "tomador", "no mezcla nombres del esquema municipal")
	assert.NotContains(t, m, "servico")

	assert.Equal(t, entity.InvoiceSchemaNational, f.invoices.only(t).Schema)
}

func TestCreateFromBooking_NumeroDPSSecuencial(t *testing.T) {
	f := newFixture(t, nationalIBGE)
	ctx := context.Background()

	_, err := f.svc.CreateFromBooking(ctx, bookingID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)

	second := sampleBooking()
	second.ID = "booking-2"
	f.bookings.bookings[second.ID] = second
	_, err = f.svc.CreateFromBooking(ctx, second.ID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "2", f.client.lastPayload.(*appnfse.NationalPayload).NumeroDPS)
}

func TestCreateFromBooking_ReservaDPSYAltaEnUnaTransaccion(t *testing.T) {
	f := newFixture(t, nationalIBGE)
	tx := &txRecorder{invoices: f.invoices, tenants: f.tenants}
	svc := appnfse.NewService(appnfse.ServiceDeps{
		Invoices: f.invoices, Tenants: f.tenants, Bookings: f.bookings,
		Tokens: plainTokens{}, Tx: tx,
		Clients: func(string, string) appnfse.FocusClient { return f.client },
	})

	res, err := svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	require.True(t, res.Success, "error: %v", res.Err)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, "1", f.client.lastPayload.(*appnfse.NationalPayload).NumeroDPS)
}

func TestCreateFromBooking_FalloDeTransaccionNoLlamaAlProveedor(t *testing.T) {
	f := newFixture(t, nationalIBGE)
	tx := &txRecorder{invoices: f.invoices, tenants: f.tenants, commitErr: errors.New("database is locked")}
	svc := appnfse.NewService(appnfse.ServiceDeps{
		Invoices: f.invoices, Tenants: f.tenants, Bookings: f.bookings,
		Tokens: plainTokens{}, Tx: tx,
		Clients: func(string, string) appnfse.FocusClient { return f.client },
	})

	res, err := svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 0, f.client.emitCalls)
}

// ──── Emisión: precondiciones ────

func TestCreateFromBooking_FeatureDeshabilitada(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.tenants.tenants[tenantID].NfseEnabled = false

	_, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	var disabled *domainnfse.FeatureDisabledError
	require.ErrorAs(t, err, &disabled)
	assert.Equal(t, domainnfse.CodeFeatureDisabled, domainnfse.CodeOf(err))
}

func TestCreateFromBooking_ConfigIncompleta(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.tenants.tenants[tenantID].Fiscal.InscricaoMunicipal = ""
	f.tenants.tenants[tenantID].Fiscal.APITokenEncrypted = ""

	_, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	var cfgErr *domainnfse.ConfigIncompleteError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{appnfse.FieldInscricaoMunicipal, appnfse.FieldAPIToken}, cfgErr.MissingFields)
}

func TestCreateFromBooking_TokenIlegible(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.tenants.tenants[tenantID].Fiscal.APITokenEncrypted = "basura"

	_, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	var cfgErr *domainnfse.ConfigIncompleteError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{appnfse.FieldAPIToken}, cfgErr.MissingFields)
}

func TestCreateFromBooking_ReservaInexistente(t *testing.T) {
	f := newFixture(t, municipalIBGE)

	_, err := f.svc.CreateFromBooking(context.Background(), "no-existe", tenantID, appnfse.CreateOptions{})
	var nf *domainnfse.InvoiceNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCreateFromBooking_NFSeActivaBloqueaDuplicado(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusAuthorized)

	_, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	var stErr *domainnfse.InvoiceStatusError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, entity.InvoiceStatusAuthorized, stErr.Current)
	assert.Equal(t, 0, f.client.emitCalls)
}

func TestCreateFromBooking_CanceladaPermiteNuevaEmision(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusCancelled)

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, f.invoices.count())
}

// ──── Emisión: fallos de negocio ────

func TestCreateFromBooking_RechazoDelProveedorQuedaEnError(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.client.emitErr = domainnfse.MapHTTPError(http.StatusUnprocessableEntity,
		[]byte(`{"codigo":"erro_validacao_schema","mensagem":"Erro","erros":[{"codigo":"E160","mensagem":"CEP inválido"}]}`))

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err, "un rechazo no es una excepción")
	assert.False(t, res.Success)
	assert.Equal(t, domainnfse.CodeFocusAPI, res.ErrorCode())

	inv := f.invoices.only(t)
	assert.Equal(t, entity.InvoiceStatusError, inv.Status)
	assert.Equal(t, 1, inv.RetryCount)
	assert.Equal(t, domainnfse.CodeFocusAPI, inv.ErrorCode)
	assert.Contains(t, inv.ProviderErrors, "E160")
}

func TestCreateFromBooking_PayloadInvalidoQuedaEnError(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	b := f.bookings.bookings[bookingID]
	b.TotalPrice = decimal.Zero
	b.Items = nil

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	var reqErr *domainnfse.InvalidRequestError
	require.ErrorAs(t, res.Err, &reqErr)
	assert.Equal(t, "payload", reqErr.Field)

	inv := f.invoices.only(t)
	assert.Equal(t, entity.InvoiceStatusError, inv.Status)
	assert.Equal(t, 0, f.client.emitCalls, "no se llama al proveedor")
}

func TestCreateFromBooking_AutorizacionInmediataEnviaEmail(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.client.emitResp = &domainnfse.ProviderResponse{
		Status: domainnfse.ProviderStatusAuthorized, Numero: "77", CodigoVerificacao: "XYZ",
		URLDanfse: "https://focus/danfse.pdf",
	}

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{SendEmail: true})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.NoError(t, res.EmailError)
	assert.Equal(t, []string{"financeiro@alfa.com.br"}, f.client.lastEmails)

	inv := f.invoices.only(t)
	assert.Equal(t, entity.InvoiceStatusAuthorized, inv.Status)
	assert.Equal(t, "77", inv.Number)
	assert.Equal(t, "https://focus/danfse.pdf", inv.PDFURL)
	assert.NotNil(t, inv.EmittedAt)
	assert.NotNil(t, inv.LastSentAt)
}

func TestCreateFromBooking_FalloDeEmailNoInvalidaEmision(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.client.emitResp = &domainnfse.ProviderResponse{Status: domainnfse.ProviderStatusAuthorized, Numero: "77"}
	f.client.emailErr = errors.New("smtp caído")

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{SendEmail: true})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Error(t, res.EmailError)
	assert.Equal(t, entity.InvoiceStatusAuthorized, f.invoices.only(t).Status)
}

func TestCreateFromBooking_RechazoInmediatoEsREJECTED(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.client.emitResp = &domainnfse.ProviderResponse{
		Status: domainnfse.ProviderStatusRejected,
		Erros:  []domainnfse.ProviderError{{Codigo: "E10", Mensagem: "RPS já informado"}},
	}

	res, err := f.svc.CreateFromBooking(context.Background(), bookingID, tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	var apiErr *domainnfse.FocusAPIError
	require.ErrorAs(t, res.Err, &apiErr)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "E10", apiErr.Errors[0].Codigo)
	assert.Equal(t, entity.InvoiceStatusRejected, f.invoices.only(t).Status)
}

// ──── Sincronización ────

func TestSyncStatus_AutorizadaNoLlamaAlProveedor(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusAuthorized)

	inv, err := f.svc.SyncStatus(context.Background(), "inv-1", tenantID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusAuthorized, inv.Status)
	assert.Equal(t, 0, f.client.consultCalls)
}

func TestSyncStatus_ProcesandoPasaAAutorizada(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusProcessing)
	f.client.consultResp = &domainnfse.ProviderResponse{
		Status: domainnfse.ProviderStatusAuthorized, Numero: "555", CodigoVerificacao: "CV-9",
		CaminhoXMLNotaFiscal: "/arquivos/555.xml", URL: "https://prefeitura/nota/555",
	}

	inv, err := f.svc.SyncStatus(context.Background(), "inv-1", tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.client.consultCalls)
	assert.Equal(t, "nfse-seed", f.client.lastRef)
	assert.Equal(t, entity.InvoiceStatusAuthorized, inv.Status)
	assert.Equal(t, "555", inv.Number)
	assert.Equal(t, "CV-9", inv.VerificationCode)
	assert.Equal(t, "/arquivos/555.xml", inv.XMLURL)
	assert.Equal(t, "https://prefeitura/nota/555", inv.PDFURL)
	require.NotNil(t, inv.EmittedAt)

	stored, _ := f.invoices.GetByID(context.Background(), "inv-1", tenantID)
	assert.Equal(t, entity.InvoiceStatusAuthorized, stored.Status)
}

func TestSyncStatus_EstadoDesconocidoConservaEstado(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusProcessing)
	f.client.consultResp = &domainnfse.ProviderResponse{Status: "em_analise"}

	inv, err := f.svc.SyncStatus(context.Background(), "inv-1", tenantID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusProcessing, inv.Status)
}

func TestSyncStatus_ErrorDelProveedorSePropaga(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusProcessing)
	f.client.consultErr = domainnfse.MapHTTPError(http.StatusTooManyRequests, nil)

	_, err := f.svc.SyncStatus(context.Background(), "inv-1", tenantID)
	assert.True(t, domainnfse.IsRateLimited(err))
}

func TestSyncStatus_OtroTenantNoEncuentra(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusProcessing)

	_, err := f.svc.SyncStatus(context.Background(), "inv-1", "otro-tenant")
	assert.Equal(t, domainnfse.CodeInvoiceNotFound, domainnfse.CodeOf(err))
}

// ──── Cancelación ────

func TestCancel_PendienteEsConflicto(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusPending)

	_, err := f.svc.Cancel(context.Background(), "inv-1", tenantID, "Serviço não prestado ao cliente")
	var stErr *domainnfse.InvoiceStatusError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, entity.InvoiceStatusPending, stErr.Current)
	assert.Equal(t, 0, f.client.cancelCalls)
}

func TestCancel_AutorizadaConservaNumero(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusAuthorized)

	inv, err := f.svc.Cancel(context.Background(), "inv-1", tenantID, "  Serviço não prestado ao cliente ")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, inv.Status)
	assert.Equal(t, "Serviço não prestado ao cliente", inv.CancelReason)
	require.NotNil(t, inv.CancelledAt)

	stored, _ := f.invoices.GetByID(context.Background(), "inv-1", tenantID)
	assert.Equal(t, entity.InvoiceStatusCancelled, stored.Status)
	assert.Equal(t, "2024000123", stored.Number)
	assert.Equal(t, "ABCD-1234", stored.VerificationCode)
}

func TestCancel_RechazoDelProveedorNoCambiaEstado(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusAuthorized)
	f.client.cancelErr = &domainnfse.FocusAPIError{Kind: domainnfse.CodeFocusAPI, Status: http.StatusOK, Message: "prazo expirado"}

	_, err := f.svc.Cancel(context.Background(), "inv-1", tenantID, "Serviço não prestado ao cliente")
	require.Error(t, err)
	stored, _ := f.invoices.GetByID(context.Background(), "inv-1", tenantID)
	assert.Equal(t, entity.InvoiceStatusAuthorized, stored.Status)
}

// ──── E-mail ────

func TestSendInvoiceEmail_SoloAutorizada(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusProcessing)

	_, err := f.svc.SendInvoiceEmail(context.Background(), "inv-1", tenantID, nil)
	assert.Equal(t, domainnfse.CodeInvalidStatus, domainnfse.CodeOf(err))
}

func TestSendInvoiceEmail_UsaEmailDelTomadorPorDefecto(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusAuthorized)

	inv, err := f.svc.SendInvoiceEmail(context.Background(), "inv-1", tenantID, []string{" "})
	require.NoError(t, err)
	assert.Equal(t, []string{"financeiro@alfa.com.br"}, f.client.lastEmails)
	assert.NotNil(t, inv.LastSentAt)

	_, err = f.svc.SendInvoiceEmail(context.Background(), "inv-1", tenantID, []string{"contador@x.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"contador@x.com"}, f.client.lastEmails)
}

// ──── Reintento ────

func TestRetry_SoloDesdeError(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusProcessing)

	_, err := f.svc.Retry(context.Background(), "inv-1", tenantID, appnfse.CreateOptions{})
	assert.Equal(t, domainnfse.CodeInvalidStatus, domainnfse.CodeOf(err))
}

func TestRetry_RefDesconocidaReenviaConMismaRef(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusError)
	f.client.consultErr = notFoundErr()

	res, err := f.svc.Retry(context.Background(), "inv-1", tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, f.client.emitCalls)
	assert.Equal(t, "nfse-seed", f.client.lastRef)
	assert.Equal(t, entity.InvoiceStatusProcessing, res.Invoice.Status)
	assert.Empty(t, res.Invoice.ErrorCode)
}

func TestRetry_RefConocidaAdoptaEstado(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusError)
	f.client.consultResp = &domainnfse.ProviderResponse{Status: domainnfse.ProviderStatusAuthorized, Numero: "901"}

	res, err := f.svc.Retry(context.Background(), "inv-1", tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, f.client.emitCalls, "no se reenvía una nota ya recibida")
	assert.Equal(t, entity.InvoiceStatusAuthorized, res.Invoice.Status)
	assert.Equal(t, "901", res.Invoice.Number)
}

func TestRetry_RefConocidaConEstadoIncompatibleNoReenvia(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusError)
	f.client.consultResp = &domainnfse.ProviderResponse{Status: domainnfse.ProviderStatusCancelled}

	res, err := f.svc.Retry(context.Background(), "inv-1", tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 0, f.client.emitCalls, "la ref ya existe en el proveedor")
	assert.Equal(t, domainnfse.CodeInvalidStatus, res.ErrorCode())

	var stErr *domainnfse.InvoiceStatusError
	require.ErrorAs(t, res.Err, &stErr)
	assert.Equal(t, entity.InvoiceStatusCancelled, stErr.Current)

	inv := f.invoices.only(t)
	assert.Equal(t, entity.InvoiceStatusError, inv.Status)
	assert.Equal(t, domainnfse.CodeInvalidStatus, inv.ErrorCode)
	assert.Contains(t, inv.ErrorMessage, string(entity.InvoiceStatusCancelled))
}

func TestRetry_RefConocidaSinEstadoQuedaEnProcesamiento(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusError)
	f.client.consultResp = &domainnfse.ProviderResponse{Ref: "nfse-seed"}

	res, err := f.svc.Retry(context.Background(), "inv-1", tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, f.client.emitCalls)
	assert.Equal(t, entity.InvoiceStatusProcessing, f.invoices.only(t).Status)
}

func TestRetry_FalloIncrementaContador(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	inv := f.seed(t, entity.InvoiceStatusError)
	inv.RetryCount = 2
	require.NoError(t, f.invoices.Update(context.Background(), inv))
	f.client.consultErr = notFoundErr()
	f.client.emitErr = domainnfse.MapHTTPError(http.StatusBadGateway, nil)

	res, err := f.svc.Retry(context.Background(), "inv-1", tenantID, appnfse.CreateOptions{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, domainnfse.CodeFocusServer, res.ErrorCode())
	assert.Equal(t, 3, f.invoices.only(t).RetryCount)
}

// ──── Consultas ────

func TestList_EstadoInvalido(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	_, err := f.svc.List(context.Background(), tenantID, entity.InvoiceFilter{Status: "FOO"})
	assert.Equal(t, domainnfse.CodeInvalidRequest, domainnfse.CodeOf(err))
}

type fakeReport struct {
	tenant string
	n      int
}

func (r *fakeReport) WriteInvoices(tenantName string, invoices []*entity.Invoice) ([]byte, error) {
	r.tenant, r.n = tenantName, len(invoices)
	return []byte("xlsx"), nil
}

func TestExportReport_UsaNombreDelTenant(t *testing.T) {
	f := newFixture(t, municipalIBGE)
	f.seed(t, entity.InvoiceStatusAuthorized)
	rep := &fakeReport{}
	svc := appnfse.NewService(appnfse.ServiceDeps{
		Invoices: f.invoices, Tenants: f.tenants, Bookings: f.bookings,
		Tokens: plainTokens{}, Reports: rep,
		Clients: func(string, string) appnfse.FocusClient { return f.client },
	})

	out, err := svc.ExportReport(context.Background(), tenantID, entity.InvoiceFilter{})
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), out)
	assert.Equal(t, "Locadora Teste", rep.tenant)
	assert.Equal(t, 1, rep.n)
}
