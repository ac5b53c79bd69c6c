package nfse_test

import (
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

func payloadInput(cfg *entity.FiscalConfig, c *entity.Customer) appnfse.PayloadInput {
	b := sampleBooking()
	b.Customer = c
	return appnfse.PayloadInput{
		Fiscal:      cfg,
		Customer:    c,
		Description: "Locação de betoneira",
		Amounts:     appnfse.ComputeAmounts(b, cfg),
		ServiceDate: b.StartDate,
		DPSNumber:   42,
		Now:         fixedNow,
	}
}

func personCustomer() *entity.Customer {
	return &entity.Customer{Name: "Maria da Silva", TaxID: "529.982.247-25", Email: "maria@x.com"}
}

// ──── Tomador ────

func TestResolveTaxpayer_CPFSinDireccionEsValido(t *testing.T) {
	tp, err := appnfse.ResolveTaxpayer(personCustomer(), false)
	require.NoError(t, err)
	assert.Equal(t, pkgnfse.DocumentCPF, tp.Kind)
	assert.Equal(t, "52998224725", tp.TaxID)
	assert.Nil(t, tp.Address)
}

func TestResolveTaxpayer_RetencionExigeDireccion(t *testing.T) {
	c := personCustomer()
	c.Address = &entity.Address{Street: "Rua A", Number: "1"}

	_, err := appnfse.ResolveTaxpayer(c, true)
	var tpErr *domainnfse.TaxpayerDataError
	require.ErrorAs(t, err, &tpErr)
	assert.Equal(t, []string{"endereco.bairro", "endereco.codigo_municipio", "endereco.uf", "endereco.cep"}, tpErr.MissingFields)
}

func TestResolveTaxpayer_LargoInvalido(t *testing.T) {
	for _, doc := range []string{"123", "1234567890123", "123456789012345"} {
		c := personCustomer()
		c.TaxID = doc
		_, err := appnfse.ResolveTaxpayer(c, false)
		assert.Equal(t, domainnfse.CodeTaxpayerData, domainnfse.CodeOf(err), doc)
	}
}

func TestResolveTaxpayer_DigitoVerificadorInvalido(t *testing.T) {
	for _, doc := range []string{"111.444.777-36", "12345678000196", "111.111.111-11"} {
		c := personCustomer()
		c.TaxID = doc
		_, err := appnfse.ResolveTaxpayer(c, false)
		var tpErr *domainnfse.TaxpayerDataError
		require.ErrorAs(t, err, &tpErr, doc)
		assert.Equal(t, []string{"cpf_cnpj"}, tpErr.MissingFields, doc)
		assert.Equal(t, domainnfse.CodeTaxpayerData, domainnfse.CodeOf(err), doc)
	}
}

func TestResolveTaxpayer_SinDocumento(t *testing.T) {
	c := personCustomer()
	c.TaxID = " - "
	_, err := appnfse.ResolveTaxpayer(c, false)
	var tpErr *domainnfse.TaxpayerDataError
	require.ErrorAs(t, err, &tpErr)
	assert.Equal(t, []string{"cpf_cnpj"}, tpErr.MissingFields)
}

// ──── Valores ────

func TestComputeAmounts_SumaItemsSiNoHayTotal(t *testing.T) {
	b := sampleBooking()
	b.TotalPrice = decimal.Zero
	b.Items = []entity.BookingItem{
		{Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), Subtotal: decimal.RequireFromString("4.50")},
	}
	cfg := fiscalConfig(municipalIBGE)
	cfg.TaxRate = decimal.RequireFromString("5")

	a := appnfse.ComputeAmounts(b, cfg)
	assert.Equal(t, "34.5", a.ServiceValue.String())
	assert.Equal(t, "1.73", a.TaxAmount.String(), "5 por ciento de 34,50 redondeado")
}

// ──── Municipal ────

func TestBuildPayload_MunicipalCPFOmiteCNPJ(t *testing.T) {
	cfg := fiscalConfig(municipalIBGE)
	p, err := appnfse.BuildPayload(appnfse.PayloadMunicipal, pkgnfse.DefaultCatalog(), payloadInput(cfg, personCustomer()))
	require.NoError(t, err)

	m := toMap(t, p.Body())
	tomador := m["tomador"].(map[string]any)
	assert.Equal(t, "52998224725", tomador["cpf"])
	assert.NotContains(t, tomador, "cnpj")
	assert.NotContains(t, tomador, "endereco")
	assert.Equal(t, "6", m["regime_especial_tributacao"])
	assert.Equal(t, true, m["optante_simples_nacional"])
}

func TestBuildPayload_MunicipalCodigoNacionalVaAlCampoNacional(t *testing.T) {
	cfg := fiscalConfig(municipalIBGE)
	cfg.ServiceCode = "990101"
	p, err := appnfse.BuildPayload(appnfse.PayloadMunicipal, pkgnfse.DefaultCatalog(), payloadInput(cfg, personCustomer()))
	require.NoError(t, err)
	assert.Equal(t, "990101", p.Municipal.Servico.CodigoTributacaoNacionalISS)
	assert.Empty(t, p.Municipal.Servico.ItemListaServico)
}

func TestBuildPayload_MunicipalSinCodigoDeServicio(t *testing.T) {
	cfg := fiscalConfig(municipalIBGE)
	cfg.ServiceCode = ""
	p, err := appnfse.BuildPayload(appnfse.PayloadMunicipal, pkgnfse.DefaultCatalog(), payloadInput(cfg, personCustomer()))
	require.NoError(t, err)
	servico := toMap(t, p.Body())["servico"].(map[string]any)
	assert.NotContains(t, servico, "item_lista_servico")
	assert.NotContains(t, servico, "codigo_tributacao_nacional_iss")
}

func TestBuildPayload_FechaDeEmisionConMargen(t *testing.T) {
	cfg := fiscalConfig(municipalIBGE)
	p, err := appnfse.BuildPayload(appnfse.PayloadMunicipal, pkgnfse.DefaultCatalog(), payloadInput(cfg, personCustomer()))
	require.NoError(t, err)
	// 15:00 UTC = 12:00 en Brasília, menos 15 minutos.
	assert.Equal(t, "2024-03-10T11:45:00-03:00", p.Municipal.DataEmissao)
}

func TestBuildPayload_DescripcionTruncada(t *testing.T) {
	cfg := fiscalConfig(municipalIBGE)
	in := payloadInput(cfg, personCustomer())
	in.Description = strings.Repeat("ç", appnfse.MaxDescriptionLength+50)

	p, err := appnfse.BuildPayload(appnfse.PayloadMunicipal, pkgnfse.DefaultCatalog(), in)
	require.NoError(t, err)
	assert.Equal(t, appnfse.MaxDescriptionLength, len([]rune(p.Municipal.Servico.Discriminacao)))
}

func TestBuildPayload_CodigoDeServicioInvalido(t *testing.T) {
	cfg := fiscalConfig(municipalIBGE)
	cfg.ServiceCode = "abc"
	_, err := appnfse.BuildPayload(appnfse.PayloadMunicipal, pkgnfse.DefaultCatalog(), payloadInput(cfg, personCustomer()))
	var reqErr *domainnfse.InvalidRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "codigo_servico", reqErr.Field)
}

// ──── Nacional ────

func TestBuildPayload_NacionalRegimeNormalInformaAlicuota(t *testing.T) {
	cfg := fiscalConfig(nationalIBGE)
	cfg.RegimeNormal = true
	cfg.ISSRetido = true
	c := personCustomer()
	c.Address = customerAddress()

	p, err := appnfse.BuildPayload(appnfse.PayloadNational, pkgnfse.DefaultCatalog(), payloadInput(cfg, c))
	require.NoError(t, err)
	require.NotNil(t, p.National.PercentualAliquotaISS)
	assert.Equal(t, 2.0, *p.National.PercentualAliquotaISS)
	assert.Equal(t, pkgnfse.OpcaoSimplesNacionalNaoOptante, p.National.CodigoOpcaoSimplesNacional)
	assert.Equal(t, pkgnfse.RetencaoISSRetidoTomador, p.National.TipoRetencaoISS)
	assert.Equal(t, "52998224725", p.National.CPFTomador)
	assert.Equal(t, "01001000", p.National.CEPTomador)
	assert.Equal(t, "42", p.National.NumeroDPS)
	assert.Equal(t, pkgnfse.SerieDPSPadrao, p.National.SerieDPS)
}

func TestBuildPayload_NacionalSinCodigoUsaGenerico(t *testing.T) {
	cfg := fiscalConfig(nationalIBGE)
	cfg.ServiceCode = ""
	p, err := appnfse.BuildPayload(appnfse.PayloadNational, pkgnfse.DefaultCatalog(), payloadInput(cfg, personCustomer()))
	require.NoError(t, err)
	assert.Equal(t, pkgnfse.DefaultNationalServiceCode, p.National.CodigoTributacaoNacionalISS)
	assert.True(t, p.ServiceCode.Fallback)
}

func TestBuildPayload_NacionalSinNumeroDPS(t *testing.T) {
	cfg := fiscalConfig(nationalIBGE)
	in := payloadInput(cfg, personCustomer())
	in.DPSNumber = 0
	_, err := appnfse.BuildPayload(appnfse.PayloadNational, pkgnfse.DefaultCatalog(), in)
	assert.Equal(t, domainnfse.CodeInvalidRequest, domainnfse.CodeOf(err))
}

func TestValidatePayload_OptanteYAlicuotaSonExcluyentes(t *testing.T) {
	cfg := fiscalConfig(nationalIBGE)
	p, err := appnfse.BuildPayload(appnfse.PayloadNational, pkgnfse.DefaultCatalog(), payloadInput(cfg, personCustomer()))
	require.NoError(t, err)

	rate := 2.0
	p.National.PercentualAliquotaISS = &rate
	err = appnfse.ValidatePayload(p)
	var reqErr *domainnfse.InvalidRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "payload", reqErr.Field)
}

func TestKindFor(t *testing.T) {
	cat := pkgnfse.DefaultCatalog()
	assert.Equal(t, appnfse.PayloadNational, appnfse.KindFor(cat, nationalIBGE))
	assert.Equal(t, appnfse.PayloadMunicipal, appnfse.KindFor(cat, municipalIBGE))
	assert.Equal(t, appnfse.PayloadMunicipal, appnfse.KindFor(nil, nationalIBGE))
}
