package nfse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// MaxDescriptionLength límite de la discriminação aceptado por el proveedor.
const MaxDescriptionLength = 2000

// PayloadKind familia de payload que exige el municipio del prestador.
type PayloadKind string

const (
	PayloadMunicipal PayloadKind = entity.InvoiceSchemaMunicipal
	PayloadNational  PayloadKind = entity.InvoiceSchemaNational
)

// KindFor decide la familia según el catálogo de municipios del sistema nacional.
func KindFor(catalog pkgnfse.Catalog, codigoMunicipio string) PayloadKind {
	if catalog != nil && catalog.IsNationalMunicipality(strings.TrimSpace(codigoMunicipio)) {
		return PayloadNational
	}
	return PayloadMunicipal
}

// Payload unión etiquetada: exactamente uno de Municipal o National está presente según Kind.
type Payload struct {
	Kind        PayloadKind
	Municipal   *MunicipalPayload
	National    *NationalPayload
	ServiceCode pkgnfse.ServiceCode
}

// Body devuelve el cuerpo JSON a enviar al proveedor.
func (p *Payload) Body() any {
	if p.Kind == PayloadNational {
		return p.National
	}
	return p.Municipal
}

// ── Payload municipal (RPS) ──────────────────────────────────────────────────

type MunicipalPayload struct {
	DataEmissao              string             `json:"data_emissao"`
	NaturezaOperacao         string             `json:"natureza_operacao"`
	RegimeEspecialTributacao string             `json:"regime_especial_tributacao,omitempty"`
	OptanteSimplesNacional   bool               `json:"optante_simples_nacional"`
	IncentivadorCultural     bool               `json:"incentivador_cultural"`
	Prestador                MunicipalPrestador `json:"prestador"`
	Tomador                  MunicipalTomador   `json:"tomador"`
	Servico                  MunicipalServico   `json:"servico"`
}

type MunicipalPrestador struct {
	CNPJ               string `json:"cnpj"`
	InscricaoMunicipal string `json:"inscricao_municipal"`
	CodigoMunicipio    string `json:"codigo_municipio"`
}

type MunicipalTomador struct {
	CPF         string             `json:"cpf,omitempty"`
	CNPJ        string             `json:"cnpj,omitempty"`
	RazaoSocial string             `json:"razao_social"`
	Email       string             `json:"email,omitempty"`
	Telefone    string             `json:"telefone,omitempty"`
	Endereco    *MunicipalEndereco `json:"endereco,omitempty"`
}

type MunicipalEndereco struct {
	Logradouro      string `json:"logradouro"`
	Numero          string `json:"numero"`
	Complemento     string `json:"complemento,omitempty"`
	Bairro          string `json:"bairro"`
	CodigoMunicipio string `json:"codigo_municipio"`
	UF              string `json:"uf"`
	CEP             string `json:"cep"`
}

type MunicipalServico struct {
	ValorServicos               float64 `json:"valor_servicos"`
	ISSRetido                   bool    `json:"iss_retido"`
	Aliquota                    float64 `json:"aliquota"`
	ValorISS                    float64 `json:"valor_iss,omitempty"`
	Discriminacao               string  `json:"discriminacao"`
	ItemListaServico            string  `json:"item_lista_servico,omitempty"`
	CodigoTributacaoNacionalISS string  `json:"codigo_tributacao_nacional_iss,omitempty"`
	CodigoMunicipio             string  `json:"codigo_municipio"`
}

// ── Payload nacional (DPS) ───────────────────────────────────────────────────

type NationalPayload struct {
	DataEmissao                 string `json:"data_emissao"`
	DataCompetencia             string `json:"data_competencia"`
	SerieDPS                    string `json:"serie_dps"`
	NumeroDPS                   string `json:"numero_dps"`
	EmitenteDPS                 int    `json:"emitente_dps"`
	CodigoMunicipioEmissora     string `json:"codigo_municipio_emissora"`
	CNPJPrestador               string `json:"cnpj_prestador"`
	InscricaoMunicipalPrestador string `json:"inscricao_municipal_prestador,omitempty"`
	CodigoOpcaoSimplesNacional  int    `json:"codigo_opcao_simples_nacional"`
	RegimeEspecialTributacao    int    `json:"regime_especial_tributacao"`

	CPFTomador             string `json:"cpf_tomador,omitempty"`
	CNPJTomador            string `json:"cnpj_tomador,omitempty"`
	RazaoSocialTomador     string `json:"razao_social_tomador"`
	EmailTomador           string `json:"email_tomador,omitempty"`
	TelefoneTomador        string `json:"telefone_tomador,omitempty"`
	CodigoMunicipioTomador string `json:"codigo_municipio_tomador,omitempty"`
	CEPTomador             string `json:"cep_tomador,omitempty"`
	LogradouroTomador      string `json:"logradouro_tomador,omitempty"`
	NumeroTomador          string `json:"numero_tomador,omitempty"`
	ComplementoTomador     string `json:"complemento_tomador,omitempty"`
	BairroTomador          string `json:"bairro_tomador,omitempty"`

	CodigoMunicipioPrestacao    string   `json:"codigo_municipio_prestacao"`
	CodigoTributacaoNacionalISS string   `json:"codigo_tributacao_nacional_iss"`
	DescricaoServico            string   `json:"descricao_servico"`
	ValorServico                float64  `json:"valor_servico"`
	TributacaoISS               int      `json:"tributacao_iss"`
	TipoRetencaoISS             int      `json:"tipo_retencao_iss"`
	PercentualAliquotaISS       *float64 `json:"percentual_aliquota_iss,omitempty"`
}

// ── Construcción ─────────────────────────────────────────────────────────────

// PayloadInput datos ya calculados de la NFS-e a emitir.
type PayloadInput struct {
	Fiscal      *entity.FiscalConfig
	Customer    *entity.Customer
	Description string
	Amounts     Amounts
	ServiceDate time.Time // inicio del período; data_competencia de la DPS
	DPSNumber   int64     // solo para la familia nacional
	Now         time.Time
}

// Amounts valores monetarios de la NFS-e.
type Amounts struct {
	ServiceValue decimal.Decimal
	TaxRate      decimal.Decimal
	TaxAmount    decimal.Decimal
	Withheld     bool
}

// ComputeAmounts toma el total de la reserva (o la suma de ítems si es cero) y calcula el ISS.
func ComputeAmounts(b *entity.Booking, cfg *entity.FiscalConfig) Amounts {
	value := b.TotalPrice
	if value.IsZero() {
		for _, it := range b.Items {
			sub := it.Subtotal
			if sub.IsZero() {
				sub = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			}
			value = value.Add(sub)
		}
	}
	value = value.Round(2)
	rate := cfg.TaxRate
	return Amounts{
		ServiceValue: value,
		TaxRate:      rate,
		TaxAmount:    value.Mul(rate).Div(decimal.NewFromInt(100)).Round(2),
		Withheld:     cfg.ISSRetido,
	}
}

// Taxpayer datos normalizados del tomador.
type Taxpayer struct {
	Kind    string // cpf | cnpj
	TaxID   string // solo dígitos
	Name    string
	Email   string
	Phone   string
	Address *entity.Address
}

// ResolveTaxpayer valida el documento (largo y dígitos verificadores) y la dirección del tomador.
// La dirección es obligatoria si el ISS es retenido o el tomador es persona jurídica.
func ResolveTaxpayer(c *entity.Customer, withheld bool) (*Taxpayer, error) {
	if c == nil {
		return nil, &domainnfse.TaxpayerDataError{MissingFields: []string{"cliente"}, Reason: "la reserva no tiene cliente"}
	}
	digits := pkgnfse.OnlyNumbers(c.TaxID)
	if digits == "" {
		return nil, &domainnfse.TaxpayerDataError{MissingFields: []string{"cpf_cnpj"}, Reason: "el cliente no tiene CPF/CNPJ"}
	}
	kind := pkgnfse.DocumentKind(digits)
	if kind == "" {
		return nil, &domainnfse.TaxpayerDataError{
			Reason: fmt.Sprintf("documento con %d dígitos; se esperan 11 (CPF) o 14 (CNPJ)", len(digits)),
		}
	}
	if !pkgnfse.ValidateCpfCnpj(digits) {
		return nil, &domainnfse.TaxpayerDataError{MissingFields: []string{"cpf_cnpj"}, Reason: "CPF/CNPJ inválido"}
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return nil, &domainnfse.TaxpayerDataError{MissingFields: []string{"nome"}}
	}

	tp := &Taxpayer{
		Kind:  kind,
		TaxID: digits,
		Name:  name,
		Email: strings.TrimSpace(c.Email),
		Phone: pkgnfse.OnlyNumbers(c.Phone),
	}

	missing := c.Address.MissingFields()
	if withheld || kind == pkgnfse.DocumentCNPJ {
		if len(missing) > 0 {
			return nil, &domainnfse.TaxpayerDataError{
				MissingFields: missing,
				Reason:        "dirección obligatoria para ISS retenido o tomador CNPJ",
			}
		}
	}
	if len(missing) == 0 {
		addr := *c.Address
		addr.CEP = pkgnfse.OnlyNumbers(addr.CEP)
		addr.UF = strings.ToUpper(strings.TrimSpace(addr.UF))
		tp.Address = &addr
	}
	return tp, nil
}

// BuildPayload arma el payload de la familia indicada. Los errores son de la taxonomía
// (*TaxpayerDataError, *InvalidRequestError) y no implican llamadas de red.
func BuildPayload(kind PayloadKind, catalog pkgnfse.Catalog, in PayloadInput) (*Payload, error) {
	if in.Fiscal == nil {
		return nil, &domainnfse.ConfigIncompleteError{MissingFields: []string{FieldCNPJ, FieldInscricaoMunicipal, FieldCodigoMunicipio}}
	}
	tp, err := ResolveTaxpayer(in.Customer, in.Amounts.Withheld)
	if err != nil {
		return nil, err
	}
	desc := truncateRunes(strings.TrimSpace(in.Description), MaxDescriptionLength)
	if desc == "" {
		return nil, &domainnfse.InvalidRequestError{Field: "descricao", Message: "la descripción del servicio está vacía"}
	}
	in.Description = desc

	var p *Payload
	switch kind {
	case PayloadNational:
		p, err = buildNational(catalog, in, tp)
	default:
		p, err = buildMunicipal(catalog, in, tp)
	}
	if err != nil {
		return nil, err
	}
	if err := ValidatePayload(p); err != nil {
		return nil, err
	}
	return p, nil
}

func buildMunicipal(catalog pkgnfse.Catalog, in PayloadInput, tp *Taxpayer) (*Payload, error) {
	cfg := in.Fiscal
	var sc pkgnfse.ServiceCode
	if strings.TrimSpace(cfg.ServiceCode) != "" {
		var err error
		sc, err = pkgnfse.NormalizeServiceCode(catalog, cfg.ServiceCode, false)
		if err != nil {
			return nil, &domainnfse.InvalidRequestError{Field: "codigo_servico", Message: err.Error()}
		}
	}

	mp := &MunicipalPayload{
		DataEmissao:            pkgnfse.FormatEmissionTime(pkgnfse.EmissionTime(in.Now)),
		NaturezaOperacao:       pkgnfse.NaturezaTributacaoNoMunicipio,
		OptanteSimplesNacional: !cfg.RegimeNormal,
		Prestador: MunicipalPrestador{
			CNPJ:               pkgnfse.OnlyNumbers(cfg.CNPJ),
			InscricaoMunicipal: strings.TrimSpace(cfg.InscricaoMunicipal),
			CodigoMunicipio:    strings.TrimSpace(cfg.CodigoMunicipio),
		},
		Tomador: MunicipalTomador{
			RazaoSocial: tp.Name,
			Email:       tp.Email,
			Telefone:    tp.Phone,
		},
		Servico: MunicipalServico{
			ValorServicos:   in.Amounts.ServiceValue.InexactFloat64(),
			ISSRetido:       in.Amounts.Withheld,
			Aliquota:        in.Amounts.TaxRate.InexactFloat64(),
			ValorISS:        in.Amounts.TaxAmount.InexactFloat64(),
			Discriminacao:   in.Description,
			CodigoMunicipio: strings.TrimSpace(cfg.CodigoMunicipio),
		},
	}
	if !cfg.RegimeNormal {
		mp.RegimeEspecialTributacao = pkgnfse.RegimeEspecialMEEPPSimples
	}
	if tp.Kind == pkgnfse.DocumentCPF {
		mp.Tomador.CPF = tp.TaxID
	} else {
		mp.Tomador.CNPJ = tp.TaxID
	}
	if a := tp.Address; a != nil {
		mp.Tomador.Endereco = &MunicipalEndereco{
			Logradouro:      a.Street,
			Numero:          a.Number,
			Complemento:     a.Complement,
			Bairro:          a.District,
			CodigoMunicipio: a.MunicipalityCode,
			UF:              a.UF,
			CEP:             a.CEP,
		}
	}
	switch {
	case sc.Code == "":
	case sc.IsNacional:
		mp.Servico.CodigoTributacaoNacionalISS = sc.Code
	default:
		mp.Servico.ItemListaServico = sc.Code
	}
	return &Payload{Kind: PayloadMunicipal, Municipal: mp, ServiceCode: sc}, nil
}

func buildNational(catalog pkgnfse.Catalog, in PayloadInput, tp *Taxpayer) (*Payload, error) {
	cfg := in.Fiscal
	sc := pkgnfse.ServiceCode{IsNacional: true, Code: pkgnfse.DefaultNationalServiceCode, Fallback: true}
	if strings.TrimSpace(cfg.ServiceCode) != "" {
		var err error
		sc, err = pkgnfse.NormalizeServiceCode(catalog, cfg.ServiceCode, true)
		if err != nil {
			return nil, &domainnfse.InvalidRequestError{Field: "codigo_servico", Message: err.Error()}
		}
	}
	if in.DPSNumber <= 0 {
		return nil, &domainnfse.InvalidRequestError{Field: "numero_dps", Message: "número de DPS no asignado"}
	}

	emitted := pkgnfse.EmissionTime(in.Now)
	competencia := emitted
	if !in.ServiceDate.IsZero() {
		competencia = in.ServiceDate
	}
	np := &NationalPayload{
		DataEmissao:                 pkgnfse.FormatEmissionTime(emitted),
		DataCompetencia:             pkgnfse.CivilDate(competencia),
		SerieDPS:                    pkgnfse.SerieDPSPadrao,
		NumeroDPS:                   strconv.FormatInt(in.DPSNumber, 10),
		EmitenteDPS:                 pkgnfse.EmitenteDPSPrestador,
		CodigoMunicipioEmissora:     strings.TrimSpace(cfg.CodigoMunicipio),
		CNPJPrestador:               pkgnfse.OnlyNumbers(cfg.CNPJ),
		InscricaoMunicipalPrestador: strings.TrimSpace(cfg.InscricaoMunicipal),
		CodigoOpcaoSimplesNacional:  pkgnfse.OpcaoSimplesNacionalNaoOptante,
		RegimeEspecialTributacao:    regimeCode(pkgnfse.RegimeEspecialNenhum),
		RazaoSocialTomador:          tp.Name,
		EmailTomador:                tp.Email,
		TelefoneTomador:             tp.Phone,
		CodigoMunicipioPrestacao:    strings.TrimSpace(cfg.CodigoMunicipio),
		CodigoTributacaoNacionalISS: sc.Code,
		DescricaoServico:            in.Description,
		ValorServico:                in.Amounts.ServiceValue.InexactFloat64(),
		TributacaoISS:               pkgnfse.TributacaoISSOperacaoTributavel,
		TipoRetencaoISS:             pkgnfse.RetencaoISSNaoRetido,
	}
	if in.Amounts.Withheld {
		np.TipoRetencaoISS = pkgnfse.RetencaoISSRetidoTomador
	}
	if !cfg.RegimeNormal {
		// ME/EPP del Simples: la alícuota la determina el régimen, no se informa.
		np.CodigoOpcaoSimplesNacional = pkgnfse.OpcaoSimplesNacionalMEEPP
		np.RegimeEspecialTributacao = regimeCode(pkgnfse.RegimeEspecialMEEPPSimples)
	} else {
		rate := in.Amounts.TaxRate.InexactFloat64()
		np.PercentualAliquotaISS = &rate
	}
	if tp.Kind == pkgnfse.DocumentCPF {
		np.CPFTomador = tp.TaxID
	} else {
		np.CNPJTomador = tp.TaxID
	}
	if a := tp.Address; a != nil {
		np.CodigoMunicipioTomador = a.MunicipalityCode
		np.CEPTomador = a.CEP
		np.LogradouroTomador = a.Street
		np.NumeroTomador = a.Number
		np.ComplementoTomador = a.Complement
		np.BairroTomador = a.District
	}
	return &Payload{Kind: PayloadNational, National: np, ServiceCode: sc}, nil
}

func regimeCode(code string) int {
	n, _ := strconv.Atoi(code)
	return n
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
