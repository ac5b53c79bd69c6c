package nfse

// =============================================================================
// Regime tributario y naturaleza de la operación (layout Focus NFe)
// =============================================================================

const (
	NaturezaTributacaoNoMunicipio = "1" // Tributação no município

	RegimeEspecialNenhum           = "0"
	RegimeEspecialMEEPPSimples     = "6" // Microempresário e Empresa de Pequeno Porte (ME EPP)
	OpcaoSimplesNacionalMEEPP      = 3   // DPS: optante ME/EPP
	OpcaoSimplesNacionalNaoOptante = 1

	TributacaoISSOperacaoTributavel = 1
	RetencaoISSNaoRetido            = 1
	RetencaoISSRetidoTomador        = 2

	SerieDPSPadrao       = "900" // série reservada a emissores de aplicativos próprios
	EmitenteDPSPrestador = 1
)

// Ambientes del proveedor.
const (
	EnvHomologacao = "homologacao"
	EnvProducao    = "producao"
)

// ValidEnvironments ambientes aceptados en la configuración fiscal del tenant.
var ValidEnvironments = map[string]bool{EnvHomologacao: true, EnvProducao: true}

// DefaultNationalServiceCode código nacional "no clasificado" usado cuando un código
// LC 116 no tiene equivalencia en la tabla de traducción.
const DefaultNationalServiceCode = "990101"

// =============================================================================
// Municipios migrados al sistema nacional (DPS), por código IBGE.
// Lista mantenida manualmente: se amplía a medida que los municipios adhieren.
// =============================================================================

var defaultNationalMunicipalities = []string{
	"5300108", // Brasília/DF
	"4205407", // Florianópolis/SC
	"2927408", // Salvador/BA
	"2611606", // Recife/PE
	"1501402", // Belém/PA
	"5208707", // Goiânia/GO
}

// =============================================================================
// Traducción LC 116/2003 (6 dígitos expandidos) → código de tributación nacional.
// Tabla incompleta; los códigos sin entrada caen en DefaultNationalServiceCode.
// =============================================================================

var defaultServiceCodeMap = map[string]string{
	"170500": "990101", // fornecimento de mão de obra / locação com operador
	"030100": "990101",
	"030500": "990101", // cessão de andaimes, palcos, coberturas e estruturas temporárias
	"070200": "990101",
}

// DefaultNationalMunicipalities devuelve una copia de la lista por defecto.
func DefaultNationalMunicipalities() []string {
	out := make([]string, len(defaultNationalMunicipalities))
	copy(out, defaultNationalMunicipalities)
	return out
}

// DefaultServiceCodeMap devuelve una copia de la tabla por defecto.
func DefaultServiceCodeMap() map[string]string {
	out := make(map[string]string, len(defaultServiceCodeMap))
	for k, v := range defaultServiceCodeMap {
		out[k] = v
	}
	return out
}
