package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tenant locadora emisora. La configuración fiscal es propiedad del módulo de administración;
// la emisión solo la lee.
type Tenant struct {
	ID          string
	Name        string
	NfseEnabled bool
	Fiscal      *FiscalConfig
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FiscalConfig datos del prestador y del proveedor Focus NFe.
type FiscalConfig struct {
	CNPJ                string
	InscricaoMunicipal  string
	CodigoMunicipio     string // IBGE del municipio del prestador
	APITokenEncrypted   string // iv_hex:ciphertext_hex
	Environment         string // homologacao | producao
	TaxRate             decimal.Decimal
	ISSRetido           bool
	DescriptionTemplate string
	ServiceCode         string // LC 116 ("17.05") o nacional ("990101")
	// RegimeNormal marca al prestador fuera del Simples Nacional. El valor cero es ME/EPP optante.
	RegimeNormal bool
}
