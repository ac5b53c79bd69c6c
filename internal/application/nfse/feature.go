package nfse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
)

// Campos obligatorios de la configuración fiscal.
const (
	FieldCNPJ               = "cnpj"
	FieldInscricaoMunicipal = "inscricao_municipal"
	FieldCodigoMunicipio    = "codigo_municipio"
	FieldAPIToken           = "api_token"
)

// EmissionCheck resultado del pre-chequeo de emisión (para la UI).
type EmissionCheck struct {
	CanEmit       bool     `json:"can_emit"`
	Reason        string   `json:"reason,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// FeatureChecker controla si un tenant puede emitir NFS-e.
type FeatureChecker struct {
	tenants repository.TenantRepository
}

// NewFeatureChecker construye el verificador.
func NewFeatureChecker(tenants repository.TenantRepository) *FeatureChecker {
	return &FeatureChecker{tenants: tenants}
}

// IsFiscalConfigComplete verifica cnpj, inscrição municipal, código IBGE y token.
func IsFiscalConfigComplete(cfg *entity.FiscalConfig) (bool, []string) {
	if cfg == nil {
		return false, []string{FieldCNPJ, FieldInscricaoMunicipal, FieldCodigoMunicipio, FieldAPIToken}
	}
	var missing []string
	if strings.TrimSpace(cfg.CNPJ) == "" {
		missing = append(missing, FieldCNPJ)
	}
	if strings.TrimSpace(cfg.InscricaoMunicipal) == "" {
		missing = append(missing, FieldInscricaoMunicipal)
	}
	if strings.TrimSpace(cfg.CodigoMunicipio) == "" {
		missing = append(missing, FieldCodigoMunicipio)
	}
	if strings.TrimSpace(cfg.APITokenEncrypted) == "" {
		missing = append(missing, FieldAPIToken)
	}
	return len(missing) == 0, missing
}

// IsTenantNfseEnabled lee el flag del tenant; tenant inexistente equivale a deshabilitado.
func (f *FeatureChecker) IsTenantNfseEnabled(ctx context.Context, tenantID string) (bool, error) {
	tenant, err := f.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return false, fmt.Errorf("consultar tenant: %w", err)
	}
	return tenant != nil && tenant.NfseEnabled, nil
}

// RequireNfseEnabled devuelve el tenant o *FeatureDisabledError.
func (f *FeatureChecker) RequireNfseEnabled(ctx context.Context, tenantID string) (*entity.Tenant, error) {
	tenant, err := f.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("consultar tenant: %w", err)
	}
	if tenant == nil || !tenant.NfseEnabled {
		return nil, &domainnfse.FeatureDisabledError{TenantID: tenantID}
	}
	return tenant, nil
}

// RequireFiscalConfig devuelve *ConfigIncompleteError si falta algún campo obligatorio.
func RequireFiscalConfig(tenant *entity.Tenant) error {
	if ok, missing := IsFiscalConfigComplete(tenant.Fiscal); !ok {
		return &domainnfse.ConfigIncompleteError{MissingFields: missing}
	}
	return nil
}

// RequireEmission combina ambas precondiciones.
func (f *FeatureChecker) RequireEmission(ctx context.Context, tenantID string) (*entity.Tenant, error) {
	tenant, err := f.RequireNfseEnabled(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := RequireFiscalConfig(tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// CanEmitNfse pre-chequeo sin errores de negocio: solo devuelve error ante fallas de infraestructura.
func (f *FeatureChecker) CanEmitNfse(ctx context.Context, tenantID string) (EmissionCheck, error) {
	tenant, err := f.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return EmissionCheck{}, fmt.Errorf("consultar tenant: %w", err)
	}
	if tenant == nil || !tenant.NfseEnabled {
		return EmissionCheck{CanEmit: false, Reason: (&domainnfse.FeatureDisabledError{TenantID: tenantID}).Error()}, nil
	}
	if ok, missing := IsFiscalConfigComplete(tenant.Fiscal); !ok {
		return EmissionCheck{
			CanEmit:       false,
			Reason:        (&domainnfse.ConfigIncompleteError{MissingFields: missing}).Error(),
			MissingFields: missing,
		}, nil
	}
	return EmissionCheck{CanEmit: true}, nil
}
