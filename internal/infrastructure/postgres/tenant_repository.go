package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rental-api/internal/domain"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementación de TenantRepository.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

// GetByID obtiene el tenant con su configuración fiscal (Fiscal nil si no tiene fila), o nil.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `
		SELECT t.id::text, t.name, t.nfse_enabled, t.created_at, t.updated_at,
		       fc.tenant_id IS NOT NULL,
		       fc.cnpj, fc.inscricao_municipal, fc.codigo_municipio, fc.api_token_encrypted,
		       fc.environment, fc.tax_rate, fc.iss_retido, fc.description_template,
		       fc.service_code, fc.optante_simples
		FROM tenants t
		LEFT JOIN tenant_fiscal_configs fc ON fc.tenant_id = t.id
		WHERE t.id = $1`
	var t entity.Tenant
	var hasFiscal bool
	var cnpj, im, ibge, token, env, tpl, code *string
	var rate *decimal.Decimal
	var retido, optante *bool
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.NfseEnabled, &t.CreatedAt, &t.UpdatedAt,
		&hasFiscal, &cnpj, &im, &ibge, &token, &env, &rate, &retido, &tpl, &code, &optante,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if hasFiscal {
		t.Fiscal = &entity.FiscalConfig{
			CNPJ:                derefStr(cnpj),
			InscricaoMunicipal:  derefStr(im),
			CodigoMunicipio:     derefStr(ibge),
			APITokenEncrypted:   derefStr(token),
			Environment:         derefStr(env),
			DescriptionTemplate: derefStr(tpl),
			ServiceCode:         derefStr(code),
		}
		if rate != nil {
			t.Fiscal.TaxRate = *rate
		}
		t.Fiscal.ISSRetido = retido != nil && *retido
		t.Fiscal.RegimeNormal = optante != nil && !*optante
	}
	return &t, nil
}

// NextDPSNumber incrementa y devuelve la secuencia de DPS del tenant en una sola sentencia.
func (r *TenantRepo) NextDPSNumber(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		UPDATE tenants SET dps_sequence = dps_sequence + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING dps_sequence`, tenantID).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("next dps number: %w", err)
	}
	return n, nil
}
