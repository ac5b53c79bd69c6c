package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rental-api/internal/domain"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementación de TenantRepository sobre SQLite.
type TenantRepo struct {
	db DBTX
}

// NewTenantRepository construye el adaptador.
func NewTenantRepository(db DBTX) *TenantRepo {
	return &TenantRepo{db: db}
}

// GetByID obtiene el tenant con su configuración fiscal (Fiscal nil si no tiene fila), o nil.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	query := `
		SELECT t.id, t.name, t.nfse_enabled, t.created_at, t.updated_at,
		       fc.tenant_id IS NOT NULL,
		       fc.cnpj, fc.inscricao_municipal, fc.codigo_municipio, fc.api_token_encrypted,
		       fc.environment, fc.tax_rate, fc.iss_retido, fc.description_template,
		       fc.service_code, fc.optante_simples
		FROM tenants t
		LEFT JOIN tenant_fiscal_configs fc ON fc.tenant_id = t.id
		WHERE t.id = ?`
	var t entity.Tenant
	var created, updated string
	var hasFiscal bool
	var cnpj, im, ibge, token, env, rate, tpl, code sql.NullString
	var retido, optante sql.NullBool
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.NfseEnabled, &created, &updated,
		&hasFiscal, &cnpj, &im, &ibge, &token, &env, &rate, &retido, &tpl, &code, &optante,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if hasFiscal {
		t.Fiscal = &entity.FiscalConfig{
			CNPJ:                cnpj.String,
			InscricaoMunicipal:  im.String,
			CodigoMunicipio:     ibge.String,
			APITokenEncrypted:   token.String,
			Environment:         env.String,
			DescriptionTemplate: tpl.String,
			ServiceCode:         code.String,
			ISSRetido:           retido.Bool,
			RegimeNormal:        optante.Valid && !optante.Bool,
		}
		if rate.String != "" {
			if t.Fiscal.TaxRate, err = decimal.NewFromString(rate.String); err != nil {
				return nil, fmt.Errorf("alícuota del tenant %s: %w", id, err)
			}
		}
	}
	return &t, nil
}

// NextDPSNumber incrementa y devuelve la secuencia de DPS del tenant en una sola sentencia.
func (r *TenantRepo) NextDPSNumber(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE tenants SET dps_sequence = dps_sequence + 1, updated_at = ?
		WHERE id = ?
		RETURNING dps_sequence`, formatTime(time.Now()), tenantID).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("next dps number: %w", err)
	}
	return n, nil
}
