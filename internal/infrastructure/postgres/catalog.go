package postgres

import (
	"context"
	"fmt"

	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// LoadCatalog lee municipios del sistema nacional y la tabla de códigos de servicio.
// Con ambas tablas vacías devuelve el catálogo embebido.
func LoadCatalog(ctx context.Context, q Querier) (*pkgnfse.StaticCatalog, error) {
	var municipalities []string
	rows, err := q.Query(ctx, `SELECT ibge_code FROM nfse_national_municipalities`)
	if err != nil {
		return nil, fmt.Errorf("list national municipalities: %w", err)
	}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan municipality: %w", err)
		}
		municipalities = append(municipalities, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list national municipalities: %w", err)
	}

	codes := map[string]string{}
	rows, err = q.Query(ctx, `SELECT municipal_code, national_code FROM nfse_service_code_map`)
	if err != nil {
		return nil, fmt.Errorf("list service codes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var municipal, national string
		if err := rows.Scan(&municipal, &national); err != nil {
			return nil, fmt.Errorf("scan service code: %w", err)
		}
		codes[municipal] = national
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list service codes: %w", err)
	}

	if len(municipalities) == 0 && len(codes) == 0 {
		return pkgnfse.DefaultCatalog(), nil
	}
	return pkgnfse.NewStaticCatalog(municipalities, codes), nil
}
