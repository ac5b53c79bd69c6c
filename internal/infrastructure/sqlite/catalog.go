package sqlite

import (
	"context"
	"fmt"

	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// LoadCatalog lee los catálogos de NFS-e nacional. Con ambas tablas vacías devuelve el embebido.
func LoadCatalog(ctx context.Context, db DBTX) (*pkgnfse.StaticCatalog, error) {
	municipalities, err := queryStrings(ctx, db, `SELECT ibge_code FROM nfse_national_municipalities`)
	if err != nil {
		return nil, fmt.Errorf("list national municipalities: %w", err)
	}

	codes := map[string]string{}
	rows, err := db.QueryContext(ctx, `SELECT municipal_code, national_code FROM nfse_service_code_map`)
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

func queryStrings(ctx context.Context, db DBTX, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
