package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jhoicas/Rental-api/migrations"
)

// Migrate ejecuta los scripts embebidos en orden. Los scripts son idempotentes
// (CREATE ... IF NOT EXISTS), por eso no se lleva registro de versiones aplicadas.
func Migrate(ctx context.Context, q Querier) ([]string, error) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("listar migraciones: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		script, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return nil, fmt.Errorf("leer %s: %w", name, err)
		}
		// Sin argumentos pgx usa el protocolo simple y acepta varias sentencias.
		if _, err := q.Exec(ctx, string(script)); err != nil {
			return nil, fmt.Errorf("aplicar %s: %w", name, err)
		}
	}
	return names, nil
}
