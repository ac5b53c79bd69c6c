package postgres

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// addressJSON serializa la dirección para una columna JSONB (nil si no hay datos).
func addressJSON(a *entity.Address) (*string, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func parseAddress(raw *string) (*entity.Address, error) {
	if raw == nil || *raw == "" || *raw == "null" {
		return nil, nil
	}
	var a entity.Address
	if err := json.Unmarshal([]byte(*raw), &a); err != nil {
		return nil, err
	}
	return &a, nil
}
