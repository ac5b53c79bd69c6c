package dto

// Límites de paginación de los listados de NFS-e.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageRequest paginación ya normalizada.
type PageRequest struct {
	Limit  int
	Offset int
}

// Normalize aplica el límite por defecto, recorta a MaxLimit y anula offsets negativos.
func (p *PageRequest) Normalize() {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse eco de la paginación aplicada.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse cuerpo de error HTTP. Details lleva campos faltantes o erros[] del proveedor.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
