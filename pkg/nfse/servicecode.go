package nfse

import (
	"fmt"
	"strings"
)

// Catalog es la fuente de las tablas de municipios nacionales y de traducción de códigos.
// StaticCatalog es la implementación por defecto; la capa de infraestructura puede
// cargar otra desde la base de datos.
type Catalog interface {
	IsNationalMunicipality(ibgeCode string) bool
	NationalCodeFor(municipalCode string) (string, bool)
}

// StaticCatalog catálogo en memoria (solo lectura tras construirse).
type StaticCatalog struct {
	municipalities map[string]bool
	codes          map[string]string
}

var _ Catalog = (*StaticCatalog)(nil)

// NewStaticCatalog construye un catálogo con los municipios y la tabla indicados.
// Las claves de codes se normalizan a la forma de 6 dígitos.
func NewStaticCatalog(municipalities []string, codes map[string]string) *StaticCatalog {
	c := &StaticCatalog{
		municipalities: make(map[string]bool, len(municipalities)),
		codes:          make(map[string]string, len(codes)),
	}
	for _, m := range municipalities {
		if d := OnlyNumbers(m); d != "" {
			c.municipalities[d] = true
		}
	}
	for k, v := range codes {
		key := OnlyNumbers(k)
		if expanded, ok := expandMunicipalCode(k); ok {
			key = expanded
		}
		c.codes[key] = OnlyNumbers(v)
	}
	return c
}

// DefaultCatalog catálogo con las tablas embebidas del paquete.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(defaultNationalMunicipalities, defaultServiceCodeMap)
}

// IsNationalMunicipality indica si el municipio (IBGE) emite por el sistema nacional.
func (c *StaticCatalog) IsNationalMunicipality(ibgeCode string) bool {
	return c.municipalities[OnlyNumbers(ibgeCode)]
}

// NationalCodeFor busca la traducción de un código municipal de 6 dígitos.
func (c *StaticCatalog) NationalCodeFor(municipalCode string) (string, bool) {
	code, ok := c.codes[OnlyNumbers(municipalCode)]
	return code, ok
}

// Len devuelve la cantidad de municipios y de traducciones cargadas.
func (c *StaticCatalog) Len() (municipalities, codes int) {
	return len(c.municipalities), len(c.codes)
}

// ServiceCode resultado de la normalización.
// Fallback indica que se usó DefaultNationalServiceCode por falta de traducción.
type ServiceCode struct {
	IsNacional bool
	Code       string
	Fallback   bool
	Original   string
}

// NormalizeServiceCode limpia el código configurado, detecta su familia y, si el municipio
// exige el sistema nacional y el código es LC 116, lo traduce con el catálogo.
//
//	"990101", true  → {IsNacional: true,  Code: "990101"}
//	"01.05",  false → {IsNacional: false, Code: "010500"}
//	"17.05",  true  → {IsNacional: true,  Code: "990101"} (tabla)
func NormalizeServiceCode(catalog Catalog, code string, forceNational bool) (ServiceCode, error) {
	raw := strings.TrimSpace(code)
	if raw == "" {
		return ServiceCode{}, fmt.Errorf("nfse: código de servicio vacío")
	}
	digits := OnlyNumbers(raw)

	if isNationalCode(raw, digits) {
		return ServiceCode{IsNacional: true, Code: digits, Original: raw}, nil
	}

	municipal, ok := expandMunicipalCode(raw)
	if !ok {
		return ServiceCode{}, fmt.Errorf("nfse: código de servicio %q no reconocido", raw)
	}
	if !forceNational {
		return ServiceCode{IsNacional: false, Code: municipal, Original: raw}, nil
	}

	if catalog != nil {
		if national, found := catalog.NationalCodeFor(municipal); found && national != "" {
			return ServiceCode{IsNacional: true, Code: national, Original: raw}, nil
		}
	}
	return ServiceCode{IsNacional: true, Code: DefaultNationalServiceCode, Fallback: true, Original: raw}, nil
}

// isNationalCode: 6 dígitos sin puntuación comenzando con "99".
func isNationalCode(raw, digits string) bool {
	return !strings.Contains(raw, ".") && len(digits) == 6 && strings.HasPrefix(digits, "99")
}

// expandMunicipalCode convierte "17.05", "1.05", "1705" o "170500" a la forma "IISS00"/"IISSDD".
func expandMunicipalCode(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ".") {
		parts := strings.Split(raw, ".")
		if len(parts) < 2 || len(parts) > 3 {
			return "", false
		}
		item, sub := OnlyNumbers(parts[0]), OnlyNumbers(parts[1])
		if item == "" || sub == "" || len(item) > 2 || len(sub) > 2 {
			return "", false
		}
		detail := "00"
		if len(parts) == 3 {
			detail = OnlyNumbers(parts[2])
			if len(detail) == 0 || len(detail) > 2 {
				return "", false
			}
		}
		return pad2(item) + pad2(sub) + pad2(detail), true
	}
	d := OnlyNumbers(raw)
	switch len(d) {
	case 3:
		return "0" + d + "00", true
	case 4:
		return d + "00", true
	case 6:
		return d, true
	default:
		return "", false
	}
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
