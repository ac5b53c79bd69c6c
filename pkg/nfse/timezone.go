package nfse

import "time"

// saoPaulo huso civil del emisor; si la base tz no está disponible se usa UTC-3 fijo.
var saoPaulo = loadSaoPaulo()

func loadSaoPaulo() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// Location devuelve America/Sao_Paulo.
func Location() *time.Location { return saoPaulo }

// EmissionClockSkew margen hacia el pasado aplicado a data_emissao: el proveedor rechaza
// fechas que percibe como futuras.
const EmissionClockSkew = 15 * time.Minute

// EmissionTime devuelve now en horario de Brasília menos EmissionClockSkew.
func EmissionTime(now time.Time) time.Time {
	return now.In(saoPaulo).Add(-EmissionClockSkew)
}

// FormatEmissionTime formato ISO 8601 con offset que exige el proveedor.
func FormatEmissionTime(t time.Time) string {
	return t.In(saoPaulo).Format("2006-01-02T15:04:05-07:00")
}

// CivilDate fecha civil (YYYY-MM-DD) en horario de Brasília.
func CivilDate(t time.Time) string {
	return t.In(saoPaulo).Format("2006-01-02")
}
