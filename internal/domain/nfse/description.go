package nfse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// Variables reconocidas en la plantilla de descripción.
const (
	VarBookingNumber = "numero_reserva"
	VarStartDate     = "data_inicio"
	VarEndDate       = "data_fim"
	VarTotalDays     = "total_dias"
	VarCustomerName  = "cliente_nome"
	VarItems         = "itens"
	VarTotalPrice    = "valor_total"
)

// TemplateVariables conjunto cerrado de variables, en el orden en que se documentan.
var TemplateVariables = []string{
	VarBookingNumber, VarStartDate, VarEndDate, VarTotalDays,
	VarCustomerName, VarItems, VarTotalPrice,
}

// DefaultTemplate descripción usada cuando el tenant no configuró una propia.
const DefaultTemplate = "Locação de equipamentos - Reserva {numero_reserva}\n" +
	"Período: {data_inicio} a {data_fim} ({total_dias} dias)\n" +
	"Cliente: {cliente_nome}\n" +
	"Itens:\n{itens}\n" +
	"Valor total: {valor_total}"

var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

func isTemplateVariable(name string) bool {
	for _, v := range TemplateVariables {
		if v == name {
			return true
		}
	}
	return false
}

// ProcessTemplate reemplaza cada {nombre} o #{nombre} reconocido por su valor.
// Las variables ausentes en vars se reemplazan por "".
func ProcessTemplate(tpl string, vars map[string]string) string {
	out := tpl
	for _, name := range TemplateVariables {
		value := vars[name]
		out = strings.ReplaceAll(out, "#{"+name+"}", value)
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

// ValidateTemplate devuelve los nombres de variables no reconocidos, sin repetir,
// en orden de aparición. Lista vacía = plantilla válida.
func ValidateTemplate(tpl string) []string {
	unknown := []string{}
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(tpl, -1) {
		name := m[1]
		if isTemplateVariable(name) || seen[name] {
			continue
		}
		seen[name] = true
		unknown = append(unknown, name)
	}
	return unknown
}

// FormatItemsList una línea por ítem: "- {equipo} ({qty}x) - R$ {importe}".
func FormatItemsList(items []entity.BookingItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		amount := it.Subtotal
		if amount.IsZero() {
			amount = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		}
		lines = append(lines, fmt.Sprintf("- %s (%dx) - R$ %s", it.EquipmentName, it.Quantity, FormatAmount(amount)))
	}
	return strings.Join(lines, "\n")
}

// FormatAmount formato pt-BR con dos decimales: 1.234,56.
func FormatAmount(d decimal.Decimal) string {
	return brPrinter.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// FormatCurrency igual que FormatAmount con prefijo "R$ ".
func FormatCurrency(d decimal.Decimal) string {
	return "R$ " + FormatAmount(d)
}

// FormatDate dd/mm/aaaa en horario de Brasília.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(pkgnfse.Location()).Format("02/01/2006")
}

// CalendarDayDiff diferencia en días calendario: ceil(|end-start| / 24h).
func CalendarDayDiff(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

// RentalDays días de locación cobrados, contando ambos extremos: CalendarDayDiff + 1.
// Es el valor de {total_dias} en la descripción.
func RentalDays(start, end time.Time) int {
	return CalendarDayDiff(start, end) + 1
}

// BuildVariables arma las variables de la plantilla a partir de la reserva.
func BuildVariables(b *entity.Booking) map[string]string {
	vars := map[string]string{
		VarBookingNumber: b.Number,
		VarStartDate:     FormatDate(b.StartDate),
		VarEndDate:       FormatDate(b.EndDate),
		VarItems:         FormatItemsList(b.Items),
		VarTotalPrice:    FormatCurrency(b.TotalPrice),
	}
	if !b.StartDate.IsZero() && !b.EndDate.IsZero() {
		vars[VarTotalDays] = strconv.Itoa(RentalDays(b.StartDate, b.EndDate))
	}
	if b.Customer != nil {
		vars[VarCustomerName] = b.Customer.Name
	}
	return vars
}

// RenderDescription aplica la plantilla del tenant (o DefaultTemplate) a la reserva.
func RenderDescription(tpl string, b *entity.Booking) string {
	if strings.TrimSpace(tpl) == "" {
		tpl = DefaultTemplate
	}
	return strings.TrimSpace(ProcessTemplate(tpl, BuildVariables(b)))
}
