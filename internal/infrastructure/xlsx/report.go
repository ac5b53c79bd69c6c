// Package xlsx genera el reporte de NFS-e en planilla para la contabilidad.
package xlsx

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// SheetName nombre de la hoja del reporte.
const SheetName = "NFS-e"

var headers = []string{
	"Data de emissão",
	"Número",
	"Código de verificação",
	"Status",
	"Tomador",
	"CPF/CNPJ",
	"Valor do serviço",
	"Alíquota ISS (%)",
	"Valor ISS",
	"ISS retido",
	"Descrição",
	"Referência",
	"Erro",
}

// ReportWriter implementa el puerto de reportes con excelize.
type ReportWriter struct {
	now func() time.Time
}

// NewReportWriter construye el writer.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{now: time.Now}
}

// WriteInvoices devuelve el XLSX (bytes) con una fila por NFS-e.
// Los valores van como números para que la planilla pueda sumarlos.
func (w *ReportWriter) WriteInvoices(tenantName string, invoices []*entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// El libro nuevo trae "Sheet1"; se renombra en lugar de crear otra hoja.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}

	title := fmt.Sprintf("%s - NFS-e exportadas em %s", tenantName, domainnfse.FormatDate(w.now()))
	_ = f.SetCellValue(SheetName, "A1", title)

	const headerRow = 3
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
		_ = f.SetCellStyle(SheetName, "A3", last, style)
		_ = f.SetCellStyle(SheetName, "A1", "A1", style)
	}

	row := headerRow + 1
	for _, inv := range invoices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		emitted := ""
		if inv.EmittedAt != nil {
			emitted = inv.EmittedAt.In(pkgnfse.Location()).Format("02/01/2006 15:04")
		}
		withheld := "Não"
		if inv.TaxWithheld {
			withheld = "Sim"
		}
		write(1, emitted)
		write(2, inv.Number)
		write(3, inv.VerificationCode)
		write(4, string(inv.Status))
		write(5, inv.TakerName)
		write(6, pkgnfse.FormatCpfCnpj(pkgnfse.OnlyNumbers(inv.TakerTaxID)))
		write(7, inv.ServiceValue.InexactFloat64())
		write(8, inv.TaxRate.InexactFloat64())
		write(9, inv.TaxAmount.InexactFloat64())
		write(10, withheld)
		write(11, truncate(inv.Description, 140))
		write(12, inv.Reference)
		write(13, inv.ErrorMessage)
		row++
	}

	// Total de valores autorizados.
	if len(invoices) > 0 {
		_ = f.SetCellValue(SheetName, fmt.Sprintf("F%d", row), "Total")
		_ = f.SetCellFormula(SheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("SUMIF(D%d:D%d,\"%s\",G%d:G%d)",
			headerRow+1, row-1, entity.InvoiceStatusAuthorized, headerRow+1, row-1))
		_ = f.SetCellFormula(SheetName, fmt.Sprintf("I%d", row), fmt.Sprintf("SUMIF(D%d:D%d,\"%s\",I%d:I%d)",
			headerRow+1, row-1, entity.InvoiceStatusAuthorized, headerRow+1, row-1))
	}

	_ = f.SetColWidth(SheetName, "A", "A", 18) // emisión
	_ = f.SetColWidth(SheetName, "B", "C", 16)
	_ = f.SetColWidth(SheetName, "D", "D", 12)
	_ = f.SetColWidth(SheetName, "E", "E", 32) // tomador
	_ = f.SetColWidth(SheetName, "F", "F", 20)
	_ = f.SetColWidth(SheetName, "G", "J", 14) // valores
	_ = f.SetColWidth(SheetName, "K", "K", 48)
	_ = f.SetColWidth(SheetName, "L", "M", 36)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
