package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// municipality fila de la tabla de municipios adheridos al sistema nacional.
type municipality struct {
	IBGE string
	Name string
	UF   string
}

// serviceCode traducción LC 116 -> código nacional.
type serviceCode struct {
	Municipal   string
	National    string
	Description string
}

var seedCatalogCmd = &cobra.Command{
	Use:   "seed-catalog",
	Short: "Carga municipios del sistema nacional y la tabla de códigos de servicio",
	Long: `Lee los archivos publicados (CSV separado por ';' o XLSX) y genera las sentencias
de carga para nfse_national_municipalities y nfse_service_code_map.

Municipios: ibge;nome;uf
Códigos:    codigo_lc116;codigo_nacional;descricao

Con --out escribe el script SQL; sin él lo aplica en la base configurada.`,
	Example: `  nfsectl seed-catalog --municipios municipios.csv --latin1 --out seed.sql
  nfsectl seed-catalog --codigos codigos.xlsx`,
	Args: cobra.NoArgs,
	RunE: runSeedCatalog,
}

func init() {
	f := seedCatalogCmd.Flags()
	f.String("municipios", "", "archivo de municipios (csv|xlsx)")
	f.String("codigos", "", "archivo de códigos de servicio (csv|xlsx)")
	f.Bool("latin1", false, "los CSV vienen en ISO-8859-1")
	f.String("out", "", "escribir el script SQL en este archivo")
	rootCmd.AddCommand(seedCatalogCmd)
}

func runSeedCatalog(cmd *cobra.Command, _ []string) error {
	munisPath, _ := cmd.Flags().GetString("municipios")
	codesPath, _ := cmd.Flags().GetString("codigos")
	latin1, _ := cmd.Flags().GetBool("latin1")
	outPath, _ := cmd.Flags().GetString("out")
	if munisPath == "" && codesPath == "" {
		return fmt.Errorf("indicar --municipios y/o --codigos")
	}

	var munis []municipality
	var codes []serviceCode
	if munisPath != "" {
		rows, err := readTable(munisPath, latin1)
		if err != nil {
			return err
		}
		munis = parseMunicipalities(rows)
	}
	if codesPath != "" {
		rows, err := readTable(codesPath, latin1)
		if err != nil {
			return err
		}
		codes = parseServiceCodes(rows)
	}
	script := catalogSQL(munis, codes)

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(script), 0o644); err != nil {
			return fmt.Errorf("escribir script: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generado %s: %d municipios, %d códigos\n", outPath, len(munis), len(codes))
		return nil
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	runner, err := openRunner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer runner.close()
	if err := runner.exec(cmd.Context(), script); err != nil {
		return fmt.Errorf("aplicar catálogo: %w", err)
	}
	log.Info().Int("municipios", len(munis)).Int("codigos", len(codes)).Msg("catálogo NFS-e cargado")
	return nil
}

// readTable devuelve las filas del archivo: primera hoja si es XLSX, CSV ';' en otro caso.
func readTable(path string, latin1 bool) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("abrir %s: %w", path, err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("leer %s: %w", path, err)
		}
		return rows, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir %s: %w", path, err)
	}
	defer file.Close()
	return readCSV(file, latin1)
}

func readCSV(r io.Reader, latin1 bool) ([][]string, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leer csv: %w", err)
	}
	return rows, nil
}

// parseMunicipalities descarta cabecera y filas sin código IBGE de 7 dígitos.
func parseMunicipalities(rows [][]string) []municipality {
	seen := map[string]bool{}
	var out []municipality
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		ibge := pkgnfse.OnlyNumbers(row[0])
		if len(ibge) != 7 || seen[ibge] {
			continue
		}
		seen[ibge] = true
		m := municipality{IBGE: ibge}
		if len(row) > 1 {
			m.Name = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			m.UF = strings.ToUpper(strings.TrimSpace(row[2]))
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IBGE < out[j].IBGE })
	return out
}

// parseServiceCodes normaliza el código LC 116 a 6 dígitos con el mismo criterio de la emisión.
func parseServiceCodes(rows [][]string) []serviceCode {
	byCode := map[string]serviceCode{}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		national := pkgnfse.OnlyNumbers(row[1])
		if len(national) != 6 {
			continue
		}
		normalized, err := pkgnfse.NormalizeServiceCode(nil, row[0], false)
		if err != nil || normalized.IsNacional {
			continue
		}
		sc := serviceCode{Municipal: normalized.Code, National: national}
		if len(row) > 2 {
			sc.Description = strings.TrimSpace(row[2])
		}
		byCode[sc.Municipal] = sc
	}
	out := make([]serviceCode, 0, len(byCode))
	for _, sc := range byCode {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Municipal < out[j].Municipal })
	return out
}

// catalogSQL genera upserts válidos en PostgreSQL y SQLite.
func catalogSQL(munis []municipality, codes []serviceCode) string {
	var b strings.Builder
	b.WriteString("-- Catálogo NFS-e nacional\n")
	if len(munis) > 0 {
		b.WriteString("INSERT INTO nfse_national_municipalities (ibge_code, name, uf) VALUES\n")
		for i, m := range munis {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s')", m.IBGE, escapeSQL(m.Name), escapeSQL(m.UF))
			b.WriteString(listSep(i, len(munis)))
		}
		b.WriteString("ON CONFLICT (ibge_code) DO UPDATE SET name = excluded.name, uf = excluded.uf;\n")
	}
	if len(codes) > 0 {
		b.WriteString("INSERT INTO nfse_service_code_map (municipal_code, national_code, description) VALUES\n")
		for i, c := range codes {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s')", c.Municipal, c.National, escapeSQL(c.Description))
			b.WriteString(listSep(i, len(codes)))
		}
		b.WriteString("ON CONFLICT (municipal_code) DO UPDATE SET national_code = excluded.national_code, " +
			"description = excluded.description;\n")
	}
	return b.String()
}

func listSep(i, n int) string {
	if i < n-1 {
		return ",\n"
	}
	return "\n"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
