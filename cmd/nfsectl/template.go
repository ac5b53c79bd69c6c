package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	appnfse "github.com/jhoicas/Rental-api/internal/application/nfse"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
)

var previewTemplateCmd = &cobra.Command{
	Use:   "preview-template",
	Short: "Renderiza una plantilla de descripción con una reserva de ejemplo",
	Example: `  nfsectl preview-template --template "Locação {numero_reserva} - {itens}"
  nfsectl preview-template --file descricao.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tpl, _ := cmd.Flags().GetString("template")
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("leer plantilla: %w", err)
			}
			tpl = string(b)
		}

		check := appnfse.ValidateTemplate(tpl)
		out := cmd.OutOrStdout()
		if !check.Valid {
			fmt.Fprintf(out, "variables desconocidas: %s\n", strings.Join(check.Unknown, ", "))
			fmt.Fprintf(out, "disponibles: %s\n\n", strings.Join(domainnfse.TemplateVariables, ", "))
		}
		fmt.Fprintln(out, domainnfse.RenderDescription(tpl, appnfse.SampleBooking()))
		return nil
	},
}

func init() {
	previewTemplateCmd.Flags().String("template", "", "plantilla; vacía usa la descripción por defecto")
	previewTemplateCmd.Flags().String("file", "", "leer la plantilla desde un archivo")
	rootCmd.AddCommand(previewTemplateCmd)
}
