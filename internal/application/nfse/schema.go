package nfse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
)

// Esquemas locales de los payloads: atrapan errores de armado antes de gastar una
// llamada al proveedor. No reemplazan la validación de la prefeitura.

var enderecoSchema = map[string]any{
	"type":     "object",
	"required": []any{"logradouro", "numero", "bairro", "codigo_municipio", "uf", "cep"},
	"properties": map[string]any{
		"logradouro":       map[string]any{"type": "string", "minLength": 1},
		"numero":           map[string]any{"type": "string", "minLength": 1},
		"bairro":           map[string]any{"type": "string", "minLength": 1},
		"codigo_municipio": map[string]any{"type": "string", "pattern": `^\d{7}$`},
		"uf":               map[string]any{"type": "string", "pattern": `^[A-Z]{2}$`},
		"cep":              map[string]any{"type": "string", "pattern": `^\d{8}$`},
	},
}

var municipalSchema = map[string]any{
	"type":     "object",
	"required": []any{"data_emissao", "natureza_operacao", "prestador", "tomador", "servico"},
	"properties": map[string]any{
		"data_emissao":      map[string]any{"type": "string", "minLength": 1},
		"natureza_operacao": map[string]any{"type": "string", "minLength": 1},
		"prestador": map[string]any{
			"type":     "object",
			"required": []any{"cnpj", "inscricao_municipal", "codigo_municipio"},
			"properties": map[string]any{
				"cnpj":                map[string]any{"type": "string", "pattern": `^\d{14}$`},
				"inscricao_municipal": map[string]any{"type": "string", "minLength": 1},
				"codigo_municipio":    map[string]any{"type": "string", "pattern": `^\d{7}$`},
			},
		},
		"tomador": map[string]any{
			"type":     "object",
			"required": []any{"razao_social"},
			"anyOf": []any{
				map[string]any{"required": []any{"cpf"}},
				map[string]any{"required": []any{"cnpj"}},
			},
			"properties": map[string]any{
				"cpf":          map[string]any{"type": "string", "pattern": `^\d{11}$`},
				"cnpj":         map[string]any{"type": "string", "pattern": `^\d{14}$`},
				"razao_social": map[string]any{"type": "string", "minLength": 1},
				"endereco":     enderecoSchema,
			},
		},
		"servico": map[string]any{
			"type":     "object",
			"required": []any{"valor_servicos", "aliquota", "discriminacao", "codigo_municipio"},
			"properties": map[string]any{
				"valor_servicos":   map[string]any{"type": "number", "exclusiveMinimum": 0},
				"aliquota":         map[string]any{"type": "number", "minimum": 0, "maximum": 100},
				"discriminacao":    map[string]any{"type": "string", "minLength": 1, "maxLength": MaxDescriptionLength},
				"codigo_municipio": map[string]any{"type": "string", "pattern": `^\d{7}$`},
			},
		},
	},
}

var nationalSchema = map[string]any{
	"type": "object",
	"required": []any{
		"data_emissao", "data_competencia", "serie_dps", "numero_dps", "emitente_dps",
		"codigo_municipio_emissora", "cnpj_prestador", "codigo_opcao_simples_nacional",
		"regime_especial_tributacao", "razao_social_tomador", "codigo_municipio_prestacao",
		"codigo_tributacao_nacional_iss", "descricao_servico", "valor_servico",
		"tributacao_iss", "tipo_retencao_iss",
	},
	"anyOf": []any{
		map[string]any{"required": []any{"cpf_tomador"}},
		map[string]any{"required": []any{"cnpj_tomador"}},
	},
	// Optante ME/EPP y alícuota informada son excluyentes en el layout DPS.
	"not": map[string]any{
		"required": []any{"codigo_opcao_simples_nacional", "percentual_aliquota_iss"},
		"properties": map[string]any{
			"codigo_opcao_simples_nacional": map[string]any{"const": 3},
		},
	},
	"properties": map[string]any{
		"data_competencia":               map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"numero_dps":                     map[string]any{"type": "string", "pattern": `^\d{1,15}$`},
		"codigo_municipio_emissora":      map[string]any{"type": "string", "pattern": `^\d{7}$`},
		"codigo_municipio_prestacao":     map[string]any{"type": "string", "pattern": `^\d{7}$`},
		"cnpj_prestador":                 map[string]any{"type": "string", "pattern": `^\d{14}$`},
		"cpf_tomador":                    map[string]any{"type": "string", "pattern": `^\d{11}$`},
		"cnpj_tomador":                   map[string]any{"type": "string", "pattern": `^\d{14}$`},
		"razao_social_tomador":           map[string]any{"type": "string", "minLength": 1},
		"cep_tomador":                    map[string]any{"type": "string", "pattern": `^\d{8}$`},
		"codigo_tributacao_nacional_iss": map[string]any{"type": "string", "pattern": `^\d{6}$`},
		"descricao_servico":              map[string]any{"type": "string", "minLength": 1, "maxLength": MaxDescriptionLength},
		"valor_servico":                  map[string]any{"type": "number", "exclusiveMinimum": 0},
		"percentual_aliquota_iss":        map[string]any{"type": "number", "minimum": 0, "maximum": 100},
	},
}

var (
	schemasOnce sync.Once
	schemas     map[PayloadKind]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	schemas = make(map[PayloadKind]*jsonschema.Schema, 2)
	for kind, def := range map[PayloadKind]map[string]any{
		PayloadMunicipal: municipalSchema,
		PayloadNational:  nationalSchema,
	} {
		b, err := json.Marshal(def)
		if err != nil {
			schemasErr = fmt.Errorf("marshal schema %s: %w", kind, err)
			return
		}
		name := string(kind) + ".json"
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
			schemasErr = fmt.Errorf("add schema %s: %w", kind, err)
			return
		}
		s, err := compiler.Compile(name)
		if err != nil {
			schemasErr = fmt.Errorf("compile schema %s: %w", kind, err)
			return
		}
		schemas[kind] = s
	}
}

// ValidatePayload valida el cuerpo serializado contra el esquema de su familia.
// Una violación se reporta como *InvalidRequestError sobre el campo "payload".
func ValidatePayload(p *Payload) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	schema, ok := schemas[p.Kind]
	if !ok {
		return fmt.Errorf("nfse: familia de payload desconocida %q", p.Kind)
	}
	raw, err := json.Marshal(p.Body())
	if err != nil {
		return fmt.Errorf("nfse: serializar payload: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("nfse: decodificar payload: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return &domainnfse.InvalidRequestError{Field: "payload", Message: err.Error()}
	}
	return nil
}
