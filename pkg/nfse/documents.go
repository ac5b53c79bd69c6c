// Package nfse contiene validaciones de documentos brasileños, catálogos y la
// normalización de códigos de servicio usados en la emisión de NFS-e.
package nfse

import (
	"strings"
	"unicode"
)

// Tipos de documento del tomador según la cantidad de dígitos.
const (
	DocumentCPF  = "cpf"  // persona física, 11 dígitos
	DocumentCNPJ = "cnpj" // persona jurídica, 14 dígitos
)

var cnpjWeights1 = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
var cnpjWeights2 = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// ufs unidades federativas válidas.
var ufs = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true, "DF": true,
	"ES": true, "GO": true, "MA": true, "MT": true, "MS": true, "MG": true, "PA": true,
	"PB": true, "PR": true, "PE": true, "PI": true, "RJ": true, "RN": true, "RS": true,
	"RO": true, "RR": true, "SC": true, "SP": true, "SE": true, "TO": true,
}

// OnlyNumbers elimina todo lo que no sea dígito.
func OnlyNumbers(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCPF valida el CPF (con o sin puntuación) por módulo 11.
// Secuencias de dígitos idénticos se rechazan aunque pasen el cálculo.
func ValidateCPF(cpf string) bool {
	d := OnlyNumbers(cpf)
	if len(d) != 11 || allSameDigit(d) {
		return false
	}
	return cpfDigit(d[:9], 10) == d[9] && cpfDigit(d[:10], 11) == d[10]
}

func cpfDigit(base string, weight int) byte {
	sum := 0
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * (weight - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		r = 0
	}
	return byte('0' + r)
}

// ValidateCNPJ valida el CNPJ (con o sin puntuación) por módulo 11.
func ValidateCNPJ(cnpj string) bool {
	d := OnlyNumbers(cnpj)
	if len(d) != 14 || allSameDigit(d) {
		return false
	}
	return cnpjDigit(d[:12], cnpjWeights1[:]) == d[12] && cnpjDigit(d[:13], cnpjWeights2[:]) == d[13]
}

func cnpjDigit(base string, weights []int) byte {
	sum := 0
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + (11 - r))
}

// ValidateCpfCnpj despacha por cantidad de dígitos: 11 → CPF, 14 → CNPJ; otro largo es inválido.
func ValidateCpfCnpj(doc string) bool {
	switch len(OnlyNumbers(doc)) {
	case 11:
		return ValidateCPF(doc)
	case 14:
		return ValidateCNPJ(doc)
	default:
		return false
	}
}

// DocumentKind devuelve DocumentCPF, DocumentCNPJ o "" según el largo del documento.
// No valida dígitos verificadores.
func DocumentKind(doc string) string {
	switch len(OnlyNumbers(doc)) {
	case 11:
		return DocumentCPF
	case 14:
		return DocumentCNPJ
	default:
		return ""
	}
}

// ValidateCEP exige exactamente 8 dígitos.
func ValidateCEP(cep string) bool {
	return len(OnlyNumbers(cep)) == 8
}

// ValidateUF verifica la sigla de la unidad federativa (case-insensitive).
func ValidateUF(uf string) bool {
	return ufs[strings.ToUpper(strings.TrimSpace(uf))]
}

// FormatCPF devuelve 000.000.000-00; si no hay 11 dígitos devuelve la entrada sin cambios.
func FormatCPF(cpf string) string {
	d := OnlyNumbers(cpf)
	if len(d) != 11 {
		return cpf
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// FormatCNPJ devuelve 00.000.000/0000-00; si no hay 14 dígitos devuelve la entrada sin cambios.
func FormatCNPJ(cnpj string) string {
	d := OnlyNumbers(cnpj)
	if len(d) != 14 {
		return cnpj
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// FormatCpfCnpj formatea según el largo.
func FormatCpfCnpj(doc string) string {
	switch DocumentKind(doc) {
	case DocumentCPF:
		return FormatCPF(doc)
	case DocumentCNPJ:
		return FormatCNPJ(doc)
	default:
		return doc
	}
}

// FormatCEP devuelve 00000-000; si no hay 8 dígitos devuelve la entrada sin cambios.
func FormatCEP(cep string) string {
	d := OnlyNumbers(cep)
	if len(d) != 8 {
		return cep
	}
	return d[0:5] + "-" + d[5:8]
}

func allSameDigit(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return len(d) > 0 && unicode.IsDigit(rune(d[0]))
}
