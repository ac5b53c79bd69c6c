package entity

import "time"

// Customer cliente de la locadora (tomador de la NFS-e).
type Customer struct {
	ID        string
	TenantID  string
	Name      string
	TaxID     string // CPF o CNPJ, con o sin puntuación
	Email     string
	Phone     string
	Address   *Address
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address dirección estructurada (endereço).
type Address struct {
	Street           string `json:"logradouro"`
	Number           string `json:"numero"`
	Complement       string `json:"complemento,omitempty"`
	District         string `json:"bairro"`
	City             string `json:"cidade,omitempty"`
	UF               string `json:"uf"`
	CEP              string `json:"cep"`
	MunicipalityCode string `json:"codigo_municipio"` // IBGE
}

// MissingFields devuelve los campos obligatorios vacíos para la NFS-e.
func (a *Address) MissingFields() []string {
	if a == nil {
		return []string{"endereco"}
	}
	var missing []string
	check := func(v, name string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	check(a.Street, "endereco.logradouro")
	check(a.Number, "endereco.numero")
	check(a.District, "endereco.bairro")
	check(a.MunicipalityCode, "endereco.codigo_municipio")
	check(a.UF, "endereco.uf")
	check(a.CEP, "endereco.cep")
	return missing
}

// IsEmpty indica que no hay ningún dato de dirección.
func (a *Address) IsEmpty() bool {
	return a == nil || (a.Street == "" && a.Number == "" && a.District == "" &&
		a.City == "" && a.UF == "" && a.CEP == "" && a.MunicipalityCode == "")
}
