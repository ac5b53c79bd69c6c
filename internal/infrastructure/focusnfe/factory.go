package focusnfe

import (
	"net/http"
	"time"

	appnfse "github.com/jhoicas/Rental-api/internal/application/nfse"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// Factory crea un Client por tenant (cada tenant tiene su propio token y ambiente).
// Todos los clientes comparten el *http.Client para reutilizar conexiones.
type Factory struct {
	stagingURL    string
	productionURL string
	httpClient    *http.Client
}

// NewFactory construye la fábrica. URLs vacías usan las constantes del proveedor.
func NewFactory(stagingURL, productionURL string, timeout time.Duration) *Factory {
	if stagingURL == "" {
		stagingURL = BaseURLHomologacao
	}
	if productionURL == "" {
		productionURL = BaseURLProducao
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Factory{
		stagingURL:    stagingURL,
		productionURL: productionURL,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// New devuelve el cliente del tenant para el ambiente indicado.
func (f *Factory) New(token, environment string) *Client {
	base := f.stagingURL
	if environment == pkgnfse.EnvProducao {
		base = f.productionURL
	}
	return NewClient(token, environment, WithHTTPClient(f.httpClient), WithBaseURL(base))
}

// ClientFactory adapta la fábrica al puerto de la capa de aplicación.
func (f *Factory) ClientFactory() appnfse.ClientFactory {
	return func(token, environment string) appnfse.FocusClient {
		return f.New(token, environment)
	}
}
