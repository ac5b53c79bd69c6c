// Package focusnfe implementa el cliente HTTP de la API REST de Focus NFe (v2).
package focusnfe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/Rental-api/internal/domain/nfse"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	BaseURLProducao    = "https://api.focusnfe.com.br/v2"
	BaseURLHomologacao = "https://homologacao.focusnfe.com.br/v2"

	// MinJustificativa largo mínimo exigido por la prefeitura para cancelar.
	MinJustificativa = 15
	// MaxJustificativa largo máximo aceptado por Focus NFe.
	MaxJustificativa = 255

	defaultTimeout = 30 * time.Second
)

// ── Implementación HTTP ────────────────────────────────────────────────────────

// Client cliente autenticado por token (Basic Auth: token como usuario, contraseña vacía).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configura el cliente.
type Option func(*Client)

// WithBaseURL reemplaza la URL base (tests o proxys).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient inyecta el *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout timeout de red por llamada.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient construye el cliente para el ambiente indicado (homologacao | producao).
// Cualquier valor distinto de producao usa homologación.
func NewClient(token, environment string, opts ...Option) *Client {
	c := &Client{
		baseURL:    BaseURLHomologacao,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	if environment == pkgnfse.EnvProducao {
		c.baseURL = BaseURLProducao
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL URL efectiva (útil para logs).
func (c *Client) BaseURL() string { return c.baseURL }

// EmitirNfse POST /nfse?ref={ref}. La ref es la clave de idempotencia del proveedor.
func (c *Client) EmitirNfse(ctx context.Context, ref string, payload any) (*nfse.ProviderResponse, error) {
	if err := requireRef(ref); err != nil {
		return nil, err
	}
	q := url.Values{"ref": []string{ref}}
	return c.do(ctx, http.MethodPost, "/nfse", q, payload)
}

// ConsultarNfse GET /nfse/{ref}.
func (c *Client) ConsultarNfse(ctx context.Context, ref string) (*nfse.ProviderResponse, error) {
	if err := requireRef(ref); err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, "/nfse/"+url.PathEscape(ref), nil, nil)
}

// CancelarNfse DELETE /nfse/{ref} con {justificativa}.
// Rechaza localmente justificativas de menos de 15 caracteres.
func (c *Client) CancelarNfse(ctx context.Context, ref, justificativa string) (*nfse.ProviderResponse, error) {
	if err := requireRef(ref); err != nil {
		return nil, err
	}
	j := strings.TrimSpace(justificativa)
	n := utf8.RuneCountInString(j)
	if n < MinJustificativa {
		return nil, &nfse.InvalidRequestError{
			Field:   "justificativa",
			Message: fmt.Sprintf("debe tener al menos %d caracteres (tiene %d)", MinJustificativa, n),
		}
	}
	if n > MaxJustificativa {
		return nil, &nfse.InvalidRequestError{
			Field:   "justificativa",
			Message: fmt.Sprintf("debe tener como máximo %d caracteres", MaxJustificativa),
		}
	}
	resp, err := c.do(ctx, http.MethodDelete, "/nfse/"+url.PathEscape(ref), nil, map[string]string{"justificativa": j})
	if err != nil {
		return nil, err
	}
	if err := nfse.MapCancelRejection(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ReenviarEmail POST /nfse/{ref}/email con {emails:[...]}. Rechaza localmente una lista vacía.
func (c *Client) ReenviarEmail(ctx context.Context, ref string, emails []string) error {
	if err := requireRef(ref); err != nil {
		return err
	}
	clean := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			clean = append(clean, e)
		}
	}
	if len(clean) == 0 {
		return &nfse.InvalidRequestError{Field: "emails", Message: "la lista de destinatarios está vacía"}
	}
	_, err := c.do(ctx, http.MethodPost, "/nfse/"+url.PathEscape(ref)+"/email", nil, map[string][]string{"emails": clean})
	return err
}

// do ejecuta la petición autenticada. El cuerpo se interpreta como JSON; uno ilegible
// se trata como {}. Las respuestas no-2xx pasan por nfse.MapHTTPError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*nfse.ProviderResponse, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("focus nfe: serializar body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("focus nfe: crear request: %w", err)
	}
	req.SetBasicAuth(c.token, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("focus nfe: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("focus nfe: leer respuesta: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nfse.MapHTTPError(resp.StatusCode, raw)
	}

	var out nfse.ProviderResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			out = nfse.ProviderResponse{}
		}
	}
	return &out, nil
}

func requireRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return &nfse.InvalidRequestError{Field: "ref", Message: "referencia vacía"}
	}
	return nil
}
