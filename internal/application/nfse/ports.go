package nfse

import (
	"context"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
)

// FocusClient puerto de salida hacia el proveedor de NFS-e.
// Lo implementa *focusnfe.Client; en tests se inyecta un fake.
type FocusClient interface {
	EmitirNfse(ctx context.Context, ref string, payload any) (*domainnfse.ProviderResponse, error)
	ConsultarNfse(ctx context.Context, ref string) (*domainnfse.ProviderResponse, error)
	CancelarNfse(ctx context.Context, ref, justificativa string) (*domainnfse.ProviderResponse, error)
	ReenviarEmail(ctx context.Context, ref string, emails []string) error
}

// ClientFactory crea el cliente del tenant con su token descifrado y ambiente.
type ClientFactory func(token, environment string) FocusClient

// TokenDecrypter descifra el token guardado en la configuración fiscal.
// Lo implementa *tokencrypt.Cipher.
type TokenDecrypter interface {
	Decrypt(encrypted string) (string, error)
}

// ReportWriter genera el reporte de NFS-e (XLSX) para contabilidad.
type ReportWriter interface {
	WriteInvoices(tenantName string, invoices []*entity.Invoice) ([]byte, error)
}

// TxRunner ejecuta fn en una transacción con los repos de emisión atados a ella.
// Lo implementan postgres.TxRunner y sqlite.TxRunner.
type TxRunner interface {
	RunEmission(ctx context.Context, fn func(invoices repository.InvoiceRepository, tenants repository.TenantRepository) error) error
}

// directRunner ejecuta fn sin transacción sobre los repos del servicio.
type directRunner struct {
	invoices repository.InvoiceRepository
	tenants  repository.TenantRepository
}

func (d directRunner) RunEmission(_ context.Context, fn func(repository.InvoiceRepository, repository.TenantRepository) error) error {
	return fn(d.invoices, d.tenants)
}
