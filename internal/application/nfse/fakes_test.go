package nfse_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	appnfse "github.com/jhoicas/Rental-api/internal/application/nfse"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// ──── Repositorios en memoria ────

type memInvoices struct {
	mu    sync.Mutex
	byID  map[string]*entity.Invoice
	order []string
}

var _ repository.InvoiceRepository = (*memInvoices)(nil)

func newMemInvoices() *memInvoices {
	return &memInvoices{byID: map[string]*entity.Invoice{}}
}

func (m *memInvoices) Create(_ context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[inv.ID]; ok {
		return errors.New("duplicado")
	}
	cp := *inv
	m.byID[inv.ID] = &cp
	m.order = append(m.order, inv.ID)
	return nil
}

func (m *memInvoices) Update(_ context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[inv.ID]; !ok {
		return errors.New("no existe")
	}
	cp := *inv
	m.byID[inv.ID] = &cp
	return nil
}

func (m *memInvoices) GetByID(_ context.Context, id, tenantID string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.TenantID != tenantID {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (m *memInvoices) GetByReference(_ context.Context, ref, tenantID string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.byID {
		if inv.Reference == ref && inv.TenantID == tenantID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memInvoices) ListByTenant(_ context.Context, tenantID string, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Invoice
	for _, id := range m.order {
		inv := m.byID[id]
		if inv.TenantID != tenantID || (f.Status != "" && inv.Status != f.Status) {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memInvoices) ActiveForBooking(_ context.Context, bookingID, tenantID string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		inv := m.byID[id]
		if inv.BookingID == bookingID && inv.TenantID == tenantID &&
			inv.Status != entity.InvoiceStatusCancelled && inv.Status != entity.InvoiceStatusRejected {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memInvoices) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memInvoices) only(t *testing.T) *entity.Invoice {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.order) != 1 {
		t.Fatalf("se esperaba 1 NFS-e persistida, hay %d", len(m.order))
	}
	cp := *m.byID[m.order[0]]
	return &cp
}

type memTenants struct {
	mu      sync.Mutex
	tenants map[string]*entity.Tenant
	dps     map[string]int64
}

var _ repository.TenantRepository = (*memTenants)(nil)

func (m *memTenants) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	if t.Fiscal != nil {
		f := *t.Fiscal
		cp.Fiscal = &f
	}
	return &cp, nil
}

func (m *memTenants) NextDPSNumber(_ context.Context, tenantID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dps[tenantID]++
	return m.dps[tenantID], nil
}

type memBookings struct {
	bookings map[string]*entity.Booking
}

var _ repository.BookingRepository = (*memBookings)(nil)

func (m *memBookings) GetWithDetails(_ context.Context, id, tenantID string) (*entity.Booking, error) {
	b, ok := m.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, nil
	}
	return b, nil
}

// ──── Proveedor fake ────

type fakeClient struct {
	mu sync.Mutex

	emitResp    *domainnfse.ProviderResponse
	emitErr     error
	consultResp *domainnfse.ProviderResponse
	consultErr  error
	cancelErr   error
	emailErr    error

	emitCalls    int
	consultCalls int
	cancelCalls  int
	emailCalls   int

	lastRef     string
	lastPayload any
	lastEmails  []string
}

var _ appnfse.FocusClient = (*fakeClient)(nil)

func (f *fakeClient) EmitirNfse(_ context.Context, ref string, payload any) (*domainnfse.ProviderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitCalls++
	f.lastRef = ref
	f.lastPayload = payload
	if f.emitErr != nil {
		return nil, f.emitErr
	}
	if f.emitResp == nil {
		return &domainnfse.ProviderResponse{Ref: ref, Status: domainnfse.ProviderStatusProcessing}, nil
	}
	cp := *f.emitResp
	return &cp, nil
}

func (f *fakeClient) ConsultarNfse(_ context.Context, ref string) (*domainnfse.ProviderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consultCalls++
	f.lastRef = ref
	if f.consultErr != nil {
		return nil, f.consultErr
	}
	if f.consultResp == nil {
		return &domainnfse.ProviderResponse{Ref: ref}, nil
	}
	cp := *f.consultResp
	return &cp, nil
}

func (f *fakeClient) CancelarNfse(_ context.Context, ref, _ string) (*domainnfse.ProviderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	f.lastRef = ref
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &domainnfse.ProviderResponse{Ref: ref, Status: domainnfse.ProviderStatusCancelled}, nil
}

func (f *fakeClient) ReenviarEmail(_ context.Context, ref string, emails []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailCalls++
	f.lastRef = ref
	f.lastEmails = emails
	return f.emailErr
}

func notFoundErr() error {
	return &domainnfse.FocusAPIError{Kind: domainnfse.CodeFocusNotFound, Status: http.StatusNotFound, Message: "não encontrado"}
}

// plainTokens "descifra" tokens con prefijo enc:.
type plainTokens struct{}

func (plainTokens) Decrypt(s string) (string, error) {
	if !strings.HasPrefix(s, "enc:") {
		return "", errors.New("formato inválido")
	}
	return strings.TrimPrefix(s, "enc:"), nil
}

// txRecorder delega en los repos en memoria y puede simular un commit fallido.
type txRecorder struct {
	invoices  *memInvoices
	tenants   *memTenants
	calls     int
	commitErr error
}

func (r *txRecorder) RunEmission(_ context.Context, fn func(repository.InvoiceRepository, repository.TenantRepository) error) error {
	r.calls++
	if err := fn(r.invoices, r.tenants); err != nil {
		return err
	}
	return r.commitErr
}

// ──── Fixture ────

const (
	tenantID  = "tenant-1"
	bookingID = "booking-1"

	municipalIBGE = "3550308" // São Paulo: fuera del sistema nacional
	nationalIBGE  = "5300108" // Brasília: sistema nacional
)

var fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *appnfse.Service
	invoices *memInvoices
	tenants  *memTenants
	bookings *memBookings
	client   *fakeClient

	gotToken string
	gotEnv   string
}

func fiscalConfig(ibge string) *entity.FiscalConfig {
	return &entity.FiscalConfig{
		CNPJ:               "11.222.333/0001-81",
		InscricaoMunicipal: "1234567",
		CodigoMunicipio:    ibge,
		APITokenEncrypted:  "enc:token-focus",
		Environment:        pkgnfse.EnvHomologacao,
		TaxRate:            decimal.RequireFromString("2.00"),
		ServiceCode:        "17.05",
	}
}

func customerAddress() *entity.Address {
	return &entity.Address{
		Street:           "Rua das Flores",
		Number:           "100",
		District:         "Centro",
		City:             "São Paulo",
		UF:               "sp",
		CEP:              "01001-000",
		MunicipalityCode: municipalIBGE,
	}
}

func sampleBooking() *entity.Booking {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &entity.Booking{
		ID:        bookingID,
		TenantID:  tenantID,
		Number:    "R-100",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 4),
		Customer: &entity.Customer{
			ID:       "cust-1",
			TenantID: tenantID,
			Name:     "Construtora Alfa Ltda",
			TaxID:    "12345678000195",
			Email:    "financeiro@alfa.com.br",
			Address:  customerAddress(),
		},
		Items: []entity.BookingItem{
			{EquipmentName: "Betoneira 400L", Quantity: 2, UnitPrice: decimal.RequireFromString("500.00"), Subtotal: decimal.RequireFromString("1000.00")},
		},
		TotalPrice: decimal.RequireFromString("1000.00"),
	}
}

func newFixture(t *testing.T, ibge string) *fixture {
	t.Helper()
	f := &fixture{
		invoices: newMemInvoices(),
		tenants: &memTenants{
			tenants: map[string]*entity.Tenant{
				tenantID: {ID: tenantID, Name: "Locadora Teste", NfseEnabled: true, Fiscal: fiscalConfig(ibge)},
			},
			dps: map[string]int64{},
		},
		bookings: &memBookings{bookings: map[string]*entity.Booking{bookingID: sampleBooking()}},
		client:   &fakeClient{},
	}
	refs := 0
	f.svc = appnfse.NewService(appnfse.ServiceDeps{
		Invoices: f.invoices,
		Tenants:  f.tenants,
		Bookings: f.bookings,
		Catalog:  pkgnfse.DefaultCatalog(),
		Tokens:   plainTokens{},
		Clients: func(token, env string) appnfse.FocusClient {
			f.gotToken, f.gotEnv = token, env
			return f.client
		},
		Now: func() time.Time { return fixedNow },
		NewReference: func() string {
			refs++
			return appnfse.ReferencePrefix + "test-" + strconv.Itoa(refs)
		},
	})
	return f
}

// seed persiste una NFS-e en el estado indicado.
func (f *fixture) seed(t *testing.T, status entity.InvoiceStatus) *entity.Invoice {
	t.Helper()
	inv := &entity.Invoice{
		ID:           "inv-1",
		TenantID:     tenantID,
		BookingID:    bookingID,
		Reference:    "nfse-seed",
		Status:       status,
		Schema:       entity.InvoiceSchemaMunicipal,
		ServiceValue: decimal.RequireFromString("1000.00"),
		TotalValue:   decimal.RequireFromString("1000.00"),
		TakerName:    "Construtora Alfa Ltda",
		TakerTaxID:   "12345678000195",
		TakerEmail:   "financeiro@alfa.com.br",
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	if status == entity.InvoiceStatusAuthorized {
		inv.Number = "2024000123"
		inv.VerificationCode = "ABCD-1234"
		emitted := fixedNow
		inv.EmittedAt = &emitted
	}
	if err := f.invoices.Create(context.Background(), inv); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return inv
}
