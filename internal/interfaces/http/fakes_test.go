package http_test

import (
	"context"
	"sync"

	"github.com/jhoicas/Rental-api/internal/domain"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
)

// ──── Repositorios en memoria ────

type memInvoices struct {
	mu    sync.Mutex
	byID  map[string]entity.Invoice
	order []string
}

func (m *memInvoices) Create(_ context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[inv.ID] = *inv
	m.order = append(m.order, inv.ID)
	return nil
}

func (m *memInvoices) Update(_ context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[inv.ID] = *inv
	return nil
}

func (m *memInvoices) GetByID(_ context.Context, id, tenantID string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.TenantID != tenantID {
		return nil, nil
	}
	return &inv, nil
}

func (m *memInvoices) GetByReference(_ context.Context, ref, tenantID string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.byID {
		if inv.Reference == ref && inv.TenantID == tenantID {
			return &inv, nil
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
		out = append(out, &inv)
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
			return &inv, nil
		}
	}
	return nil, nil
}

type memTenants struct {
	mu      sync.Mutex
	tenants map[string]entity.Tenant
	dps     int64
}

func (m *memTenants) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memTenants) NextDPSNumber(_ context.Context, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dps++
	return m.dps, nil
}

type memBookings map[string]*entity.Booking

func (m memBookings) GetWithDetails(_ context.Context, id, tenantID string) (*entity.Booking, error) {
	b, ok := m[id]
	if !ok || b.TenantID != tenantID {
		return nil, nil
	}
	return b, nil
}

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]entity.User
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.ErrDuplicate
	}
	m.byEmail[u.Email] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
