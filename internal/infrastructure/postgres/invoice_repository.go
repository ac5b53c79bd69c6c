package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Rental-api/internal/domain"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id::text, tenant_id::text, booking_id::text, reference, number, verification_code, status, schema_kind,
	service_value, total_value, tax_rate, tax_amount, tax_withheld,
	description, service_code, taker_name, taker_tax_id, taker_email, taker_address::text,
	xml_url, pdf_url, error_code, error_message, provider_errors::text, retry_count,
	emitted_at, cancelled_at, cancel_reason, last_sent_at, created_at, updated_at`

// Create persiste la NFS-e. La violación del índice de reserva activa se informa como ErrDuplicate.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	addr, err := addressJSON(inv.TakerAddress)
	if err != nil {
		return fmt.Errorf("serializar dirección: %w", err)
	}
	query := `
		INSERT INTO invoices (
			id, tenant_id, booking_id, reference, number, verification_code, status, schema_kind,
			service_value, total_value, tax_rate, tax_amount, tax_withheld,
			description, service_code, taker_name, taker_tax_id, taker_email, taker_address,
			xml_url, pdf_url, error_code, error_message, provider_errors, retry_count,
			emitted_at, cancelled_at, cancel_reason, last_sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19::text::jsonb, $20, $21, $22, $23, $24::text::jsonb, $25, $26, $27, $28, $29, $30, $31)`
	_, err = r.q.Exec(ctx, query,
		inv.ID, inv.TenantID, inv.BookingID, inv.Reference,
		nullIfEmpty(inv.Number), nullIfEmpty(inv.VerificationCode), string(inv.Status), inv.Schema,
		inv.ServiceValue, inv.TotalValue, inv.TaxRate, inv.TaxAmount, inv.TaxWithheld,
		inv.Description, inv.ServiceCode, inv.TakerName, inv.TakerTaxID, inv.TakerEmail, addr,
		nullIfEmpty(inv.XMLURL), nullIfEmpty(inv.PDFURL), nullIfEmpty(inv.ErrorCode), nullIfEmpty(inv.ErrorMessage),
		nullIfEmpty(inv.ProviderErrors), inv.RetryCount,
		inv.EmittedAt, inv.CancelledAt, nullIfEmpty(inv.CancelReason), inv.LastSentAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("nfs-e activa o referencia existente: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update persiste estado, errores y timestamps. Número, código de verificación y URLs
// asignados por la autoridad nunca se sobrescriben con vacío.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	addr, err := addressJSON(inv.TakerAddress)
	if err != nil {
		return fmt.Errorf("serializar dirección: %w", err)
	}
	query := `
		UPDATE invoices
		SET number            = COALESCE($3, number),
		    verification_code = COALESCE($4, verification_code),
		    xml_url           = COALESCE($5, xml_url),
		    pdf_url           = COALESCE($6, pdf_url),
		    status            = $7,
		    schema_kind       = $8,
		    service_value     = $9,
		    total_value       = $10,
		    tax_rate          = $11,
		    tax_amount        = $12,
		    tax_withheld      = $13,
		    description       = $14,
		    service_code      = $15,
		    taker_name        = $16,
		    taker_tax_id      = $17,
		    taker_email       = $18,
		    taker_address     = $19::text::jsonb,
		    error_code        = $20,
		    error_message     = $21,
		    provider_errors   = $22::text::jsonb,
		    retry_count       = $23,
		    emitted_at        = COALESCE($24, emitted_at),
		    cancelled_at      = $25,
		    cancel_reason     = $26,
		    last_sent_at      = $27,
		    updated_at        = $28
		WHERE id = $1 AND tenant_id = $2`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.TenantID,
		nullIfEmpty(inv.Number), nullIfEmpty(inv.VerificationCode), nullIfEmpty(inv.XMLURL), nullIfEmpty(inv.PDFURL),
		string(inv.Status), inv.Schema,
		inv.ServiceValue, inv.TotalValue, inv.TaxRate, inv.TaxAmount, inv.TaxWithheld,
		inv.Description, inv.ServiceCode, inv.TakerName, inv.TakerTaxID, inv.TakerEmail, addr,
		nullIfEmpty(inv.ErrorCode), nullIfEmpty(inv.ErrorMessage), nullIfEmpty(inv.ProviderErrors), inv.RetryCount,
		inv.EmittedAt, inv.CancelledAt, nullIfEmpty(inv.CancelReason), inv.LastSentAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update invoice %s: %w", inv.ID, domain.ErrNotFound)
	}
	return nil
}

// GetByID obtiene la NFS-e del tenant, o nil.
func (r *InvoiceRepo) GetByID(ctx context.Context, id, tenantID string) (*entity.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return scanInvoiceOrNil(row)
}

// GetByReference obtiene la NFS-e por la ref enviada al proveedor, o nil.
func (r *InvoiceRepo) GetByReference(ctx context.Context, ref, tenantID string) (*entity.Invoice, error) {
	row := r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE reference = $1 AND tenant_id = $2`, ref, tenantID)
	return scanInvoiceOrNil(row)
}

// ActiveForBooking devuelve la NFS-e que bloquea una nueva emisión de la reserva, o nil.
func (r *InvoiceRepo) ActiveForBooking(ctx context.Context, bookingID, tenantID string) (*entity.Invoice, error) {
	row := r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices
		WHERE booking_id = $1 AND tenant_id = $2
		  AND status IN ('PENDING', 'PROCESSING', 'AUTHORIZED', 'ERROR')
		ORDER BY created_at DESC LIMIT 1`, bookingID, tenantID)
	return scanInvoiceOrNil(row)
}

// ListByTenant lista las NFS-e del tenant, más recientes primero. Limit 0 no pagina.
func (r *InvoiceRepo) ListByTenant(ctx context.Context, tenantID string, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.BookingID != "" {
		add("booking_id::text = $%d", f.BookingID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvoiceOrNil(row pgx.Row) (*entity.Invoice, error) {
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var status string
	var number, verification, address, xmlURL, pdfURL, errCode, errMsg, provErrs, cancelReason *string
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.BookingID, &inv.Reference, &number, &verification, &status, &inv.Schema,
		&inv.ServiceValue, &inv.TotalValue, &inv.TaxRate, &inv.TaxAmount, &inv.TaxWithheld,
		&inv.Description, &inv.ServiceCode, &inv.TakerName, &inv.TakerTaxID, &inv.TakerEmail, &address,
		&xmlURL, &pdfURL, &errCode, &errMsg, &provErrs, &inv.RetryCount,
		&inv.EmittedAt, &inv.CancelledAt, &cancelReason, &inv.LastSentAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = entity.InvoiceStatus(status)
	inv.Number = derefStr(number)
	inv.VerificationCode = derefStr(verification)
	inv.XMLURL = derefStr(xmlURL)
	inv.PDFURL = derefStr(pdfURL)
	inv.ErrorCode = derefStr(errCode)
	inv.ErrorMessage = derefStr(errMsg)
	inv.ProviderErrors = derefStr(provErrs)
	inv.CancelReason = derefStr(cancelReason)
	if inv.TakerAddress, err = parseAddress(address); err != nil {
		return nil, fmt.Errorf("dirección del tomador: %w", err)
	}
	return &inv, nil
}
