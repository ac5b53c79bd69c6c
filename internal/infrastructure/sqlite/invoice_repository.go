package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Rental-api/internal/domain"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository sobre SQLite.
type InvoiceRepo struct {
	db DBTX
}

// NewInvoiceRepository construye el adaptador.
func NewInvoiceRepository(db DBTX) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

const invoiceColumns = `
	id, tenant_id, booking_id, reference, number, verification_code, status, schema_kind,
	service_value, total_value, tax_rate, tax_amount, tax_withheld,
	description, service_code, taker_name, taker_tax_id, taker_email, taker_address,
	xml_url, pdf_url, error_code, error_message, provider_errors, retry_count,
	emitted_at, cancelled_at, cancel_reason, last_sent_at, created_at, updated_at`

// Create persiste la NFS-e.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	addr, err := addressJSON(inv.TakerAddress)
	if err != nil {
		return fmt.Errorf("serializar dirección: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TenantID, inv.BookingID, inv.Reference,
		nullIfEmpty(inv.Number), nullIfEmpty(inv.VerificationCode), string(inv.Status), inv.Schema,
		inv.ServiceValue.String(), inv.TotalValue.String(), inv.TaxRate.String(), inv.TaxAmount.String(), inv.TaxWithheld,
		inv.Description, inv.ServiceCode, inv.TakerName, inv.TakerTaxID, inv.TakerEmail, addr,
		nullIfEmpty(inv.XMLURL), nullIfEmpty(inv.PDFURL), nullIfEmpty(inv.ErrorCode), nullIfEmpty(inv.ErrorMessage),
		nullIfEmpty(inv.ProviderErrors), inv.RetryCount,
		formatTimePtr(inv.EmittedAt), formatTimePtr(inv.CancelledAt), nullIfEmpty(inv.CancelReason), formatTimePtr(inv.LastSentAt),
		formatTime(inv.CreatedAt), formatTime(inv.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("nfs-e activa o referencia existente: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update persiste estado, errores y timestamps sin borrar los datos de la autoridad.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	addr, err := addressJSON(inv.TakerAddress)
	if err != nil {
		return fmt.Errorf("serializar dirección: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices
		SET number            = COALESCE(?, number),
		    verification_code = COALESCE(?, verification_code),
		    xml_url           = COALESCE(?, xml_url),
		    pdf_url           = COALESCE(?, pdf_url),
		    status = ?, schema_kind = ?,
		    service_value = ?, total_value = ?, tax_rate = ?, tax_amount = ?, tax_withheld = ?,
		    description = ?, service_code = ?,
		    taker_name = ?, taker_tax_id = ?, taker_email = ?, taker_address = ?,
		    error_code = ?, error_message = ?, provider_errors = ?, retry_count = ?,
		    emitted_at   = COALESCE(?, emitted_at),
		    cancelled_at = ?, cancel_reason = ?, last_sent_at = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		nullIfEmpty(inv.Number), nullIfEmpty(inv.VerificationCode), nullIfEmpty(inv.XMLURL), nullIfEmpty(inv.PDFURL),
		string(inv.Status), inv.Schema,
		inv.ServiceValue.String(), inv.TotalValue.String(), inv.TaxRate.String(), inv.TaxAmount.String(), inv.TaxWithheld,
		inv.Description, inv.ServiceCode,
		inv.TakerName, inv.TakerTaxID, inv.TakerEmail, addr,
		nullIfEmpty(inv.ErrorCode), nullIfEmpty(inv.ErrorMessage), nullIfEmpty(inv.ProviderErrors), inv.RetryCount,
		formatTimePtr(inv.EmittedAt),
		formatTimePtr(inv.CancelledAt), nullIfEmpty(inv.CancelReason), formatTimePtr(inv.LastSentAt), formatTime(inv.UpdatedAt),
		inv.ID, inv.TenantID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update invoice %s: %w", inv.ID, domain.ErrNotFound)
	}
	return nil
}

// GetByID obtiene la NFS-e del tenant, o nil.
func (r *InvoiceRepo) GetByID(ctx context.Context, id, tenantID string) (*entity.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ? AND tenant_id = ?`, id, tenantID)
	return scanInvoiceOrNil(row)
}

// GetByReference obtiene la NFS-e por la ref del proveedor, o nil.
func (r *InvoiceRepo) GetByReference(ctx context.Context, ref, tenantID string) (*entity.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE reference = ? AND tenant_id = ?`, ref, tenantID)
	return scanInvoiceOrNil(row)
}

// ActiveForBooking devuelve la NFS-e que bloquea una nueva emisión de la reserva, o nil.
func (r *InvoiceRepo) ActiveForBooking(ctx context.Context, bookingID, tenantID string) (*entity.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices
		WHERE booking_id = ? AND tenant_id = ?
		  AND status IN ('PENDING', 'PROCESSING', 'AUTHORIZED', 'ERROR')
		ORDER BY created_at DESC LIMIT 1`, bookingID, tenantID)
	return scanInvoiceOrNil(row)
}

// ListByTenant lista las NFS-e del tenant, más recientes primero. Limit 0 no pagina.
func (r *InvoiceRepo) ListByTenant(ctx context.Context, tenantID string, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	where := []string{"tenant_id = ?"}
	args := []any{tenantID}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.BookingID != "" {
		where = append(where, "booking_id = ?")
		args = append(args, f.BookingID)
	}
	if f.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		where = append(where, "created_at <= ?")
		args = append(args, formatTime(*f.To))
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoiceOrNil(row scanner) (*entity.Invoice, error) {
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func scanInvoice(row scanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var status string
	var number, verification, address, xmlURL, pdfURL, errCode, errMsg, provErrs, cancelReason sql.NullString
	var emitted, cancelled, lastSent sql.NullString
	var created, updated string
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.BookingID, &inv.Reference, &number, &verification, &status, &inv.Schema,
		&inv.ServiceValue, &inv.TotalValue, &inv.TaxRate, &inv.TaxAmount, &inv.TaxWithheld,
		&inv.Description, &inv.ServiceCode, &inv.TakerName, &inv.TakerTaxID, &inv.TakerEmail, &address,
		&xmlURL, &pdfURL, &errCode, &errMsg, &provErrs, &inv.RetryCount,
		&emitted, &cancelled, &cancelReason, &lastSent, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = entity.InvoiceStatus(status)
	inv.Number = number.String
	inv.VerificationCode = verification.String
	inv.XMLURL = xmlURL.String
	inv.PDFURL = pdfURL.String
	inv.ErrorCode = errCode.String
	inv.ErrorMessage = errMsg.String
	inv.ProviderErrors = provErrs.String
	inv.CancelReason = cancelReason.String
	if inv.TakerAddress, err = parseAddress(address); err != nil {
		return nil, fmt.Errorf("dirección del tomador: %w", err)
	}
	if inv.EmittedAt, err = parseTimePtr(emitted); err != nil {
		return nil, err
	}
	if inv.CancelledAt, err = parseTimePtr(cancelled); err != nil {
		return nil, err
	}
	if inv.LastSentAt, err = parseTimePtr(lastSent); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &inv, nil
}
