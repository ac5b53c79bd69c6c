// Package nfse orquesta la emisión de NFS-e a partir de reservas: precondiciones del tenant,
// armado del payload, envío a Focus NFe y ciclo de vida posterior (consulta, cancelación,
// reenvío de e-mail y reintento).
package nfse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Rental-api/internal/domain/entity"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
	"github.com/jhoicas/Rental-api/internal/domain/repository"
	"github.com/jhoicas/Rental-api/pkg/logger"
	pkgnfse "github.com/jhoicas/Rental-api/pkg/nfse"
)

// ReferencePrefix prefijo de la ref enviada al proveedor.
const ReferencePrefix = "nfse-"

// ServiceDeps dependencias del servicio.
type ServiceDeps struct {
	Invoices repository.InvoiceRepository
	Tenants  repository.TenantRepository
	Bookings repository.BookingRepository
	Catalog  pkgnfse.Catalog
	Tokens   TokenDecrypter
	Clients  ClientFactory
	Reports  ReportWriter // opcional; sin él ExportReport falla
	// Tx reserva el número de DPS y persiste la NFS-e en una transacción.
	// Sin él ambos pasos corren por separado.
	Tx     TxRunner
	Logger *logger.Logger

	// Now y NewReference se reemplazan en tests.
	Now          func() time.Time
	NewReference func() string
}

// Service orquestador de NFS-e.
type Service struct {
	invoices repository.InvoiceRepository
	tenants  repository.TenantRepository
	bookings repository.BookingRepository
	catalog  pkgnfse.Catalog
	tokens   TokenDecrypter
	clients  ClientFactory
	reports  ReportWriter
	tx       TxRunner
	feature  *FeatureChecker
	log      *logger.Logger
	now      func() time.Time
	newRef   func() string
}

// NewService construye el orquestador.
func NewService(d ServiceDeps) *Service {
	s := &Service{
		invoices: d.Invoices,
		tenants:  d.Tenants,
		bookings: d.Bookings,
		catalog:  d.Catalog,
		tokens:   d.Tokens,
		clients:  d.Clients,
		reports:  d.Reports,
		tx:       d.Tx,
		feature:  NewFeatureChecker(d.Tenants),
		log:      d.Logger,
		now:      d.Now,
		newRef:   d.NewReference,
	}
	if s.catalog == nil {
		s.catalog = pkgnfse.DefaultCatalog()
	}
	if s.tx == nil {
		s.tx = directRunner{invoices: d.Invoices, tenants: d.Tenants}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.WithComponent("nfse")
	if s.now == nil {
		s.now = time.Now
	}
	if s.newRef == nil {
		s.newRef = func() string { return ReferencePrefix + uuid.New().String() }
	}
	return s
}

// Feature expone el verificador de precondiciones (middleware y preflight).
func (s *Service) Feature() *FeatureChecker { return s.feature }

// CreateOptions opciones de la emisión.
type CreateOptions struct {
	// SendEmail reenvía la NFS-e al tomador si la autorización es inmediata.
	SendEmail bool
}

// EmissionResult resultado de negocio de una emisión. Success=false no es un error de Go:
// la NFS-e quedó persistida en ERROR (o REJECTED) y el detalle está en Err.
type EmissionResult struct {
	Success    bool
	Invoice    *entity.Invoice
	Err        error
	EmailError error
}

// ErrorCode código de la taxonomía del fallo (vacío si Success).
func (r *EmissionResult) ErrorCode() string {
	if r.Err == nil {
		return ""
	}
	return domainnfse.CodeOf(r.Err)
}

// ── Emisión ──────────────────────────────────────────────────────────────────

// CreateFromBooking emite la NFS-e de una reserva.
//
// Precondiciones (devueltas como error): NFS-e habilitada, configuración fiscal completa,
// token legible, reserva existente, tomador con documento y dirección exigible, y sin otra
// NFS-e activa. La factura se persiste en PENDING antes de llamar al proveedor; cualquier
// falla posterior (validación del payload o respuesta del proveedor) la deja en ERROR y se
// informa en el resultado.
func (s *Service) CreateFromBooking(ctx context.Context, bookingID, tenantID string, opts CreateOptions) (*EmissionResult, error) {
	tenant, client, err := s.emissionContext(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetWithDetails(ctx, bookingID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("consultar reserva: %w", err)
	}
	if booking == nil {
		return nil, &domainnfse.InvoiceNotFoundError{ID: bookingID}
	}

	// Formato del tomador: precondición, no se persiste nada.
	if _, err := ResolveTaxpayer(booking.Customer, tenant.Fiscal.ISSRetido); err != nil {
		return nil, err
	}

	active, err := s.invoices.ActiveForBooking(ctx, bookingID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("consultar nfs-e de la reserva: %w", err)
	}
	if active != nil && isBlocking(active.Status) {
		return nil, &domainnfse.InvoiceStatusError{InvoiceID: active.ID, Current: active.Status, Operation: "emitir de nuevo"}
	}

	now := s.now()
	inv := &entity.Invoice{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		BookingID: booking.ID,
		Reference: s.newRef(),
		Status:    entity.InvoiceStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.snapshot(inv, tenant, booking)

	// Si el insert falla (otra emisión ganó la carrera) el número de DPS no se consume.
	var payload *Payload
	var buildErr error
	err = s.tx.RunEmission(ctx, func(invoices repository.InvoiceRepository, tenants repository.TenantRepository) error {
		payload, buildErr = s.buildPayload(ctx, tenants, tenant, booking, inv)
		if buildErr != nil {
			s.recordFailure(inv, buildErr)
		}
		return invoices.Create(ctx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("persistir nfs-e: %w", err)
	}
	if buildErr != nil {
		s.log.Warn().Err(buildErr).Str("invoice_id", inv.ID).Str("booking_id", bookingID).
			Msg("NFS-e no emitida: payload inválido")
		return &EmissionResult{Success: false, Invoice: inv, Err: buildErr}, nil
	}
	return s.submit(ctx, client, inv, payload, opts), nil
}

// Retry reintenta una NFS-e en ERROR. Primero consulta la ref al proveedor: si la conoce
// (el envío anterior llegó) se adopta su estado, o se informa el conflicto cuando ese estado
// no puede seguir a ERROR; si no la conoce, se reenvía con la misma ref.
func (s *Service) Retry(ctx context.Context, invoiceID, tenantID string, opts CreateOptions) (*EmissionResult, error) {
	tenant, client, err := s.emissionContext(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	inv, err := s.mustGet(ctx, invoiceID, tenantID)
	if err != nil {
		return nil, err
	}
	if inv.Status != entity.InvoiceStatusError {
		return nil, &domainnfse.InvoiceStatusError{InvoiceID: inv.ID, Current: inv.Status, Operation: "reintentar"}
	}

	resp, err := client.ConsultarNfse(ctx, inv.Reference)
	switch {
	case err == nil:
		// El proveedor conoce la ref: la nota nunca se reenvía.
		next, known := domainnfse.MapProviderStatus(resp.Status)
		if !known {
			resp.Status = domainnfse.ProviderStatusProcessing
			next = entity.InvoiceStatusProcessing
		}
		if !inv.Status.CanTransitionTo(next) {
			mismatch := &domainnfse.InvoiceStatusError{InvoiceID: inv.ID, Current: next, Operation: "reintentar"}
			s.log.WithTenant(tenantID).Warn().Str("invoice_id", inv.ID).Str("ref", inv.Reference).
				Str("provider_status", resp.Status).Msg("estado del proveedor incompatible con el reintento")
			s.recordFailure(inv, mismatch)
			s.persist(ctx, inv)
			return &EmissionResult{Success: false, Invoice: inv, Err: mismatch}, nil
		}
		s.applyProviderResponse(inv, resp)
		s.persist(ctx, inv)
		return s.resultFor(ctx, client, inv, opts), nil
	case !domainnfse.IsNotFound(err):
		s.recordFailure(inv, err)
		s.persist(ctx, inv)
		return &EmissionResult{Success: false, Invoice: inv, Err: err}, nil
	}

	booking, err := s.bookings.GetWithDetails(ctx, inv.BookingID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("consultar reserva: %w", err)
	}
	if booking == nil {
		return nil, &domainnfse.InvoiceNotFoundError{ID: inv.BookingID}
	}
	if _, err := ResolveTaxpayer(booking.Customer, tenant.Fiscal.ISSRetido); err != nil {
		return nil, err
	}
	// La NFS-e no fue emitida: se toma una foto nueva con los datos corregidos.
	s.snapshot(inv, tenant, booking)

	payload, buildErr := s.buildPayload(ctx, s.tenants, tenant, booking, inv)
	if buildErr != nil {
		s.recordFailure(inv, buildErr)
		s.persist(ctx, inv)
		return &EmissionResult{Success: false, Invoice: inv, Err: buildErr}, nil
	}
	return s.submit(ctx, client, inv, payload, opts), nil
}

// submit envía el payload y aplica la respuesta. Nunca devuelve error: los fallos quedan
// registrados en la factura.
func (s *Service) submit(ctx context.Context, client FocusClient, inv *entity.Invoice, payload *Payload, opts CreateOptions) *EmissionResult {
	log := s.log.WithTenant(inv.TenantID).With().Str("invoice_id", inv.ID).Str("ref", inv.Reference).Str("schema", string(payload.Kind)).Logger()

	resp, err := client.EmitirNfse(ctx, inv.Reference, payload.Body())
	if err != nil {
		s.recordFailure(inv, err)
		s.persist(ctx, inv)
		log.Warn().Err(err).Str("code", domainnfse.CodeOf(err)).Msg("emisión rechazada por el proveedor")
		return &EmissionResult{Success: false, Invoice: inv, Err: err}
	}

	if _, known := domainnfse.MapProviderStatus(resp.Status); !known {
		// Aceptada sin estado reconocible: queda en procesamiento hasta la próxima consulta.
		resp.Status = domainnfse.ProviderStatusProcessing
	}
	s.applyProviderResponse(inv, resp)
	s.persist(ctx, inv)
	log.Info().Str("status", string(inv.Status)).Msg("NFS-e enviada")
	return s.resultFor(ctx, client, inv, opts)
}

// resultFor arma el resultado según el estado final y reenvía el e-mail si corresponde.
// Un fallo del e-mail no invalida la emisión.
func (s *Service) resultFor(ctx context.Context, client FocusClient, inv *entity.Invoice, opts CreateOptions) *EmissionResult {
	if inv.Status == entity.InvoiceStatusRejected {
		return &EmissionResult{Success: false, Invoice: inv, Err: rejectionError(inv)}
	}
	res := &EmissionResult{Success: true, Invoice: inv}
	if opts.SendEmail && inv.Status == entity.InvoiceStatusAuthorized && inv.TakerEmail != "" {
		if err := client.ReenviarEmail(ctx, inv.Reference, []string{inv.TakerEmail}); err != nil {
			s.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo enviar el e-mail de la NFS-e")
			res.EmailError = err
		} else {
			t := s.now()
			inv.LastSentAt = &t
			s.persist(ctx, inv)
		}
	}
	return res
}

// ── Ciclo de vida ────────────────────────────────────────────────────────────

// SyncStatus consulta el estado en el proveedor. Las facturas AUTHORIZED, CANCELLED y
// REJECTED se devuelven tal cual, sin llamada de red.
func (s *Service) SyncStatus(ctx context.Context, invoiceID, tenantID string) (*entity.Invoice, error) {
	inv, err := s.mustGet(ctx, invoiceID, tenantID)
	if err != nil {
		return nil, err
	}
	if inv.Status.IsSettled() {
		return inv, nil
	}
	client, err := s.clientForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp, err := client.ConsultarNfse(ctx, inv.Reference)
	if err != nil {
		return nil, err
	}
	before := inv.Status
	s.applyProviderResponse(inv, resp)
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("actualizar nfs-e: %w", err)
	}
	if before != inv.Status {
		s.log.Info().Str("invoice_id", inv.ID).Str("from", string(before)).Str("to", string(inv.Status)).
			Msg("estado de NFS-e sincronizado")
	}
	return inv, nil
}

// Cancel cancela una NFS-e AUTHORIZED. El número y el código de verificación se conservan.
func (s *Service) Cancel(ctx context.Context, invoiceID, tenantID, justification string) (*entity.Invoice, error) {
	inv, err := s.mustGet(ctx, invoiceID, tenantID)
	if err != nil {
		return nil, err
	}
	if inv.Status != entity.InvoiceStatusAuthorized {
		return nil, &domainnfse.InvoiceStatusError{InvoiceID: inv.ID, Current: inv.Status, Operation: "cancelar"}
	}
	client, err := s.clientForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := client.CancelarNfse(ctx, inv.Reference, justification); err != nil {
		return nil, err
	}

	now := s.now()
	inv.Status = entity.InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = strings.TrimSpace(justification)
	inv.UpdatedAt = now
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("actualizar nfs-e: %w", err)
	}
	s.log.Info().Str("invoice_id", inv.ID).Str("numero", inv.Number).Msg("NFS-e cancelada")
	return inv, nil
}

// SendInvoiceEmail reenvía la NFS-e AUTHORIZED. Sin destinatarios usa el e-mail del tomador.
func (s *Service) SendInvoiceEmail(ctx context.Context, invoiceID, tenantID string, emails []string) (*entity.Invoice, error) {
	inv, err := s.mustGet(ctx, invoiceID, tenantID)
	if err != nil {
		return nil, err
	}
	if inv.Status != entity.InvoiceStatusAuthorized {
		return nil, &domainnfse.InvoiceStatusError{InvoiceID: inv.ID, Current: inv.Status, Operation: "enviar por e-mail"}
	}
	recipients := cleanEmails(emails)
	if len(recipients) == 0 && inv.TakerEmail != "" {
		recipients = []string{inv.TakerEmail}
	}
	if len(recipients) == 0 {
		return nil, &domainnfse.TaxpayerDataError{MissingFields: []string{"email"}, Reason: "el tomador no tiene e-mail"}
	}
	client, err := s.clientForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := client.ReenviarEmail(ctx, inv.Reference, recipients); err != nil {
		return nil, err
	}
	now := s.now()
	inv.LastSentAt = &now
	inv.UpdatedAt = now
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("actualizar nfs-e: %w", err)
	}
	return inv, nil
}

// Get devuelve la NFS-e del tenant.
func (s *Service) Get(ctx context.Context, invoiceID, tenantID string) (*entity.Invoice, error) {
	return s.mustGet(ctx, invoiceID, tenantID)
}

// List lista las NFS-e del tenant.
func (s *Service) List(ctx context.Context, tenantID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &domainnfse.InvalidRequestError{Field: "status", Message: "estado desconocido " + string(filter.Status)}
	}
	list, err := s.invoices.ListByTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("listar nfs-e: %w", err)
	}
	return list, nil
}

// ExportReport genera el XLSX de las NFS-e filtradas.
func (s *Service) ExportReport(ctx context.Context, tenantID string, filter entity.InvoiceFilter) ([]byte, error) {
	if s.reports == nil {
		return nil, errors.New("nfse: exportación no configurada")
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("consultar tenant: %w", err)
	}
	name := tenantID
	if tenant != nil && tenant.Name != "" {
		name = tenant.Name
	}
	filter.Limit = 0
	list, err := s.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	return s.reports.WriteInvoices(name, list)
}

// ── Internos ─────────────────────────────────────────────────────────────────

// emissionContext valida las precondiciones de emisión y crea el cliente del tenant.
func (s *Service) emissionContext(ctx context.Context, tenantID string) (*entity.Tenant, FocusClient, error) {
	tenant, err := s.feature.RequireEmission(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.clientFor(tenant)
	if err != nil {
		return nil, nil, err
	}
	return tenant, client, nil
}

// clientForTenant solo exige configuración completa: una NFS-e ya emitida se puede consultar
// o cancelar aunque la emisión se haya deshabilitado después.
func (s *Service) clientForTenant(ctx context.Context, tenantID string) (FocusClient, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("consultar tenant: %w", err)
	}
	if tenant == nil {
		return nil, &domainnfse.FeatureDisabledError{TenantID: tenantID}
	}
	if err := RequireFiscalConfig(tenant); err != nil {
		return nil, err
	}
	return s.clientFor(tenant)
}

func (s *Service) clientFor(tenant *entity.Tenant) (FocusClient, error) {
	token, err := s.tokens.Decrypt(tenant.Fiscal.APITokenEncrypted)
	if err != nil {
		s.log.WithTenant(tenant.ID).Error().Err(err).Msg("token del proveedor ilegible")
		return nil, &domainnfse.ConfigIncompleteError{MissingFields: []string{FieldAPIToken}}
	}
	env := tenant.Fiscal.Environment
	if env == "" {
		env = pkgnfse.EnvHomologacao
	}
	return s.clients(token, env), nil
}

func (s *Service) mustGet(ctx context.Context, invoiceID, tenantID string) (*entity.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("consultar nfs-e: %w", err)
	}
	if inv == nil {
		return nil, &domainnfse.InvoiceNotFoundError{ID: invoiceID}
	}
	return inv, nil
}

// snapshot copia valores, descripción y datos del tomador a la factura.
func (s *Service) snapshot(inv *entity.Invoice, tenant *entity.Tenant, b *entity.Booking) {
	cfg := tenant.Fiscal
	amounts := ComputeAmounts(b, cfg)
	inv.ServiceValue = amounts.ServiceValue
	inv.TotalValue = amounts.ServiceValue
	inv.TaxRate = amounts.TaxRate
	inv.TaxAmount = amounts.TaxAmount
	inv.TaxWithheld = amounts.Withheld
	inv.Description = truncateRunes(domainnfse.RenderDescription(cfg.DescriptionTemplate, b), MaxDescriptionLength)
	inv.ServiceCode = strings.TrimSpace(cfg.ServiceCode)
	inv.Schema = string(KindFor(s.catalog, cfg.CodigoMunicipio))
	if c := b.Customer; c != nil {
		inv.TakerName = strings.TrimSpace(c.Name)
		inv.TakerTaxID = pkgnfse.OnlyNumbers(c.TaxID)
		inv.TakerEmail = strings.TrimSpace(c.Email)
		inv.TakerAddress = nil
		if !c.Address.IsEmpty() {
			addr := *c.Address
			inv.TakerAddress = &addr
		}
	}
}

// buildPayload arma el payload de la familia del municipio. Reserva el número de DPS
// solo para la familia nacional.
func (s *Service) buildPayload(ctx context.Context, tenants repository.TenantRepository, tenant *entity.Tenant, b *entity.Booking, inv *entity.Invoice) (*Payload, error) {
	kind := PayloadKind(inv.Schema)
	in := PayloadInput{
		Fiscal:      tenant.Fiscal,
		Customer:    b.Customer,
		Description: inv.Description,
		Amounts: Amounts{
			ServiceValue: inv.ServiceValue,
			TaxRate:      inv.TaxRate,
			TaxAmount:    inv.TaxAmount,
			Withheld:     inv.TaxWithheld,
		},
		ServiceDate: b.StartDate,
		Now:         s.now(),
	}
	if kind == PayloadNational {
		// Se valida el tomador antes de consumir un número de la secuencia.
		if _, err := ResolveTaxpayer(b.Customer, inv.TaxWithheld); err != nil {
			return nil, err
		}
		n, err := tenants.NextDPSNumber(ctx, tenant.ID)
		if err != nil {
			return nil, fmt.Errorf("reservar número de DPS: %w", err)
		}
		in.DPSNumber = n
	}
	p, err := BuildPayload(kind, s.catalog, in)
	if err != nil {
		return nil, err
	}
	if p.ServiceCode.Fallback {
		s.log.Warn().Str("tenant_id", tenant.ID).Str("codigo_servico", p.ServiceCode.Original).
			Str("codigo_nacional", p.ServiceCode.Code).Msg("código de servicio sin traducción nacional; se usa el genérico")
	}
	return p, nil
}

// applyProviderResponse captura los datos de la autoridad y avanza el estado si la
// transición es válida.
func (s *Service) applyProviderResponse(inv *entity.Invoice, resp *domainnfse.ProviderResponse) {
	inv.CaptureAuthority(resp.Numero, resp.CodigoVerificacao, resp.CaminhoXMLNotaFiscal, resp.PDFURL())
	next, ok := domainnfse.MapProviderStatus(resp.Status)
	if !ok {
		if resp.Status != "" {
			s.log.Warn().Str("invoice_id", inv.ID).Str("provider_status", resp.Status).Msg("estado del proveedor desconocido")
		}
		return
	}
	if !inv.Status.CanTransitionTo(next) {
		s.log.Warn().Str("invoice_id", inv.ID).Str("from", string(inv.Status)).Str("to", string(next)).
			Msg("transición de estado ignorada")
		return
	}
	now := s.now()
	inv.Status = next
	inv.UpdatedAt = now
	switch next {
	case entity.InvoiceStatusAuthorized:
		inv.ClearError()
		if inv.EmittedAt == nil {
			inv.EmittedAt = &now
		}
	case entity.InvoiceStatusProcessing:
		inv.ClearError()
	case entity.InvoiceStatusRejected:
		inv.ErrorCode = domainnfse.ProviderStatusRejected
		inv.ErrorMessage = joinMessages(resp)
		inv.ProviderErrors = encodeProviderErrors(resp.Erros)
	case entity.InvoiceStatusCancelled:
		if inv.CancelledAt == nil {
			inv.CancelledAt = &now
		}
	}
}

// recordFailure deja la factura en ERROR con el detalle del fallo.
func (s *Service) recordFailure(inv *entity.Invoice, err error) {
	inv.Status = entity.InvoiceStatusError
	inv.RetryCount++
	inv.ErrorCode = domainnfse.CodeOf(err)
	inv.ErrorMessage = err.Error()
	inv.ProviderErrors = ""
	var apiErr *domainnfse.FocusAPIError
	if errors.As(err, &apiErr) {
		inv.ProviderErrors = encodeProviderErrors(apiErr.Errors)
	}
	inv.UpdatedAt = s.now()
}

// persist actualiza la factura; un fallo se registra pero no altera el resultado ya
// obtenido del proveedor (la próxima consulta reconcilia el estado).
func (s *Service) persist(ctx context.Context, inv *entity.Invoice) {
	if err := s.invoices.Update(ctx, inv); err != nil {
		s.log.Error().Err(err).Str("invoice_id", inv.ID).Str("status", string(inv.Status)).
			Msg("no se pudo persistir el estado de la NFS-e")
	}
}

// isBlocking estados que impiden emitir otra NFS-e para la misma reserva.
func isBlocking(st entity.InvoiceStatus) bool {
	return st == entity.InvoiceStatusPending || st == entity.InvoiceStatusProcessing ||
		st == entity.InvoiceStatusAuthorized || st == entity.InvoiceStatusError
}

func rejectionError(inv *entity.Invoice) error {
	var errs []domainnfse.ProviderError
	if inv.ProviderErrors != "" {
		_ = json.Unmarshal([]byte(inv.ProviderErrors), &errs)
	}
	msg := inv.ErrorMessage
	if msg == "" {
		msg = "NFS-e rechazada por la prefeitura"
	}
	return &domainnfse.FocusAPIError{Kind: domainnfse.CodeFocusAPI, Message: msg, Errors: errs}
}

func joinMessages(resp *domainnfse.ProviderResponse) string {
	if len(resp.Erros) == 0 {
		return resp.Mensagem
	}
	parts := make([]string, 0, len(resp.Erros))
	for _, e := range resp.Erros {
		parts = append(parts, strings.TrimSpace(e.Codigo+" "+e.Mensagem))
	}
	return strings.Join(parts, "; ")
}

func encodeProviderErrors(errs []domainnfse.ProviderError) string {
	if len(errs) == 0 {
		return ""
	}
	b, err := json.Marshal(errs)
	if err != nil {
		return ""
	}
	return string(b)
}

func cleanEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
