package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rental-api/internal/application/dto"
	appnfse "github.com/jhoicas/Rental-api/internal/application/nfse"
	"github.com/jhoicas/Rental-api/internal/domain/entity"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NfseHandler maneja las peticiones HTTP de NFS-e (protegido).
type NfseHandler struct {
	svc              *appnfse.Service
	emailOnAuthorize bool
}

// NewNfseHandler construye el handler. emailOnAuthorize es el valor de send_email cuando
// el cuerpo no lo indica.
func NewNfseHandler(svc *appnfse.Service, emailOnAuthorize bool) *NfseHandler {
	return &NfseHandler{svc: svc, emailOnAuthorize: emailOnAuthorize}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// parseBody acepta cuerpo vacío.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

// Preflight godoc
// @Summary      Verificar si el tenant puede emitir NFS-e
// @Tags         nfse
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  nfse.EmissionCheck
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/nfse/preflight [get]
func (h *NfseHandler) Preflight(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	check, err := h.svc.Feature().CanEmitNfse(c.UserContext(), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(check)
}

// CreateFromBooking godoc
// @Summary      Emitir NFS-e de una reserva
// @Description  201 si la emisión prosperó; 200 con success=false si la nota quedó en ERROR o REJECTED.
// @Tags         nfse
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingId  path  string                    true   "ID de la reserva"
// @Param        body       body  dto.CreateInvoiceRequest  false  "send_email"
// @Success      201  {object}  dto.EmissionResponse
// @Success      200  {object}  dto.EmissionResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/nfse/bookings/{bookingId}/invoice [post]
func (h *NfseHandler) CreateFromBooking(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateInvoiceRequest
	if err := parseBody(c, &in); err != nil {
		return invalidBody(c)
	}
	opts := appnfse.CreateOptions{SendEmail: h.emailOnAuthorize}
	if in.SendEmail != nil {
		opts.SendEmail = *in.SendEmail
	}
	res, err := h.svc.CreateFromBooking(c.UserContext(), c.Params("bookingId"), tenantID, opts)
	if err != nil {
		return writeError(c, err)
	}
	return writeEmission(c, res)
}

// Retry godoc
// @Summary      Reintentar una NFS-e en ERROR
// @Tags         nfse
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true   "ID de la NFS-e"
// @Param        body  body  dto.CreateInvoiceRequest  false  "send_email"
// @Success      201  {object}  dto.EmissionResponse
// @Success      200  {object}  dto.EmissionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/nfse/invoices/{id}/retry [post]
func (h *NfseHandler) Retry(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateInvoiceRequest
	if err := parseBody(c, &in); err != nil {
		return invalidBody(c)
	}
	opts := appnfse.CreateOptions{SendEmail: h.emailOnAuthorize}
	if in.SendEmail != nil {
		opts.SendEmail = *in.SendEmail
	}
	res, err := h.svc.Retry(c.UserContext(), c.Params("id"), tenantID, opts)
	if err != nil {
		return writeError(c, err)
	}
	return writeEmission(c, res)
}

// writeEmission 201 si la emisión prosperó; 200 con success=false si quedó en ERROR o REJECTED.
func writeEmission(c *fiber.Ctx, res *appnfse.EmissionResult) error {
	out := dto.EmissionResponse{
		Success: res.Success,
		Invoice: dto.InvoiceFromEntity(res.Invoice),
	}
	if res.EmailError != nil {
		out.EmailError = res.EmailError.Error()
	}
	if !res.Success {
		if res.Err != nil {
			out.Error = errorBody(res.Err)
		}
		return c.Status(fiber.StatusOK).JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar NFS-e del tenant
// @Tags         nfse
// @Produce      json
// @Security     BearerAuth
// @Param        status      query  string  false  "PENDING|PROCESSING|AUTHORIZED|REJECTED|CANCELLED|ERROR"
// @Param        booking_id  query  string  false  "ID de la reserva"
// @Param        from        query  string  false  "YYYY-MM-DD"
// @Param        to          query  string  false  "YYYY-MM-DD"
// @Param        limit       query  int     false  "máx. 100"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/nfse/invoices [get]
func (h *NfseHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	filter, page, err := parseFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.svc.List(c.UserContext(), tenantID, filter)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, dto.InvoiceFromEntity(inv))
	}
	return c.JSON(dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Export godoc
// @Summary      Exportar NFS-e a XLSX
// @Description  Mismos filtros del listado, sin paginación.
// @Tags         nfse
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        status  query  string  false  "estado"
// @Param        from    query  string  false  "YYYY-MM-DD"
// @Param        to      query  string  false  "YYYY-MM-DD"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/nfse/invoices/export.xlsx [get]
func (h *NfseHandler) Export(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	filter, _, err := parseFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	// El reporte no pagina.
	filter.Limit, filter.Offset = 0, 0
	data, err := h.svc.ExportReport(c.UserContext(), tenantID, filter)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="nfse.xlsx"`)
	return c.Send(data)
}

// GetByID godoc
// @Summary      Obtener NFS-e
// @Tags         nfse
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "ID de la NFS-e"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/nfse/invoices/{id} [get]
func (h *NfseHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	inv, err := h.svc.Get(c.UserContext(), c.Params("id"), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InvoiceFromEntity(inv))
}

// Sync godoc
// @Summary      Sincronizar estado con Focus NFe
// @Tags         nfse
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "ID de la NFS-e"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/nfse/invoices/{id}/sync [post]
func (h *NfseHandler) Sync(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	inv, err := h.svc.SyncStatus(c.UserContext(), c.Params("id"), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InvoiceFromEntity(inv))
}

// Cancel godoc
// @Summary      Cancelar NFS-e autorizada
// @Description  Solo owner o admin. La justificativa debe tener entre 15 y 255 caracteres.
// @Tags         nfse
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true  "ID de la NFS-e"
// @Param        body  body  dto.CancelInvoiceRequest  true  "justificativa"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/nfse/invoices/{id}/cancel [post]
func (h *NfseHandler) Cancel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CancelInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	inv, err := h.svc.Cancel(c.UserContext(), c.Params("id"), tenantID, in.Justificativa)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InvoiceFromEntity(inv))
}

// SendEmail godoc
// @Summary      Reenviar NFS-e por e-mail
// @Description  Sin emails usa el del tomador.
// @Tags         nfse
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                true   "ID de la NFS-e"
// @Param        body  body  dto.SendEmailRequest  false  "emails"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/nfse/invoices/{id}/email [post]
func (h *NfseHandler) SendEmail(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.SendEmailRequest
	if err := parseBody(c, &in); err != nil {
		return invalidBody(c)
	}
	inv, err := h.svc.SendInvoiceEmail(c.UserContext(), c.Params("id"), tenantID, in.Emails)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InvoiceFromEntity(inv))
}

// ValidateTemplate godoc
// @Summary      Validar plantilla de descripción
// @Tags         nfse
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.TemplateRequest  true  "template"
// @Success      200  {object}  nfse.TemplateValidation
// @Router       /api/nfse/templates/validate [post]
func (h *NfseHandler) ValidateTemplate(c *fiber.Ctx) error {
	var in dto.TemplateRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return c.JSON(appnfse.ValidateTemplate(in.Template))
}

// PreviewTemplate godoc
// @Summary      Previsualizar descripción
// @Tags         nfse
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.TemplateRequest  false  "template, booking_id"
// @Success      200  {object}  dto.TemplatePreviewResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/nfse/templates/preview [post]
func (h *NfseHandler) PreviewTemplate(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.TemplateRequest
	if err := parseBody(c, &in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.PreviewDescription(c.UserContext(), tenantID, in.Template, in.BookingID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TemplatePreviewResponse{Description: out})
}

// parseFilter lee los filtros del listado desde la query.
func parseFilter(c *fiber.Ctx) (entity.InvoiceFilter, dto.PageRequest, error) {
	var q dto.InvoiceFilterRequest
	if err := c.QueryParser(&q); err != nil {
		return entity.InvoiceFilter{}, dto.PageRequest{}, &domainnfse.InvalidRequestError{Field: "query", Message: err.Error()}
	}
	page := q.Page()
	f := entity.InvoiceFilter{
		Status:    entity.InvoiceStatus(q.Status),
		BookingID: q.BookingID,
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	var err error
	if f.From, err = parseDay(q.From, "from", false); err != nil {
		return f, page, err
	}
	if f.To, err = parseDay(q.To, "to", true); err != nil {
		return f, page, err
	}
	return f, page, nil
}

// parseDay interpreta YYYY-MM-DD; con endOfDay devuelve el último instante del día.
func parseDay(v, field string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, &domainnfse.InvalidRequestError{Field: field, Message: "formato esperado YYYY-MM-DD"}
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return &d, nil
}
