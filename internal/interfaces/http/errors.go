package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rental-api/internal/application/dto"
	"github.com/jhoicas/Rental-api/internal/domain"
	domainnfse "github.com/jhoicas/Rental-api/internal/domain/nfse"
)

// statusForCode estado HTTP de cada código de la taxonomía fiscal.
var statusForCode = map[string]int{
	domainnfse.CodeFeatureDisabled:  fiber.StatusForbidden,
	domainnfse.CodeConfigIncomplete: fiber.StatusUnprocessableEntity,
	domainnfse.CodeTaxpayerData:     fiber.StatusUnprocessableEntity,
	domainnfse.CodeInvoiceNotFound:  fiber.StatusNotFound,
	domainnfse.CodeInvalidStatus:    fiber.StatusConflict,
	domainnfse.CodeInvalidRequest:   fiber.StatusBadRequest,
	domainnfse.CodeFocusAuth:        fiber.StatusBadGateway,
	domainnfse.CodeFocusAPI:         fiber.StatusBadGateway,
	domainnfse.CodeFocusNotFound:    fiber.StatusBadGateway,
	domainnfse.CodeFocusRateLimit:   fiber.StatusTooManyRequests,
	domainnfse.CodeFocusServer:      fiber.StatusServiceUnavailable,
	domainnfse.CodeFocusUnknown:     fiber.StatusBadGateway,
}

// StatusFor traduce un error al estado HTTP.
func StatusFor(err error) int {
	if st, ok := statusForCode[domainnfse.CodeOf(err)]; ok {
		return st
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// errorBody arma el cuerpo de error con el detalle propio de cada tipo.
func errorBody(err error) *dto.ErrorResponse {
	body := &dto.ErrorResponse{Code: domainnfse.CodeOf(err), Message: err.Error()}

	var (
		cfgErr *domainnfse.ConfigIncompleteError
		tpErr  *domainnfse.TaxpayerDataError
		apiErr *domainnfse.FocusAPIError
		reqErr *domainnfse.InvalidRequestError
	)
	switch {
	case errors.As(err, &cfgErr):
		body.Details = fiber.Map{"missing_fields": cfgErr.MissingFields}
	case errors.As(err, &tpErr):
		body.Details = fiber.Map{"missing_fields": tpErr.MissingFields}
	case errors.As(err, &apiErr) && len(apiErr.Errors) > 0:
		body.Details = fiber.Map{"erros": apiErr.Errors}
	case errors.As(err, &reqErr):
		body.Details = fiber.Map{"field": reqErr.Field}
	}

	if body.Code == domainnfse.CodeUnknown {
		switch StatusFor(err) {
		case fiber.StatusNotFound:
			body.Code = "NOT_FOUND"
		case fiber.StatusInternalServerError:
			body.Code = "INTERNAL"
			body.Message = "error interno"
		}
	}
	return body
}

// writeError responde con el estado y cuerpo correspondientes al error.
func writeError(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(errorBody(err))
}
