package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/faktur/internal/payment/domain"
	providerconfigdomain "github.com/smallbiznis/faktur/internal/providerconfig/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	if gatewayErr := asGatewayError(err); gatewayErr != nil {
		return mapGatewayError(gatewayErr)
	}

	switch {
	case errors.Is(err, invoicedomain.ErrUnsupportedCurrency):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unsupported_currency",
			Message: "unsupported currency",
		}
	case errors.Is(err, invoicedomain.ErrHasPayments):
		return http.StatusConflict, errorPayload{
			Type:    "invoice_has_payments",
			Message: "invoice has payments attached",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// mapGatewayError keeps the provider split visible to callers: upstream or
// transport trouble is a 502, a provider refusing the request is a 422.
func mapGatewayError(gatewayErr *paymentdomain.GatewayError) (int, errorPayload) {
	switch gatewayErr.Kind {
	case paymentdomain.GatewayProviderRejected:
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "provider_rejected",
			Message: gatewayErr.Detail,
		}
	case paymentdomain.GatewayAuthenticationFailed:
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_authentication_failed",
			Message: "payment provider rejected the configured credentials",
		}
	default:
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_unreachable",
			Message: "payment provider could not be reached",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func asGatewayError(err error) *paymentdomain.GatewayError {
	var gatewayErr *paymentdomain.GatewayError
	if errors.As(err, &gatewayErr) && gatewayErr != nil {
		return gatewayErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidInvoice),
		errors.Is(err, invoicedomain.ErrInvalidItemPrice),
		errors.Is(err, invoicedomain.ErrInvalidQuantity),
		errors.Is(err, invoicedomain.ErrInvalidTaxRate),
		errors.Is(err, paymentdomain.ErrInvalidProvider),
		errors.Is(err, paymentdomain.ErrInvalidPayment),
		errors.Is(err, paymentdomain.ErrInvalidConfig),
		errors.Is(err, providerconfigdomain.ErrInvalidProvider),
		errors.Is(err, providerconfigdomain.ErrInvalidConfig):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, providerconfigdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog labels request errors for the access log without
// leaking provider detail strings into log cardinality.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case asValidationErrors(err) != nil, isValidationError(err):
		return "validation_error", validationErrorCode(err)
	case isNotFoundError(err):
		return "not_found", "not_found"
	case errors.Is(err, invoicedomain.ErrUnsupportedCurrency):
		return "validation_error", "unsupported_currency"
	case errors.Is(err, invoicedomain.ErrHasPayments):
		return "conflict", "invoice_has_payments"
	default:
		if gatewayErr := asGatewayError(err); gatewayErr != nil {
			return "gateway_error", string(gatewayErr.Kind)
		}
		return "internal_error", "internal_error"
	}
}
