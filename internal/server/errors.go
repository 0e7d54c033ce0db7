package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/resellops/backoffice/internal/account/domain"
	authdomain "github.com/resellops/backoffice/internal/auth/domain"
	"github.com/resellops/backoffice/internal/authorization"
	goodsdomain "github.com/resellops/backoffice/internal/goods/domain"
	orderdomain "github.com/resellops/backoffice/internal/order/domain"
	paymentdomain "github.com/resellops/backoffice/internal/payment/domain"
	"github.com/resellops/backoffice/internal/ratelimit"
	receiptdomain "github.com/resellops/backoffice/internal/receipt/domain"
	userdomain "github.com/resellops/backoffice/internal/user/domain"
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

// ErrorHandlingMiddleware turns the last gin error into the JSON error
// envelope. Handlers push domain errors with AbortWithError and never
// write error bodies themselves.
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

	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	switch {
	case isNotFound(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "resource not found",
		}

	case errors.Is(err, authdomain.ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "authentication required",
		}

	case errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrUnknownRole),
		errors.Is(err, authdomain.ErrAccountDisabled):
		return http.StatusForbidden, errorPayload{
			Type:    "permission_denied",
			Message: "permission denied",
		}

	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many attempts, slow down",
		}

	case errors.Is(err, paymentdomain.ErrAlreadyReviewed):
		return http.StatusConflict, errorPayload{
			Type:    "already_reviewed",
			Message: "payment has already been reviewed",
		}

	case errors.Is(err, paymentdomain.ErrOverReconciliation):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "over_reconciliation",
			Message: "paid amount would exceed the receipt total",
		}

	case errors.Is(err, receiptdomain.ErrPendingPayments):
		return http.StatusConflict, errorPayload{
			Type:    "pending_payments",
			Message: "receipt still has pending payments",
		}

	case errors.Is(err, accountdomain.ErrMobileTaken),
		errors.Is(err, userdomain.ErrUsernameTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "resource already exists",
		}

	case isValidation(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: "request", Code: err.Error(), Message: err.Error()},
			},
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, paymentdomain.ErrNotFound) ||
		errors.Is(err, receiptdomain.ErrNotFound) ||
		errors.Is(err, accountdomain.ErrNotFound) ||
		errors.Is(err, goodsdomain.ErrNotFound) ||
		errors.Is(err, orderdomain.ErrNotFound) ||
		errors.Is(err, userdomain.ErrNotFound) ||
		errors.Is(err, paymentdomain.ErrReceiptNotFound)
}

func isValidation(err error) bool {
	for _, candidate := range []error{
		paymentdomain.ErrInvalidID,
		paymentdomain.ErrInvalidAmount,
		paymentdomain.ErrInvalidAction,
		paymentdomain.ErrReasonRequired,
		receiptdomain.ErrInvalidID,
		accountdomain.ErrInvalidID,
		accountdomain.ErrInvalidMobile,
		accountdomain.ErrInvalidName,
		accountdomain.ErrInvalidPassword,
		goodsdomain.ErrInvalidID,
		goodsdomain.ErrInvalidExternalID,
		goodsdomain.ErrInvalidPrice,
		orderdomain.ErrInvalidID,
		orderdomain.ErrInvalidOrderSN,
		orderdomain.ErrInvalidPrice,
		userdomain.ErrInvalidID,
		userdomain.ErrInvalidUsername,
		userdomain.ErrInvalidPassword,
		userdomain.ErrInvalidRole,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
