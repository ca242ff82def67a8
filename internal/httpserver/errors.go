package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/payment"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/shipping"
)

func errorKind(err error) string {
	var validation *checkout.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return "validation_failed"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNotOrderOwner):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, cartsvc.ErrShippingMethodUnavailable):
		return "shipping_unavailable"
	case errors.Is(err, shipping.ErrWeightLimitExceeded):
		return "weight_limit_exceeded"
	case errors.Is(err, checkout.ErrPaymentMethodUnavailable):
		return "payment_unavailable"
	case errors.Is(err, payment.ErrPaymentInProgress),
		errors.Is(err, payment.ErrIdempotencyConflict),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrStateConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

func httpStatus(kind string) int {
	switch kind {
	case "":
		return http.StatusOK
	case "not_found":
		return http.StatusNotFound
	case "forbidden":
		return http.StatusForbidden
	case "invalid_transition", "conflict":
		return http.StatusConflict
	case "validation_failed", "shipping_unavailable", "weight_limit_exceeded", "payment_unavailable":
		return http.StatusUnprocessableEntity
	case "invalid_input", "canceled":
		return http.StatusBadRequest
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind"`
	Details []string `json:"details,omitempty"`
}

func writeError(c *gin.Context, logger *zap.Logger, err error) {
	kind := errorKind(err)
	status := httpStatus(kind)
	body := errorBody{Error: err.Error(), Kind: kind}

	var validation *checkout.ValidationError
	var cancelErr *domain.CancelError
	switch {
	case errors.As(err, &validation):
		body.Error = "checkout blocked"
		body.Details = validation.Problems
	case errors.As(err, &cancelErr):
		body.Error = cancelErr.Reason()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", kind),
			zap.Error(err))
		if kind == "internal" {
			body.Error = "internal error"
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msg, Kind: "invalid_input"})
}
