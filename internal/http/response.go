package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/account"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/storefront"
)

// Response mirrors the backend envelope so the UI reads both the same way.
type Response struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	writeResponse(w, status, Response{Message: message, Code: code, Errors: fields})
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := errorResponse(r, err)
	writeResponse(w, status, resp)
}

// errorResponse maps component errors to HTTP statuses.
func errorResponse(r *http.Request, err error) (int, Response) {
	var (
		fieldErrs domain.FieldErrors
		rejected  *api.RejectedError
	)
	fail := func(code, message string) Response {
		return Response{Code: code, Message: message}
	}
	switch {
	case errors.As(err, &fieldErrs):
		return http.StatusUnprocessableEntity, Response{
			Code:    "validation_failed",
			Message: "Please correct the highlighted fields.",
			Errors:  fieldErrs,
		}
	case errors.As(err, &rejected):
		status := rejected.StatusCode
		if status < 400 || status >= 500 {
			status = http.StatusUnprocessableEntity
		}
		return status, Response{Code: "rejected", Message: rejected.Message, Errors: rejected.Fields}
	case errors.Is(err, checkout.ErrPaymentInProgress), errors.Is(err, payment.ErrVerificationRunning):
		return http.StatusConflict, fail("in_progress", err.Error())
	case errors.Is(err, checkout.ErrIllegalTransition):
		return http.StatusConflict, fail("illegal_transition", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, storefront.ErrCartEmpty):
		return http.StatusConflict, fail("cart_empty", err.Error())
	case errors.Is(err, checkout.ErrStockUnavailable):
		return http.StatusConflict, fail("stock_unavailable", err.Error())
	case errors.Is(err, checkout.ErrPaymentWindowEnded):
		return http.StatusGone, fail("payment_window_ended", err.Error())
	case errors.Is(err, checkout.ErrNoCryptoPayment), errors.Is(err, payment.ErrNoReference):
		return http.StatusNotFound, fail("not_found", err.Error())
	case errors.Is(err, checkout.ErrUnknownLocation),
		errors.Is(err, checkout.ErrCouponRequired),
		errors.Is(err, checkout.ErrShippingNotPriced),
		errors.Is(err, checkout.ErrNoReceivingAddress),
		errors.Is(err, account.ErrAddressIDRequired):
		return http.StatusBadRequest, fail("invalid_argument", err.Error())
	case errors.Is(err, payment.ErrVerificationFailed):
		return http.StatusPaymentRequired, fail("verification_failed", err.Error())
	case errors.Is(err, api.ErrCircuitOpen):
		return http.StatusServiceUnavailable, fail("service_unavailable", "The store is temporarily unavailable. Please try again shortly.")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, fail("timeout", "The request timed out.")
	case errors.Is(err, api.ErrTransport):
		return http.StatusBadGateway, fail("backend_unreachable", "We couldn't reach the store. Please check your connection.")
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		return http.StatusInternalServerError, fail("internal_error", "internal server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return false
	}
	return true
}
