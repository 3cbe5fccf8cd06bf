package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/payment"
)

// writeOutcome answers with the outcome even when verification failed, so
// the UI can offer the retry and order history actions.
func writeOutcome(w http.ResponseWriter, r *http.Request, o payment.Outcome, err error) {
	if err != nil && o.State != payment.StateFailed {
		handleError(w, r, err)
		return
	}
	if o.State == payment.StateFailed {
		writeResponse(w, http.StatusPaymentRequired, Response{
			Code:    "verification_failed",
			Message: o.Message,
			Data:    o,
		})
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// GET /api/v1/payments/verify?reference=... is hit when the provider sends
// the shopper back. The reference falls back to the one saved at redirect.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("reference")
	if ref == "" {
		ref = r.URL.Query().Get("trxref")
	}
	o, err := h.device(r).Verifier.Verify(r.Context(), ref)
	writeOutcome(w, r, o, err)
}

func (h *Handler) RetryVerification(w http.ResponseWriter, r *http.Request) {
	o, err := h.device(r).Verifier.Retry(r.Context())
	writeOutcome(w, r, o, err)
}

func (h *Handler) VerificationOutcome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.device(r).Verifier.Outcome())
}
