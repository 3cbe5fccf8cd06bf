package http

import (
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storefront"
)

type ContactRequestDTO struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type StreetRequestDTO struct {
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	Landmark   string `json:"landmark"`
	Notes      string `json:"notes"`
}

type SelectRequestDTO struct {
	ID string `json:"id"`
}

type PaymentMethodRequestDTO struct {
	Method     domain.PaymentMethod `json:"paymentMethod"`
	CryptoType domain.CryptoType    `json:"cryptoType"`
}

type LocationOptionsDTO struct {
	Countries []domain.Location `json:"countries"`
	States    []domain.Location `json:"states"`
	Cities    []domain.Location `json:"cities"`
}

var errAddressNotFound = errors.New("address not found")

// respondView answers a checkout step with the current view. The view is
// returned next to the error too, so the UI can render the error region.
func respondView(w http.ResponseWriter, r *http.Request, s *storefront.Storefront, err error) {
	if err != nil {
		status, resp := errorResponse(r, err)
		resp.Data = s.Checkout.View()
		writeResponse(w, status, resp)
		return
	}
	respondJSON(w, http.StatusOK, s.Checkout.View())
}

// GET /api/v1/checkout
func (h *Handler) CheckoutView(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.device(r).Checkout.View())
}

// POST /api/v1/checkout/begin
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	view, err := h.device(r).BeginCheckout(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) ResetCheckout(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	respondView(w, r, s, s.Checkout.Reset())
}

func (h *Handler) SetContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequestDTO
	if !decode(w, r, &req) {
		return
	}
	s := h.device(r)
	respondView(w, r, s, s.Checkout.SetContact(req.FullName, req.Email, req.Phone))
}

func (h *Handler) SetStreet(w http.ResponseWriter, r *http.Request) {
	var req StreetRequestDTO
	if !decode(w, r, &req) {
		return
	}
	s := h.device(r)
	respondView(w, r, s, s.Checkout.SetStreet(req.Address, req.PostalCode, req.Landmark, req.Notes))
}

// GET /api/v1/checkout/locations
func (h *Handler) LocationOptions(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	countries, states, cities := s.Checkout.Locations().Options()
	if len(countries) == 0 {
		var err error
		if countries, err = s.Checkout.LoadCountries(r.Context()); err != nil {
			handleError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, LocationOptionsDTO{Countries: countries, States: states, Cities: cities})
}

// PUT /api/v1/checkout/locations/country answers with the states of the country.
func (h *Handler) SelectCountry(w http.ResponseWriter, r *http.Request) {
	var req SelectRequestDTO
	if !decode(w, r, &req) {
		return
	}
	states, err := h.device(r).Checkout.SelectCountry(r.Context(), req.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, states)
}

// PUT /api/v1/checkout/locations/state answers with the cities of the state.
func (h *Handler) SelectState(w http.ResponseWriter, r *http.Request) {
	var req SelectRequestDTO
	if !decode(w, r, &req) {
		return
	}
	cities, err := h.device(r).Checkout.SelectState(r.Context(), req.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cities)
}

func (h *Handler) SelectCity(w http.ResponseWriter, r *http.Request) {
	var req SelectRequestDTO
	if !decode(w, r, &req) {
		return
	}
	s := h.device(r)
	respondView(w, r, s, s.Checkout.SelectCity(r.Context(), req.ID))
}

// PUT /api/v1/checkout/address fills the form from a saved address.
func (h *Handler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	var req SelectRequestDTO
	if !decode(w, r, &req) {
		return
	}
	s, ok := h.signedIn(w, r, "use a saved address")
	if !ok {
		return
	}
	a, found := s.Addresses.Find(req.ID)
	if !found {
		respondError(w, http.StatusNotFound, "not_found", errAddressNotFound.Error(), nil)
		return
	}
	respondView(w, r, s, s.Checkout.SelectAddress(r.Context(), a))
}

func (h *Handler) SetShippingMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"shippingMethod"`
	}
	if !decode(w, r, &req) {
		return
	}
	s := h.device(r)
	respondView(w, r, s, s.Checkout.SetShippingMethod(r.Context(), req.Method))
}

func (h *Handler) ChoosePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req PaymentMethodRequestDTO
	if !decode(w, r, &req) {
		return
	}
	s := h.device(r)
	respondView(w, r, s, s.Checkout.ChoosePaymentMethod(req.Method, req.CryptoType))
}

// POST /api/v1/checkout/coupon
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	s := h.device(r)
	respondView(w, r, s, s.Checkout.ApplyCoupon(r.Context(), req.Code))
}

func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	respondView(w, r, s, s.Checkout.RemoveCoupon())
}

// POST /api/v1/checkout/orders starts the payment. Redirect methods answer
// with the provider URL, crypto with the receiving address.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.device(r).Checkout.PlaceOrder(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// POST /api/v1/checkout/cancel is sent when the shopper returns from the
// provider without paying.
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	s.Checkout.CancelPayment(r.Context())
	respondJSON(w, http.StatusOK, s.Checkout.View())
}

func (h *Handler) ConfirmCryptoPaid(w http.ResponseWriter, r *http.Request) {
	p, err := h.device(r).Checkout.ConfirmCryptoPaid(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) CloseCryptoModal(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	s.Checkout.CloseCryptoModal()
	respondJSON(w, http.StatusOK, s.Checkout.View())
}
