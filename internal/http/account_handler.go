package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
)

// signedIn resolves the device and rejects anonymous callers. The UI is
// asked to open the login dialog through the bus.
func (h *Handler) signedIn(w http.ResponseWriter, r *http.Request, reason string) (*storefront.Storefront, bool) {
	s := h.device(r)
	if !s.Session.RequireAuth(r.Context(), reason) {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Please sign in to continue.", nil)
		return nil, false
	}
	return s, true
}

// GET /api/v1/addresses
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	s, ok := h.signedIn(w, r, "manage addresses")
	if !ok {
		return
	}
	list, err := s.Addresses.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// POST /api/v1/addresses
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.signedIn(w, r, "manage addresses")
	if !ok {
		return
	}
	var a domain.Address
	if !decode(w, r, &a) {
		return
	}
	created, err := s.Addresses.Create(r.Context(), a)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// PUT /api/v1/addresses/{address_id}
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.signedIn(w, r, "manage addresses")
	if !ok {
		return
	}
	var a domain.Address
	if !decode(w, r, &a) {
		return
	}
	a.ID = chi.URLParam(r, "address_id")
	updated, err := s.Addresses.Update(r.Context(), a)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.signedIn(w, r, "manage addresses")
	if !ok {
		return
	}
	if err := s.Addresses.Delete(r.Context(), chi.URLParam(r, "address_id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *Handler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.signedIn(w, r, "manage addresses")
	if !ok {
		return
	}
	if err := s.Addresses.SetDefault(r.Context(), chi.URLParam(r, "address_id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}
