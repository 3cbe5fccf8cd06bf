package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ToggleResponseDTO struct {
	InWishlist bool                  `json:"in_wishlist"`
	Items      []domain.WishlistItem `json:"items"`
}

func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.device(r).Wishlist.Items())
}

// POST /api/v1/wishlist/toggle
func (h *Handler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if !decode(w, r, &p) {
		return
	}
	if p.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id is required", nil)
		return
	}
	s := h.device(r)
	in := s.Wishlist.Toggle(r.Context(), p)
	respondJSON(w, http.StatusOK, ToggleResponseDTO{InWishlist: in, Items: s.Wishlist.Items()})
}

func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	s.Wishlist.Remove(r.Context(), chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, s.Wishlist.Items())
}
