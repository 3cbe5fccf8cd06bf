package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items           []domain.CartItem `json:"items"`
	Count           int               `json:"count"`
	Total           decimal.Decimal   `json:"total"`
	OrderJustPlaced bool              `json:"order_just_placed"`
}

func cartResponse(s *storefront.Storefront) CartResponseDTO {
	return CartResponseDTO{
		Items:           s.Cart.Items(),
		Count:           s.Cart.Count(),
		Total:           s.Cart.Total(),
		OrderJustPlaced: s.Cart.OrderJustPlaced(),
	}
}

// GET /api/v1/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.device(r)))
}

// POST /api/v1/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var item domain.CartItem
	if !decode(w, r, &item) {
		return
	}
	if item.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required", nil)
		return
	}
	s := h.device(r)
	s.Cart.AddToCart(r.Context(), item)
	respondJSON(w, http.StatusCreated, cartResponse(s))
}

// PUT /api/v1/cart/items/{item_id}
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if !decode(w, r, &req) {
		return
	}
	s := h.device(r)
	s.Cart.UpdateQuantity(r.Context(), chi.URLParam(r, "item_id"), req.Quantity)
	respondJSON(w, http.StatusOK, cartResponse(s))
}

// DELETE /api/v1/cart/items/{item_id}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	s.Cart.RemoveItem(r.Context(), chi.URLParam(r, "item_id"))
	respondJSON(w, http.StatusOK, cartResponse(s))
}

// DELETE /api/v1/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	s.Cart.ClearCart(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(s))
}

// POST /api/v1/cart/acknowledge is sent once the UI has left the confirmation page.
func (h *Handler) AcknowledgeNavigation(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	s.Cart.AcknowledgeNavigation()
	respondJSON(w, http.StatusOK, cartResponse(s))
}
