package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/shopspring/decimal"
)

// GET /api/v1/catalog/home
func (h *Handler) HomeCollections(w http.ResponseWriter, r *http.Request) {
	c, err := h.device(r).Catalog.HomeCollections(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DELETE /api/v1/catalog/home drops the cached landing page.
func (h *Handler) InvalidateHome(w http.ResponseWriter, r *http.Request) {
	if err := h.device(r).Catalog.InvalidateCollections(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// GET /api/v1/catalog/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, fields := parseProductQuery(r)
	if len(fields) > 0 {
		respondError(w, http.StatusBadRequest, "invalid_query", "invalid listing parameters", fields)
		return
	}
	page, err := h.device(r).Catalog.ListProducts(r.Context(), q)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.device(r).Catalog.Categories(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

func parseProductQuery(r *http.Request) (api.ProductQuery, map[string]string) {
	v := r.URL.Query()
	fields := map[string]string{}
	q := api.ProductQuery{
		Category: v.Get("category"),
		Search:   v.Get("search"),
		Sort:     v.Get("sort"),
		InStock:  v.Get("in_stock") == "true",
		SizeIDs:  splitCSV(v.Get("sizes")),
		ColorIDs: splitCSV(v.Get("colors")),
	}

	for name, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		if raw := v.Get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				fields[name] = name + " must be a number"
				continue
			}
			*dst = n
		}
	}
	for name, dst := range map[string]**decimal.Decimal{"min_price": &q.MinPrice, "max_price": &q.MaxPrice} {
		if raw := v.Get(name); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				fields[name] = name + " must be a price"
				continue
			}
			*dst = &d
		}
	}
	return q, fields
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
