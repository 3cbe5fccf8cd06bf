package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Auth

func (c *Client) Login(ctx context.Context, email, password string) (*Response[AuthResult], error) {
	return call[AuthResult](ctx, c, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Response[AuthResult], error) {
	return call[AuthResult](ctx, c, http.MethodPost, "/auth/register", nil, req)
}

func (c *Client) Logout(ctx context.Context) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, "/auth/forgot-password", nil, map[string]string{"email": email})
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, "/auth/reset-password", nil, map[string]string{
		"token":    token,
		"password": password,
	})
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, "/auth/verify-email", nil, map[string]string{"token": token})
}

// Addresses

func (c *Client) ListAddresses(ctx context.Context) (*Response[[]domain.Address], error) {
	return call[[]domain.Address](ctx, c, http.MethodGet, "/addresses", nil, nil)
}

func (c *Client) CreateAddress(ctx context.Context, a domain.Address) (*Response[domain.Address], error) {
	return call[domain.Address](ctx, c, http.MethodPost, "/addresses", nil, a)
}

func (c *Client) UpdateAddress(ctx context.Context, a domain.Address) (*Response[domain.Address], error) {
	return call[domain.Address](ctx, c, http.MethodPut, "/addresses/"+url.PathEscape(a.ID), nil, a)
}

func (c *Client) DeleteAddress(ctx context.Context, id string) (*Envelope, error) {
	return c.Do(ctx, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SetDefaultAddress(ctx context.Context, id string) (*Envelope, error) {
	return c.Do(ctx, http.MethodPut, "/addresses/"+url.PathEscape(id)+"/default", nil, nil)
}

// Locations

func (c *Client) Countries(ctx context.Context) (*Response[[]domain.Location], error) {
	return call[[]domain.Location](ctx, c, http.MethodGet, "/locations/countries", nil, nil)
}

func (c *Client) States(ctx context.Context, countryID string) (*Response[[]domain.Location], error) {
	return call[[]domain.Location](ctx, c, http.MethodGet, "/locations/countries/"+url.PathEscape(countryID)+"/states", nil, nil)
}

func (c *Client) Cities(ctx context.Context, stateID string) (*Response[[]domain.Location], error) {
	return call[[]domain.Location](ctx, c, http.MethodGet, "/locations/states/"+url.PathEscape(stateID)+"/cities", nil, nil)
}

// Catalog

type wireHomeCollections struct {
	Featured    []wireProduct     `json:"featured"`
	NewArrivals []wireProduct     `json:"new_arrivals"`
	BestSellers []wireProduct     `json:"best_sellers"`
	Categories  []domain.Category `json:"categories"`
}

func (c *Client) HomeCollections(ctx context.Context) (*Response[domain.HomeCollections], error) {
	resp, err := call[wireHomeCollections](ctx, c, http.MethodGet, "/home/collections", nil, nil)
	if err != nil {
		return nil, err
	}
	return &Response[domain.HomeCollections]{
		Envelope: resp.Envelope,
		Data: domain.HomeCollections{
			Featured:    toDomainProducts(resp.Data.Featured),
			NewArrivals: toDomainProducts(resp.Data.NewArrivals),
			BestSellers: toDomainProducts(resp.Data.BestSellers),
			Categories:  resp.Data.Categories,
		},
	}, nil
}

type wireProductPage struct {
	Products   []wireProduct `json:"products"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
}

func (c *Client) Products(ctx context.Context, q ProductQuery) (*Response[domain.ProductPage], error) {
	resp, err := call[wireProductPage](ctx, c, http.MethodGet, "/products", q.Values(), nil)
	if err != nil {
		return nil, err
	}
	return &Response[domain.ProductPage]{
		Envelope: resp.Envelope,
		Data: domain.ProductPage{
			Products:   toDomainProducts(resp.Data.Products),
			Page:       resp.Data.Page,
			Limit:      resp.Data.Limit,
			Total:      resp.Data.Total,
			TotalPages: resp.Data.TotalPages,
		},
	}, nil
}

func (c *Client) Categories(ctx context.Context) (*Response[[]domain.Category], error) {
	return call[[]domain.Category](ctx, c, http.MethodGet, "/categories", nil, nil)
}

// Values renders the query as listing query parameters. Zero fields are omitted.
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.MinPrice != nil {
		v.Set("min_price", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("max_price", q.MaxPrice.String())
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.InStock {
		v.Set("in_stock", "true")
	}
	if len(q.SizeIDs) > 0 {
		v.Set("sizes", strings.Join(q.SizeIDs, ","))
	}
	if len(q.ColorIDs) > 0 {
		v.Set("colors", strings.Join(q.ColorIDs, ","))
	}
	return v
}

// Wishlist

func (c *Client) Wishlist(ctx context.Context) (*Response[[]domain.WishlistItem], error) {
	return wishlistCall(ctx, c, http.MethodGet, "/wishlist", nil)
}

// SyncWishlist merges the given product ids into the server wishlist and returns
// the canonical set.
func (c *Client) SyncWishlist(ctx context.Context, productIDs []string) (*Response[[]domain.WishlistItem], error) {
	return wishlistCall(ctx, c, http.MethodPost, "/wishlist/sync", map[string][]string{"product_ids": productIDs})
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, "/wishlist", nil, map[string]string{"product_id": productID})
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) (*Envelope, error) {
	return c.Do(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(productID), nil, nil)
}

func wishlistCall(ctx context.Context, c *Client, method, path string, body any) (*Response[[]domain.WishlistItem], error) {
	resp, err := call[[]wireProduct](ctx, c, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	items := make([]domain.WishlistItem, len(resp.Data))
	for i, p := range resp.Data {
		items[i] = domain.WishlistItem{Product: p.toDomain()}
	}
	return &Response[[]domain.WishlistItem]{Envelope: resp.Envelope, Data: items}, nil
}

// Cart mirror for authenticated sessions

func (c *Client) Cart(ctx context.Context) (*Response[[]domain.CartItem], error) {
	return call[[]domain.CartItem](ctx, c, http.MethodGet, "/cart", nil, nil)
}

// ReplaceCart overwrites the server cart and returns what the server kept.
func (c *Client) ReplaceCart(ctx context.Context, items []domain.CartItem) (*Response[[]domain.CartItem], error) {
	return call[[]domain.CartItem](ctx, c, http.MethodPut, "/cart", nil, map[string][]domain.CartItem{"items": items})
}

// Checkout

func (c *Client) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*Response[CouponResult], error) {
	return call[CouponResult](ctx, c, http.MethodPost, "/coupons/validate", nil, map[string]any{
		"code":     code,
		"subtotal": subtotal,
	})
}

// ShippingQuote fetches fee and tax for a destination city and method. The backend
// reports the tax rate as a percentage; it is converted to a fraction here.
func (c *Client) ShippingQuote(ctx context.Context, cityID, method string) (*Response[ShippingQuote], error) {
	q := url.Values{}
	q.Set("city_id", cityID)
	q.Set("method", method)
	resp, err := call[wireShippingQuote](ctx, c, http.MethodGet, "/shipping/quote", q, nil)
	if err != nil {
		return nil, err
	}
	return &Response[ShippingQuote]{
		Envelope: resp.Envelope,
		Data: ShippingQuote{
			CityID:  cityID,
			Method:  method,
			Fee:     resp.Data.ShippingFee,
			TaxRate: resp.Data.TaxRate.Div(decimal.NewFromInt(100)),
		},
	}, nil
}

func (c *Client) ValidateStock(ctx context.Context, lines []domain.StockLine) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, "/orders/validate-stock", nil, map[string][]domain.StockLine{"items": lines})
}

func (c *Client) InitializePayment(ctx context.Context, p OrderPayload) (*Response[PaymentInit], error) {
	return call[PaymentInit](ctx, c, http.MethodPost, "/payments/initialize", nil, p)
}

func (c *Client) CreateOrder(ctx context.Context, p OrderPayload) (*Response[domain.Order], error) {
	return call[domain.Order](ctx, c, http.MethodPost, "/orders", nil, p)
}

func (c *Client) VerifyPayment(ctx context.Context, reference string) (*Response[VerificationResult], error) {
	return call[VerificationResult](ctx, c, http.MethodGet, "/payments/verify/"+url.PathEscape(reference), nil, nil)
}
