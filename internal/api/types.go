package api

import (
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// wireProduct is the product shape as the backend sends it. Some endpoints send
// "discount_price", older ones overload "discount" with the discounted price.
type wireProduct struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Discount      *decimal.Decimal `json:"discount"`
	MainImages    []string         `json:"main_images"`
	Images        []string         `json:"images"`
	CategoryID    string           `json:"category_id"`
	Stock         int              `json:"stock"`
}

// toDomain normalizes discount semantics: the result always carries an absolute
// discounted price, or none.
func (p wireProduct) toDomain() domain.Product {
	out := domain.Product{
		ID:         p.ID,
		Name:       p.Name,
		Slug:       p.Slug,
		Price:      p.Price,
		CategoryID: p.CategoryID,
		Stock:      p.Stock,
		Images:     p.MainImages,
	}
	if len(out.Images) == 0 {
		out.Images = p.Images
	}
	switch {
	case p.DiscountPrice != nil && p.DiscountPrice.IsPositive() && p.DiscountPrice.LessThan(p.Price):
		d := *p.DiscountPrice
		out.DiscountedPrice = &d
	case p.Discount != nil && p.Discount.IsPositive() && p.Discount.LessThan(p.Price):
		d := *p.Discount
		out.DiscountedPrice = &d
	}
	return out
}

func toDomainProducts(in []wireProduct) []domain.Product {
	out := make([]domain.Product, len(in))
	for i, p := range in {
		out[i] = p.toDomain()
	}
	return out
}

type AuthResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type RegisterRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Password      string `json:"password"`
	AffiliateCode string `json:"affiliate_code,omitempty"`
}

type CouponResult struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
}

// ShippingQuote carries the fee and the tax rate as a fraction (0.05 for 5%).
type ShippingQuote struct {
	CityID  string
	Method  string
	Fee     decimal.Decimal
	TaxRate decimal.Decimal
}

type wireShippingQuote struct {
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// OrderPayload is the full order description sent on payment initialization and
// order creation.
type OrderPayload struct {
	FullName         string            `json:"full_name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Address          domain.Address    `json:"shipping_address"`
	ShippingMethod   string            `json:"shipping_method"`
	PaymentMethod    string            `json:"payment_method"`
	Items            []OrderLine       `json:"items"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	ShippingFee      decimal.Decimal   `json:"shipping_fee"`
	TaxRate          decimal.Decimal   `json:"tax_rate"`
	TaxAmount        decimal.Decimal   `json:"tax_amount"`
	Discount         decimal.Decimal   `json:"discount"`
	CouponCode       string            `json:"coupon_code,omitempty"`
	Total            decimal.Decimal   `json:"total"`
	AffiliateCode    string            `json:"affiliate_code,omitempty"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	IdempotencyKey   string            `json:"idempotency_key,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type OrderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SizeID    string          `json:"size_id,omitempty"`
	ColorID   string          `json:"color_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PaymentInit struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

type VerificationResult struct {
	Reference     string `json:"reference"`
	OrderID       string `json:"order_id"`
	InvoiceNumber string `json:"invoice_number"`
}

type ProductQuery struct {
	Page     int
	Limit    int
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	InStock  bool
	SizeIDs  []string
	ColorIDs []string
}
