package checkout

import "github.com/shopspring/decimal"

// Totals is the pricing breakdown of an order. TaxRate is a fraction.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeTotals prices an order. Tax applies to the subtotal after the discount:
//
//	total = subtotal + shipping + (subtotal - discount) * taxRate - discount
//
// The discount is clamped to [0, subtotal] and the tax is rounded to cents.
func ComputeTotals(subtotal, shipping, discount, taxRate decimal.Decimal) Totals {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	tax := subtotal.Sub(discount).Mul(taxRate).Round(2)
	return Totals{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		TaxRate:     taxRate,
		TaxAmount:   tax,
		Discount:    discount,
		Total:       subtotal.Add(shipping).Add(tax).Sub(discount),
	}
}
