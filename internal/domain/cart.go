package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CartItem is one product+variant line of the shopping cart.
// UnitPrice is already resolved to the discounted price when one applies.
type CartItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	SizeID    string          `json:"size_id,omitempty"`
	SizeName  string          `json:"size_name,omitempty"`
	ColorID   string          `json:"color_id,omitempty"`
	ColorName string          `json:"color_name,omitempty"`
}

// NewCartItemID builds the composite key identifying a product+size+color combination.
func NewCartItemID(productID, sizeID, colorID string) string {
	return strings.Join([]string{productID, orDash(sizeID), orDash(colorID)}, ":")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Key returns the composite key of the item, computed from its variant fields.
func (i CartItem) Key() string {
	return NewCartItemID(i.ProductID, i.SizeID, i.ColorID)
}

// LineTotal returns price x quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StockLine is the product id + quantity pair submitted for availability checks.
type StockLine struct {
	ProductID string `json:"product_id"`
	SizeID    string `json:"size_id,omitempty"`
	ColorID   string `json:"color_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

func StockLines(items []CartItem) []StockLine {
	lines := make([]StockLine, len(items))
	for i, item := range items {
		lines[i] = StockLine{
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			ColorID:   item.ColorID,
			Quantity:  item.Quantity,
		}
	}
	return lines
}
