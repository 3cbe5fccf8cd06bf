package domain

import "github.com/shopspring/decimal"

// Product is the catalog projection used by the cart, wishlist and listings.
// DiscountedPrice is always an absolute price, never a delta or a percentage.
type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Images          []string         `json:"images,omitempty"`
	CategoryID      string           `json:"category_id,omitempty"`
	Stock           int              `json:"stock"`
}

// EffectivePrice is the price a shopper pays for one unit.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

// MainImage returns the first image reference or an empty string.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// WishlistItem is unique by product id inside a wishlist.
type WishlistItem struct {
	Product
}

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parent_id,omitempty"`
}

// HomeCollections groups the product lists shown on the landing page.
type HomeCollections struct {
	Featured    []Product  `json:"featured"`
	NewArrivals []Product  `json:"new_arrivals"`
	BestSellers []Product  `json:"best_sellers"`
	Categories  []Category `json:"categories"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
}
