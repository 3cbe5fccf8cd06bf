package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewCartItemID(t *testing.T) {
	assert.Equal(t, "p1:m:red", NewCartItemID("p1", "m", "red"))
	assert.Equal(t, "p1:-:-", NewCartItemID("p1", "", ""))
	assert.NotEqual(t, NewCartItemID("p1", "m", ""), NewCartItemID("p1", "", "m"))
}

func TestCartItem_LineTotal(t *testing.T) {
	item := CartItem{UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3}
	assert.Equal(t, "59.97", item.LineTotal().String())
}

func TestStockLines(t *testing.T) {
	lines := StockLines([]CartItem{{ProductID: "p1", SizeID: "m", Quantity: 2}})
	assert.Equal(t, []StockLine{{ProductID: "p1", SizeID: "m", Quantity: 2}}, lines)
}

func TestProduct_EffectivePrice(t *testing.T) {
	p := Product{Price: decimal.NewFromInt(100)}
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(100)))
	assert.Empty(t, p.MainImage())

	d := decimal.NewFromInt(80)
	p.DiscountedPrice = &d
	p.Images = []string{"a.jpg", "b.jpg"}
	assert.True(t, p.EffectivePrice().Equal(d))
	assert.Equal(t, "a.jpg", p.MainImage())
}

func TestAddress_ValidateReportsEveryField(t *testing.T) {
	errs := Address{Address: "   "}.Validate()
	assert.Equal(t, []string{"address", "city", "country", "state"}, errs.Fields())
	assert.Contains(t, errs.Error(), "city: city is required")

	assert.Nil(t, Address{Address: "x", CountryID: "1", StateID: "2", CityID: "3"}.Validate())
}

func TestPaymentMethod(t *testing.T) {
	assert.True(t, PaymentMethodCard.IsRedirect())
	assert.True(t, PaymentMethodBankTransfer.IsRedirect())
	assert.False(t, PaymentMethodCrypto.IsRedirect())
	assert.True(t, PaymentMethodCrypto.Valid())
	assert.False(t, PaymentMethod("cash").Valid())
}

func TestParseCryptoType(t *testing.T) {
	got, ok := ParseCryptoType(" btc ")
	assert.True(t, ok)
	assert.Equal(t, CryptoBTC, got)

	got, ok = ParseCryptoType("usdt")
	assert.True(t, ok)
	assert.Equal(t, CryptoUSDT, got)

	_, ok = ParseCryptoType("doge")
	assert.False(t, ok)
}
