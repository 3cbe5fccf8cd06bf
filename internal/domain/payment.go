package domain

import "strings"

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCrypto       PaymentMethod = "crypto"
)

// IsRedirect reports whether the method goes through the provider's hosted page.
func (m PaymentMethod) IsRedirect() bool {
	return m == PaymentMethodCard || m == PaymentMethodBankTransfer
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCrypto:
		return true
	}
	return false
}

type CryptoType string

const (
	CryptoBTC  CryptoType = "BTC"
	CryptoETH  CryptoType = "ETH"
	CryptoUSDT CryptoType = "USDT"
)

// ParseCryptoType accepts a currency code in any case.
func ParseCryptoType(s string) (CryptoType, bool) {
	t := CryptoType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case CryptoBTC, CryptoETH, CryptoUSDT:
		return t, true
	}
	return "", false
}

// Order is the backend order record as returned after creation or verification.
type Order struct {
	ID               string `json:"id"`
	InvoiceNumber    string `json:"invoice_number"`
	PaymentReference string `json:"payment_reference,omitempty"`
	Status           string `json:"status,omitempty"`
}
