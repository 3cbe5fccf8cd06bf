package events

import "github.com/shopspring/decimal"

// Event is implemented by every message carried on the Bus.
type Event interface {
	Name() string
}

type AuthStateChanged struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
}

// OpenAuthModal asks the UI to show the login dialog.
type OpenAuthModal struct {
	Reason string `json:"reason"`
}

type CartUpdated struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type WishlistUpdated struct {
	Count int `json:"count"`
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a non-blocking message for the user (a toast).
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type VerificationProgress struct {
	Reference   string `json:"reference"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	Message     string `json:"message"`
}

type OrderPlaced struct {
	Reference     string `json:"reference"`
	OrderID       string `json:"order_id,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Method        string `json:"method"`
}

func (AuthStateChanged) Name() string     { return "auth-state-changed" }
func (OpenAuthModal) Name() string        { return "open-auth-modal" }
func (CartUpdated) Name() string          { return "cart-updated" }
func (WishlistUpdated) Name() string      { return "wishlist-updated" }
func (Notification) Name() string         { return "notification" }
func (VerificationProgress) Name() string { return "verification-progress" }
func (OrderPlaced) Name() string          { return "order-placed" }

func Info(msg string) Notification    { return Notification{Level: LevelInfo, Message: msg} }
func Success(msg string) Notification { return Notification{Level: LevelSuccess, Message: msg} }
func Error(msg string) Notification   { return Notification{Level: LevelError, Message: msg} }
