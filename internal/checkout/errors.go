package checkout

import "errors"

var (
	ErrIllegalTransition  = errors.New("illegal transition of checkout stage")
	ErrPaymentInProgress  = errors.New("a payment is already being processed")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrStockUnavailable   = errors.New("some items are no longer available")
	ErrShippingNotPriced  = errors.New("shipping has not been priced for this destination")
	ErrPaymentWindowEnded = errors.New("the crypto payment window has expired")
	ErrNoCryptoPayment    = errors.New("no crypto payment is open")
	ErrUnknownLocation    = errors.New("location is not one of the available options")
	ErrCouponRequired     = errors.New("coupon code is required")
	ErrNoReceivingAddress = errors.New("no receiving address configured for this currency")
)
