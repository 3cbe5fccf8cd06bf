package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutAPI interface {
	ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*api.Response[api.CouponResult], error)
	ShippingQuote(ctx context.Context, cityID, method string) (*api.Response[api.ShippingQuote], error)
	ValidateStock(ctx context.Context, lines []domain.StockLine) (*api.Envelope, error)
	InitializePayment(ctx context.Context, p api.OrderPayload) (*api.Response[api.PaymentInit], error)
	CreateOrder(ctx context.Context, p api.OrderPayload) (*api.Response[domain.Order], error)
}

type Cart interface {
	Items() []domain.CartItem
	Total() decimal.Decimal
	CompleteOrder(ctx context.Context)
}

// PendingPayments keeps the provider reference across the redirect.
type PendingPayments interface {
	Save(ctx context.Context, reference string, method domain.PaymentMethod) error
	Clear(ctx context.Context) error
}

type Attribution interface {
	AffiliateCode(ctx context.Context) string
	ClearAffiliateCode(ctx context.Context) error
}

type Options struct {
	CryptoWindow      time.Duration
	CountdownInterval time.Duration
	CryptoAddresses   map[domain.CryptoType]string
	Now               func() time.Time
	NewIdempotencyKey func() string
}

func (o Options) withDefaults() Options {
	if o.CryptoWindow <= 0 {
		o.CryptoWindow = time.Hour
	}
	if o.CountdownInterval == 0 {
		o.CountdownInterval = time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewIdempotencyKey == nil {
		o.NewIdempotencyKey = uuid.NewString
	}
	return o
}

type Coupon struct {
	Code     string          `json:"code,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message,omitempty"`
}

// ErrorRegion is the sustained error display of the checkout page.
type ErrorRegion struct {
	Message string             `json:"message,omitempty"`
	Fields  domain.FieldErrors `json:"fields,omitempty"`
}

func (e ErrorRegion) Empty() bool {
	return e.Message == "" && len(e.Fields) == 0
}

type CryptoPayment struct {
	OrderID       string            `json:"order_id"`
	InvoiceNumber string            `json:"invoice_number,omitempty"`
	Reference     string            `json:"reference"`
	Type          domain.CryptoType `json:"type"`
	Address       string            `json:"address"`
	Amount        decimal.Decimal   `json:"amount"`
}

// Result tells the caller where a started payment continues: the provider's
// hosted page for redirect methods, the receiving address for crypto.
type Result struct {
	Method      domain.PaymentMethod `json:"method"`
	Reference   string               `json:"reference"`
	RedirectURL string               `json:"redirect_url,omitempty"`
	Crypto      *CryptoPayment       `json:"crypto,omitempty"`
}

// View is a read-only snapshot for rendering.
type View struct {
	Stage            Stage          `json:"stage"`
	Form             Form           `json:"form"`
	Totals           Totals         `json:"totals"`
	Coupon           Coupon         `json:"coupon"`
	Errors           ErrorRegion    `json:"errors"`
	Crypto           *CryptoPayment `json:"crypto,omitempty"`
	CountdownSeconds int            `json:"countdown_seconds,omitempty"`
	Processing       bool           `json:"processing"`
}

// Checkout is the checkout session of one device.
type Checkout struct {
	api         CheckoutAPI
	cart        Cart
	pending     PendingPayments
	attribution Attribution
	bus         *events.Bus
	locations   *LocationSelector
	countdown   *Countdown
	opts        Options

	inFlight atomic.Bool

	mu       sync.Mutex
	stage    Stage
	form     Form
	quote    *api.ShippingQuote
	quoteGen uint64
	coupon   Coupon
	errs     ErrorRegion
	crypto   *CryptoPayment
}

func New(
	checkoutAPI CheckoutAPI,
	locationAPI LocationAPI,
	cart Cart,
	pending PendingPayments,
	attribution Attribution,
	bus *events.Bus,
	opts Options,
) *Checkout {
	opts = opts.withDefaults()
	return &Checkout{
		api:         checkoutAPI,
		cart:        cart,
		pending:     pending,
		attribution: attribution,
		bus:         bus,
		locations:   NewLocationSelector(locationAPI),
		countdown:   NewCountdown(opts.CryptoWindow, opts.CountdownInterval),
		opts:        opts,
		stage:       StageIdle,
	}
}

func (c *Checkout) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

func (c *Checkout) Errors() ErrorRegion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

func (c *Checkout) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Checkout) Locations() *LocationSelector {
	return c.locations
}

func (c *Checkout) Countdown() *Countdown {
	return c.countdown
}

func (c *Checkout) View() View {
	totals := c.Totals()
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Stage:      c.stage,
		Form:       c.form,
		Totals:     totals,
		Coupon:     c.coupon,
		Errors:     c.errs,
		Crypto:     c.crypto,
		Processing: c.inFlight.Load(),
	}
	if c.crypto != nil {
		v.CountdownSeconds = int(c.countdown.Remaining() / time.Second)
	}
	return v
}

// Totals prices the current cart with the current quote and coupon.
func (c *Checkout) Totals() Totals {
	subtotal := c.cart.Total()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalsLocked(subtotal)
}

func (c *Checkout) totalsLocked(subtotal decimal.Decimal) Totals {
	fee, rate := decimal.Zero, decimal.Zero
	if c.quote != nil {
		fee, rate = c.quote.Fee, c.quote.TaxRate
	}
	return ComputeTotals(subtotal, fee, c.coupon.Discount, rate)
}

// SetContact updates name, email and phone.
func (c *Checkout) SetContact(fullName, email, phone string) error {
	return c.edit(func() {
		c.form.FullName = fullName
		c.form.Email = email
		c.form.Phone = phone
	})
}

// SetStreet updates the street level details of the shipping address.
func (c *Checkout) SetStreet(address, postalCode, landmark, notes string) error {
	return c.edit(func() {
		c.form.Address = address
		c.form.PostalCode = postalCode
		c.form.Landmark = landmark
		c.form.Notes = notes
	})
}

func (c *Checkout) LoadCountries(ctx context.Context) ([]domain.Location, error) {
	return c.locations.LoadCountries(ctx)
}

// SelectCountry clears state and city and returns the states of the country.
func (c *Checkout) SelectCountry(ctx context.Context, countryID string) ([]domain.Location, error) {
	if err := c.checkEditable(); err != nil {
		return nil, err
	}
	states, err := c.locations.SelectCountry(ctx, countryID)
	if serr := c.syncLocation(); serr != nil {
		return nil, serr
	}
	return states, err
}

// SelectState clears the city and returns the cities of the state.
func (c *Checkout) SelectState(ctx context.Context, stateID string) ([]domain.Location, error) {
	if err := c.checkEditable(); err != nil {
		return nil, err
	}
	cities, err := c.locations.SelectState(ctx, stateID)
	if serr := c.syncLocation(); serr != nil {
		return nil, serr
	}
	return cities, err
}

// SelectCity picks the destination city and reprices shipping.
func (c *Checkout) SelectCity(ctx context.Context, cityID string) error {
	if err := c.checkEditable(); err != nil {
		return err
	}
	if _, err := c.locations.SelectCity(cityID); err != nil {
		return err
	}
	if err := c.syncLocation(); err != nil {
		return err
	}
	return c.reprice(ctx)
}

// SelectAddress fills the form from a saved address. Every field the address
// carries is overwritten, blank ones included; the email is kept.
func (c *Checkout) SelectAddress(ctx context.Context, a domain.Address) error {
	if err := c.edit(func() { c.form.fill(a) }); err != nil {
		return err
	}
	if err := c.locations.Restore(ctx, a); err != nil {
		slog.WarnContext(ctx, "failed to load location options for saved address", "error", err, "address_id", a.ID)
	}
	return c.reprice(ctx)
}

func (c *Checkout) SetShippingMethod(ctx context.Context, method string) error {
	if err := c.edit(func() { c.form.ShippingMethod = strings.TrimSpace(method) }); err != nil {
		return err
	}
	return c.reprice(ctx)
}

// PriceShipping fetches a fresh quote for the current city and method.
func (c *Checkout) PriceShipping(ctx context.Context) error {
	if err := c.edit(func() { c.quote = nil }); err != nil {
		return err
	}
	return c.reprice(ctx)
}

func (c *Checkout) ChoosePaymentMethod(method domain.PaymentMethod, cryptoType domain.CryptoType) error {
	if !method.Valid() {
		return domain.FieldErrors{"paymentMethod": "Choose a payment method"}
	}
	var currency domain.CryptoType
	if method == domain.PaymentMethodCrypto && strings.TrimSpace(string(cryptoType)) != "" {
		var ok bool
		if currency, ok = domain.ParseCryptoType(string(cryptoType)); !ok {
			return domain.FieldErrors{"cryptoType": "Choose BTC, ETH or USDT"}
		}
	}
	return c.edit(func() {
		c.form.PaymentMethod = method
		c.form.CryptoType = currency
	})
}

// ApplyCoupon validates a code against the current subtotal. A rejection
// clears any previous coupon and shows the backend's message.
func (c *Checkout) ApplyCoupon(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		c.mu.Lock()
		c.errs = ErrorRegion{Fields: domain.FieldErrors{"coupon": "Enter a coupon code"}}
		c.mu.Unlock()
		return ErrCouponRequired
	}
	if err := c.checkEditable(); err != nil {
		return err
	}

	subtotal := c.cart.Total()
	resp, err := c.api.ValidateCoupon(ctx, code, subtotal)
	if err != nil {
		c.showMessage("We couldn't check this coupon. Please try again.")
		return fmt.Errorf("failed to validate coupon: %w", err)
	}
	if rej := api.Rejection(resp.Envelope); rej != nil {
		c.mu.Lock()
		c.coupon = Coupon{}
		c.errs = ErrorRegion{Message: messageOr(resp.Message, "This coupon is not valid")}
		c.mu.Unlock()
		return rej
	}

	discount := resp.Data.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	applied := Coupon{
		Code:     messageOr(resp.Data.Code, code),
		Discount: discount,
		Message:  messageOr(resp.Data.Message, resp.Message),
	}
	c.mu.Lock()
	c.coupon = applied
	c.errs = ErrorRegion{}
	c.mu.Unlock()
	return nil
}

// RemoveCoupon clears code, discount and message together.
func (c *Checkout) RemoveCoupon() error {
	return c.edit(func() { c.coupon = Coupon{} })
}

func (c *Checkout) Coupon() Coupon {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coupon
}

// PlaceOrder validates the whole form, runs the stock gate and starts the
// payment for the chosen method. Concurrent calls are rejected while one runs.
func (c *Checkout) PlaceOrder(ctx context.Context) (*Result, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrPaymentInProgress
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	if !c.stage.IsEditing() {
		stage := c.stage
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot place an order in stage %s", ErrIllegalTransition, stage)
	}
	c.errs = ErrorRegion{}
	form := c.form.trimmed()
	if errs := validateOrder(form); errs != nil {
		c.errs.Fields = errs
		c.mu.Unlock()
		return nil, errs
	}
	if err := c.settleLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	items := c.cart.Items()
	if len(items) == 0 {
		c.showMessage("Your cart is empty.")
		return nil, ErrEmptyCart
	}

	if err := c.reprice(ctx); err != nil {
		return nil, err
	}
	if c.Stage() != StagePaymentMethodChosen {
		c.showMessage("Shipping could not be priced for this address.")
		return nil, ErrShippingNotPriced
	}

	if form.PaymentMethod == domain.PaymentMethodCrypto {
		return c.startCrypto(ctx, form, items)
	}
	return c.startRedirect(ctx, form, items)
}

func validateOrder(form Form) domain.FieldErrors {
	errs := ValidateForm(form)
	if errs == nil {
		errs = domain.FieldErrors{}
	}
	if form.ShippingMethod == "" {
		errs["shippingMethod"] = "Choose a shipping method"
	}
	if !form.PaymentMethod.Valid() {
		errs["paymentMethod"] = "Choose a payment method"
	}
	if form.PaymentMethod == domain.PaymentMethodCrypto && form.CryptoType == "" {
		errs["cryptoType"] = "Choose a currency"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (c *Checkout) startRedirect(ctx context.Context, form Form, items []domain.CartItem) (*Result, error) {
	if err := c.stockGate(ctx, items); err != nil {
		return nil, err
	}

	payload := c.payload(ctx, form, items, "")
	resp, err := c.api.InitializePayment(ctx, payload)
	if err != nil {
		c.fail(ctx, "We couldn't start the payment. Please try again.")
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}
	if rej := api.Rejection(resp.Envelope); rej != nil {
		c.fail(ctx, messageOr(resp.Message, "The payment could not be started."))
		return nil, rej
	}
	if resp.Data.Reference == "" || resp.Data.AuthorizationURL == "" {
		c.fail(ctx, "The payment provider did not return a payment page.")
		return nil, fmt.Errorf("payment initialization: %w", api.ErrMalformedResponse)
	}
	if err := c.transition(StagePaymentInitiated); err != nil {
		return nil, err
	}

	ref := resp.Data.Reference
	if err := c.pending.Save(ctx, ref, form.PaymentMethod); err != nil {
		// the provider also returns the reference on the redirect URL
		slog.ErrorContext(ctx, "failed to save pending payment reference", "error", err, "reference", ref)
	}
	if err := c.transition(StageAwaitingExternalConfirmation); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "payment initialized", "reference", ref, "method", form.PaymentMethod)

	return &Result{
		Method:      form.PaymentMethod,
		Reference:   ref,
		RedirectURL: resp.Data.AuthorizationURL,
	}, nil
}

// startCrypto creates the order up front under a synthetic reference and opens
// the payment window.
func (c *Checkout) startCrypto(ctx context.Context, form Form, items []domain.CartItem) (*Result, error) {
	address := c.opts.CryptoAddresses[form.CryptoType]
	if address == "" {
		c.showMessage(fmt.Sprintf("Payments in %s are not available right now.", form.CryptoType))
		return nil, fmt.Errorf("%w: %s", ErrNoReceivingAddress, form.CryptoType)
	}
	if err := c.stockGate(ctx, items); err != nil {
		return nil, err
	}

	ref := fmt.Sprintf("CRYPTO_%s_%d", form.CryptoType, c.opts.Now().UnixMilli())
	payload := c.payload(ctx, form, items, ref)
	resp, err := c.api.CreateOrder(ctx, payload)
	if err != nil {
		c.fail(ctx, "We couldn't create your order. Please try again.")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if rej := api.Rejection(resp.Envelope); rej != nil {
		c.fail(ctx, messageOr(resp.Message, "Your order could not be created."))
		return nil, rej
	}
	if err := c.transition(StagePaymentInitiated); err != nil {
		return nil, err
	}

	payment := &CryptoPayment{
		OrderID:       resp.Data.ID,
		InvoiceNumber: resp.Data.InvoiceNumber,
		Reference:     ref,
		Type:          form.CryptoType,
		Address:       address,
		Amount:        payload.Total,
	}
	c.mu.Lock()
	c.crypto = payment
	c.mu.Unlock()
	if err := c.transition(StageAwaitingExternalConfirmation); err != nil {
		return nil, err
	}
	expireCtx := context.WithoutCancel(ctx)
	c.countdown.Open(func() { c.expireCrypto(expireCtx) })
	slog.InfoContext(ctx, "crypto order created", "reference", ref, "order_id", payment.OrderID)

	return &Result{
		Method:    domain.PaymentMethodCrypto,
		Reference: ref,
		Crypto:    payment,
	}, nil
}

// ConfirmCryptoPaid records that the shopper says they paid. It does not
// verify anything; the backend reconciles the transfer against the order.
func (c *Checkout) ConfirmCryptoPaid(ctx context.Context) (*CryptoPayment, error) {
	c.mu.Lock()
	payment := c.crypto
	if payment == nil {
		c.mu.Unlock()
		return nil, ErrNoCryptoPayment
	}
	if !c.countdown.IsOpen() {
		c.mu.Unlock()
		return nil, ErrPaymentWindowEnded
	}
	if !c.stage.CanTransitionTo(StageCompleted) {
		stage := c.stage
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, stage, StageCompleted)
	}
	c.countdown.Close()
	c.stage = StageCompleted
	c.crypto = nil
	c.errs = ErrorRegion{}
	c.mu.Unlock()

	c.cart.CompleteOrder(ctx)
	if err := c.attribution.ClearAffiliateCode(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear affiliate code", "error", err)
	}
	c.bus.Publish(events.OrderPlaced{
		Reference:     payment.Reference,
		OrderID:       payment.OrderID,
		InvoiceNumber: payment.InvoiceNumber,
		Method:        string(domain.PaymentMethodCrypto),
	})
	return payment, nil
}

// CloseCryptoModal abandons the open crypto window before expiry. The window
// starts from full length on the next attempt.
func (c *Checkout) CloseCryptoModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.countdown.Close()
	if c.crypto == nil {
		return
	}
	c.crypto = nil
	if c.stage.CanTransitionTo(StagePaymentMethodChosen) {
		c.stage = StagePaymentMethodChosen
	}
}

// Complete marks a redirect payment as confirmed once verification succeeded.
func (c *Checkout) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crypto == nil && c.stage == StageAwaitingExternalConfirmation {
		c.stage = StageCompleted
		c.errs = ErrorRegion{}
	}
}

// CancelPayment returns to the form after the shopper came back from the
// provider without paying.
func (c *Checkout) CancelPayment(ctx context.Context) {
	c.mu.Lock()
	if c.crypto != nil || c.stage != StageAwaitingExternalConfirmation {
		c.mu.Unlock()
		return
	}
	c.stage = StagePaymentMethodChosen
	c.mu.Unlock()

	if err := c.pending.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear pending payment", "error", err)
	}
}

func (c *Checkout) expireCrypto(ctx context.Context) {
	c.mu.Lock()
	if c.crypto == nil {
		c.mu.Unlock()
		return
	}
	ref := c.crypto.Reference
	c.crypto = nil
	if c.stage.CanTransitionTo(StageFailed) {
		c.stage = StageFailed
	}
	msg := "The payment window has expired. Please start a new payment."
	c.errs = ErrorRegion{Message: msg}
	c.mu.Unlock()

	slog.WarnContext(ctx, "crypto payment window expired", "reference", ref)
	c.bus.Publish(events.Error(msg))
}

// Reset starts a fresh checkout.
func (c *Checkout) Reset() error {
	if c.inFlight.Load() {
		return ErrPaymentInProgress
	}
	c.countdown.Close()
	c.mu.Lock()
	c.stage = StageIdle
	c.form = Form{}
	c.quote = nil
	c.quoteGen++
	c.coupon = Coupon{}
	c.errs = ErrorRegion{}
	c.crypto = nil
	c.mu.Unlock()
	return c.locations.Restore(context.Background(), domain.Address{})
}

func (c *Checkout) stockGate(ctx context.Context, items []domain.CartItem) error {
	env, err := c.api.ValidateStock(ctx, domain.StockLines(items))
	if err != nil {
		c.fail(ctx, "We couldn't check stock availability. Please try again.")
		return fmt.Errorf("failed to validate stock: %w", err)
	}
	if !env.Success {
		msg := messageOr(env.Message, "Some items in your cart are no longer available.")
		c.fail(ctx, msg)
		return fmt.Errorf("%w: %s", ErrStockUnavailable, msg)
	}
	return c.transition(StageStockValidated)
}

func (c *Checkout) payload(ctx context.Context, form Form, items []domain.CartItem, reference string) api.OrderPayload {
	subtotal := decimal.Zero
	lines := make([]api.OrderLine, len(items))
	for i, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		lines[i] = api.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			SizeID:    item.SizeID,
			ColorID:   item.ColorID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	c.mu.Lock()
	totals := c.totalsLocked(subtotal)
	couponCode := c.coupon.Code
	c.mu.Unlock()

	return api.OrderPayload{
		FullName:         form.FullName,
		Email:            form.Email,
		Phone:            form.Phone,
		Address:          form.shippingAddress(),
		ShippingMethod:   form.ShippingMethod,
		PaymentMethod:    string(form.PaymentMethod),
		Items:            lines,
		Subtotal:         totals.Subtotal,
		ShippingFee:      totals.ShippingFee,
		TaxRate:          totals.TaxRate,
		TaxAmount:        totals.TaxAmount,
		Discount:         totals.Discount,
		CouponCode:       couponCode,
		Total:            totals.Total,
		AffiliateCode:    c.attribution.AffiliateCode(ctx),
		PaymentReference: reference,
		IdempotencyKey:   c.opts.NewIdempotencyKey(),
	}
}

// reprice fetches a quote when city and method are set and no valid quote is
// held. Answers for a destination that changed meanwhile are dropped.
func (c *Checkout) reprice(ctx context.Context) error {
	c.mu.Lock()
	city, method := c.form.CityID, c.form.ShippingMethod
	if city == "" || method == "" || c.quote != nil {
		c.mu.Unlock()
		return nil
	}
	c.quoteGen++
	gen := c.quoteGen
	c.mu.Unlock()

	resp, err := c.api.ShippingQuote(ctx, city, method)
	if err != nil {
		c.showMessage("We couldn't calculate shipping for this address. Please try again.")
		return fmt.Errorf("failed to price shipping: %w", err)
	}
	if rej := api.Rejection(resp.Envelope); rej != nil {
		c.showMessage(messageOr(resp.Message, "We don't ship to this address with the selected method."))
		return rej
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.quoteGen || c.form.CityID != city || c.form.ShippingMethod != method {
		return nil
	}
	q := resp.Data
	c.quote = &q
	if c.stage.IsEditing() {
		return c.settleLocked()
	}
	return nil
}

func (c *Checkout) edit(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	fn()
	return c.settleLocked()
}

func (c *Checkout) checkEditable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editableLocked()
}

func (c *Checkout) editableLocked() error {
	if c.inFlight.Load() {
		return ErrPaymentInProgress
	}
	if !c.stage.IsEditing() {
		return fmt.Errorf("%w: checkout is %s", ErrIllegalTransition, c.stage)
	}
	return nil
}

func (c *Checkout) syncLocation() error {
	sel := c.locations.Selection()
	return c.edit(func() {
		c.form.CountryID, c.form.CountryName = sel.Country.ID, sel.Country.Name
		c.form.StateID, c.form.StateName = sel.State.ID, sel.State.Name
		c.form.CityID, c.form.CityName = sel.City.ID, sel.City.Name
	})
}

// settleLocked drops a quote that no longer matches the destination and moves
// to the editing stage the form supports.
func (c *Checkout) settleLocked() error {
	if c.quote != nil && (c.quote.CityID != c.form.CityID || c.quote.Method != c.form.ShippingMethod) {
		c.quote = nil
	}

	f := c.form.trimmed()
	target := StageIdle
	switch {
	case !f.hasContact():
	case !f.hasAddress():
		target = StageContactFilled
	case c.quote == nil:
		target = StageAddressResolved
	case !f.PaymentMethod.Valid():
		target = StageShippingPriced
	default:
		target = StagePaymentMethodChosen
	}

	if target == c.stage {
		return nil
	}
	if !c.stage.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.stage, target)
	}
	c.stage = target
	return nil
}

func (c *Checkout) transition(next Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stage.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.stage, next)
	}
	c.stage = next
	return nil
}

// fail moves to Failed and keeps msg visible in the error region.
func (c *Checkout) fail(ctx context.Context, msg string) {
	c.mu.Lock()
	if c.stage.CanTransitionTo(StageFailed) {
		c.stage = StageFailed
	}
	c.errs = ErrorRegion{Message: msg}
	c.mu.Unlock()

	slog.WarnContext(ctx, "checkout failed", "message", msg)
	c.bus.Publish(events.Error(msg))
}

func (c *Checkout) showMessage(msg string) {
	c.mu.Lock()
	c.errs = ErrorRegion{Message: msg}
	c.mu.Unlock()
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
