package checkout

import (
	"context"
	"net/http"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

func okEnv() *api.Envelope { return &api.Envelope{Success: true, StatusCode: http.StatusOK} }

func rejected(msg string) *api.Envelope {
	return &api.Envelope{StatusCode: http.StatusUnprocessableEntity, Message: msg}
}

type mockCheckoutAPI struct {
	mu sync.Mutex

	coupon       *api.Response[api.CouponResult]
	quoteCalls   []string
	fee          decimal.Decimal
	taxRate      decimal.Decimal
	stockEnv     *api.Envelope
	stockCalls   int
	initCalls    []api.OrderPayload
	initBlock    chan struct{}
	initStarted  chan struct{}
	orderCalls   []api.OrderPayload
	initResponse *api.Response[api.PaymentInit]
}

func newMockCheckoutAPI() *mockCheckoutAPI {
	return &mockCheckoutAPI{
		fee:      decimal.NewFromInt(500),
		taxRate:  decimal.RequireFromString("0.05"),
		stockEnv: okEnv(),
		initResponse: &api.Response[api.PaymentInit]{
			Envelope: okEnv(),
			Data:     api.PaymentInit{Reference: "ref-1", AuthorizationURL: "https://pay.example/ref-1"},
		},
	}
}

func (m *mockCheckoutAPI) ValidateCoupon(context.Context, string, decimal.Decimal) (*api.Response[api.CouponResult], error) {
	return m.coupon, nil
}

func (m *mockCheckoutAPI) ShippingQuote(_ context.Context, cityID, method string) (*api.Response[api.ShippingQuote], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quoteCalls = append(m.quoteCalls, cityID+"/"+method)
	return &api.Response[api.ShippingQuote]{
		Envelope: okEnv(),
		Data:     api.ShippingQuote{CityID: cityID, Method: method, Fee: m.fee, TaxRate: m.taxRate},
	}, nil
}

func (m *mockCheckoutAPI) ValidateStock(context.Context, []domain.StockLine) (*api.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockCalls++
	return m.stockEnv, nil
}

func (m *mockCheckoutAPI) InitializePayment(_ context.Context, p api.OrderPayload) (*api.Response[api.PaymentInit], error) {
	m.mu.Lock()
	m.initCalls = append(m.initCalls, p)
	started, block := m.initStarted, m.initBlock
	m.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return m.initResponse, nil
}

func (m *mockCheckoutAPI) CreateOrder(_ context.Context, p api.OrderPayload) (*api.Response[domain.Order], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderCalls = append(m.orderCalls, p)
	return &api.Response[domain.Order]{
		Envelope: okEnv(),
		Data:     domain.Order{ID: "o-1", InvoiceNumber: "INV-1", PaymentReference: p.PaymentReference},
	}, nil
}

type mockLocationAPI struct {
	mu         sync.Mutex
	stateCalls []string
}

func (m *mockLocationAPI) Countries(context.Context) (*api.Response[[]domain.Location], error) {
	return &api.Response[[]domain.Location]{Envelope: okEnv(), Data: []domain.Location{{ID: "ng", Name: "Nigeria"}, {ID: "gh", Name: "Ghana"}}}, nil
}

func (m *mockLocationAPI) States(_ context.Context, countryID string) (*api.Response[[]domain.Location], error) {
	m.mu.Lock()
	m.stateCalls = append(m.stateCalls, countryID)
	m.mu.Unlock()
	return &api.Response[[]domain.Location]{Envelope: okEnv(), Data: []domain.Location{{ID: countryID + "-s1", Name: "State 1"}}}, nil
}

func (m *mockLocationAPI) Cities(_ context.Context, stateID string) (*api.Response[[]domain.Location], error) {
	return &api.Response[[]domain.Location]{Envelope: okEnv(), Data: []domain.Location{{ID: stateID + "-c1", Name: "City 1"}}}, nil
}

type fakeCart struct {
	mu        sync.Mutex
	items     []domain.CartItem
	completed int
}

func (f *fakeCart) Items() []domain.CartItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CartItem(nil), f.items...)
}

func (f *fakeCart) Total() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, it := range f.items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func (f *fakeCart) CompleteOrder(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.completed++
}

type fakePending struct {
	mu      sync.Mutex
	refs    []string
	cleared int
}

func (f *fakePending) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

func (f *fakePending) Save(_ context.Context, ref string, _ domain.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = append(f.refs, ref)
	return nil
}

type fakeAttribution struct {
	code    string
	cleared bool
}

func (f *fakeAttribution) AffiliateCode(context.Context) string { return f.code }

func (f *fakeAttribution) ClearAffiliateCode(context.Context) error {
	f.cleared = true
	f.code = ""
	return nil
}
