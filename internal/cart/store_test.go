package cart

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	mu          sync.Mutex
	server      []domain.CartItem
	replaceErr  error
	replaces    [][]domain.CartItem
	cartCalls   int
	beforeReply func()
}

func (m *mockRemote) Cart(context.Context) (*api.Response[[]domain.CartItem], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cartCalls++
	return ok(m.server), nil
}

func (m *mockRemote) ReplaceCart(_ context.Context, items []domain.CartItem) (*api.Response[[]domain.CartItem], error) {
	m.mu.Lock()
	m.replaces = append(m.replaces, items)
	err := m.replaceErr
	if err == nil {
		m.server = items
	}
	hook := m.beforeReply
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return ok(items), nil
}

func ok(items []domain.CartItem) *api.Response[[]domain.CartItem] {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return &api.Response[[]domain.CartItem]{
		Envelope: &api.Envelope{Success: true, StatusCode: http.StatusOK},
		Data:     out,
	}
}

func shirt(size string, qty int) domain.CartItem {
	return domain.CartItem{
		ProductID: "p1",
		Name:      "Shirt",
		UnitPrice: decimal.NewFromInt(1500),
		Quantity:  qty,
		SizeID:    size,
	}
}

type recorder struct {
	mu            sync.Mutex
	notifications []events.Notification
	updates       []events.CartUpdated
}

func record(bus *events.Bus) *recorder {
	r := &recorder{}
	events.On(bus, func(e events.Notification) {
		r.mu.Lock()
		r.notifications = append(r.notifications, e)
		r.mu.Unlock()
	})
	events.On(bus, func(e events.CartUpdated) {
		r.mu.Lock()
		r.updates = append(r.updates, e)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) errors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.notifications {
		if e.Level == events.LevelError {
			n++
		}
	}
	return n
}

func TestAddToCart_MergesSameVariant(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	s := NewStore(local, &mockRemote{}, nil)
	s.Load(ctx, false)

	s.AddToCart(ctx, shirt("m", 1))
	s.AddToCart(ctx, shirt("m", 2))
	s.AddToCart(ctx, shirt("l", 0))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1:m:-", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 4, s.Count())
	assert.True(t, decimal.NewFromInt(6000).Equal(s.Total()))

	var stored []domain.CartItem
	found, err := storage.GetJSON(ctx, local, storage.KeyCart, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, stored, 2)
}

func TestUpdateQuantity_ClampsAndIgnoresUnknown(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStore(), &mockRemote{}, nil)
	s.AddToCart(ctx, shirt("m", 2))

	s.UpdateQuantity(ctx, "p1:m:-", 0)
	assert.Equal(t, 1, s.Count())

	s.UpdateQuantity(ctx, "nope", 5)
	assert.Equal(t, 1, s.Count())

	s.RemoveItem(ctx, "p1:m:-")
	s.RemoveItem(ctx, "p1:m:-")
	assert.Empty(t, s.Items())
}

func TestCompleteOrder_SuppressesEmptyCartRedirect(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStore(), &mockRemote{}, nil)
	assert.True(t, s.ShouldRedirectToCart())

	s.AddToCart(ctx, shirt("m", 1))
	s.CompleteOrder(ctx)
	assert.Zero(t, s.Count())
	assert.False(t, s.ShouldRedirectToCart())

	s.AcknowledgeNavigation()
	assert.True(t, s.ShouldRedirectToCart())
}

func TestAuthenticated_WritesGoToServer(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	s := NewStore(storage.NewMemoryStore(), remote, nil)
	s.Load(ctx, true)

	s.AddToCart(ctx, shirt("m", 1))
	require.Len(t, remote.replaces, 1)
	assert.Equal(t, 1, remote.replaces[0][0].Quantity)
}

func TestAuthenticated_FailedWriteKeepsOptimisticState(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	rec := record(bus)
	remote := &mockRemote{replaceErr: errors.New("boom")}
	s := NewStore(storage.NewMemoryStore(), remote, bus)
	s.Load(ctx, true)

	s.AddToCart(ctx, shirt("m", 1))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 1, rec.errors())
}

func TestStaleServerReplyIsNotAdopted(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	s := NewStore(storage.NewMemoryStore(), remote, nil)
	s.Load(ctx, true)

	// a local mutation lands while the first write is in flight
	once := sync.Once{}
	remote.beforeReply = func() {
		once.Do(func() {
			s.mu.Lock()
			s.items = append(s.items, shirt("xl", 1))
			s.items[len(s.items)-1].ID = "p1:xl:-"
			s.version++
			s.mu.Unlock()
		})
	}

	s.AddToCart(ctx, shirt("m", 1))
	assert.Len(t, s.Items(), 2)
}

func TestLogin_MergesAnonymousCartOnce(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	remote := &mockRemote{server: []domain.CartItem{shirt("m", 2)}}
	s := NewStore(local, remote, nil)
	s.Load(ctx, false)
	s.AddToCart(ctx, shirt("m", 1))
	s.AddToCart(ctx, shirt("s", 1))

	s.HandleAuthChange(ctx, true)

	require.Len(t, remote.replaces, 1)
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 4, s.Count())

	_, err := local.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	s.HandleAuthChange(ctx, true)
	assert.Len(t, remote.replaces, 1)
}

func TestLogin_MergeFailureKeepsDeviceCart(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	bus := events.NewBus()
	rec := record(bus)
	remote := &mockRemote{replaceErr: errors.New("boom")}
	s := NewStore(local, remote, bus)
	s.Load(ctx, false)
	s.AddToCart(ctx, shirt("m", 1))

	s.HandleAuthChange(ctx, true)

	assert.Equal(t, 1, s.Count())
	_, err := local.Get(ctx, storage.KeyCart)
	assert.NoError(t, err)
	assert.Equal(t, 1, rec.errors())
}

func TestLogin_MergeRetriedByNextWriteDoesNotDouble(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	remote := &mockRemote{server: []domain.CartItem{shirt("s", 1)}, replaceErr: errors.New("boom")}
	s := NewStore(local, remote, nil)
	s.Load(ctx, false)
	s.AddToCart(ctx, shirt("m", 2))
	s.HandleAuthChange(ctx, true)
	require.Equal(t, 2, s.Count())

	remote.mu.Lock()
	remote.replaceErr = nil
	remote.mu.Unlock()
	s.AddToCart(ctx, shirt("l", 1))

	assert.Equal(t, 4, s.Count())
	_, err := local.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	s.HandleAuthChange(ctx, false)
	s.HandleAuthChange(ctx, true)

	assert.Equal(t, 4, s.Count())
	for _, item := range s.Items() {
		if item.SizeID == "m" {
			assert.Equal(t, 2, item.Quantity)
		}
	}
}

func TestRefresh_CompletesPendingMerge(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	remote := &mockRemote{server: []domain.CartItem{shirt("s", 1)}, replaceErr: errors.New("boom")}
	s := NewStore(local, remote, nil)
	s.Load(ctx, false)
	s.AddToCart(ctx, shirt("m", 2))
	s.HandleAuthChange(ctx, true)

	remote.mu.Lock()
	remote.replaceErr = nil
	remote.mu.Unlock()
	s.Refresh(ctx)

	assert.Equal(t, 3, s.Count())
	assert.Len(t, s.Items(), 2)
	_, err := local.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	s.Refresh(ctx)
	assert.Equal(t, 3, s.Count())
}

func TestLogin_EmptyDeviceCartLoadsServer(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{server: []domain.CartItem{shirt("m", 2)}}
	s := NewStore(storage.NewMemoryStore(), remote, nil)
	s.Load(ctx, false)

	s.HandleAuthChange(ctx, true)
	assert.Equal(t, 2, s.Count())
	assert.Empty(t, remote.replaces)
}

func TestLogout_ClearsMemoryOnly(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	rec := record(bus)
	remote := &mockRemote{server: []domain.CartItem{shirt("m", 2)}}
	s := NewStore(storage.NewMemoryStore(), remote, bus)
	s.Load(ctx, true)
	require.Equal(t, 2, s.Count())

	s.HandleAuthChange(ctx, false)
	assert.Zero(t, s.Count())
	assert.Len(t, remote.server, 1)

	rec.mu.Lock()
	last := rec.updates[len(rec.updates)-1]
	rec.mu.Unlock()
	assert.Zero(t, last.Count)
}
