package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

type RemoteCart interface {
	Cart(ctx context.Context) (*api.Response[[]domain.CartItem], error)
	ReplaceCart(ctx context.Context, items []domain.CartItem) (*api.Response[[]domain.CartItem], error)
}

const syncFailedMessage = "We couldn't save your cart changes. They are kept on this device for now."

// Store is the cart of one device.
//
// Mutations apply to local state immediately and are then persisted: to device
// storage while anonymous, to the backend mirror while signed in. Remote writes
// are serialized; the server answer replaces local state unless a newer local
// mutation happened while the write was in flight. Failed writes are reported
// as notifications and never rolled back, so local and server state may diverge
// until the next successful write or Refresh.
//
// When the sign-in merge fails the device copy is kept and the merge stays
// pending: the next successful write or Refresh completes it against the
// server cart and only then discards the device copy.
type Store struct {
	mu              sync.Mutex
	items           []domain.CartItem
	version         uint64
	authenticated   bool
	orderJustPlaced bool
	pendingMerge    bool

	syncMu sync.Mutex
	local  storage.Store
	remote RemoteCart
	bus    *events.Bus
}

func NewStore(local storage.Store, remote RemoteCart, bus *events.Bus) *Store {
	return &Store{
		local:  local,
		remote: remote,
		bus:    bus,
	}
}

// Load restores the cart for the current auth state.
func (s *Store) Load(ctx context.Context, authenticated bool) {
	s.mu.Lock()
	s.authenticated = authenticated
	s.mu.Unlock()
	s.Refresh(ctx)
}

// Refresh replaces local state with the source of truth: the backend while
// signed in, device storage otherwise.
func (s *Store) Refresh(ctx context.Context) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.mu.Lock()
	authenticated := s.authenticated
	pending := s.pendingMerge
	s.mu.Unlock()

	if authenticated && pending {
		if anonymous := s.deviceCart(ctx); len(anonymous) > 0 {
			s.mergeLocked(ctx, anonymous)
			return
		}
		s.mu.Lock()
		s.pendingMerge = false
		s.mu.Unlock()
	}

	var items []domain.CartItem
	if authenticated {
		resp, err := s.remote.Cart(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "cart refresh failed", "error", err)
			s.bus.Publish(events.Error("We couldn't load your cart. Please try again."))
			return
		}
		if !resp.Success {
			s.bus.Publish(events.Error(messageOr(resp.Message, "We couldn't load your cart. Please try again.")))
			return
		}
		items = resp.Data
	} else {
		if _, err := storage.GetJSON(ctx, s.local, storage.KeyCart, &items); err != nil {
			slog.ErrorContext(ctx, "failed to read stored cart", "error", err)
		}
	}

	s.mu.Lock()
	s.items = normalize(items)
	s.version++
	s.mu.Unlock()
	s.publishUpdated()
}

// AddToCart merges item into the line with the same product+size+color, or
// appends a new line.
func (s *Store) AddToCart(ctx context.Context, item domain.CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	item.ID = item.Key()

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}
	s.version++
	s.mu.Unlock()

	s.bus.Publish(events.Success(item.Name + " added to cart"))
	s.persist(ctx)
}

// UpdateQuantity sets the quantity of a line, floored at 1. Unknown ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
			found = true
			break
		}
	}
	if found {
		s.version++
	}
	s.mu.Unlock()

	if found {
		s.persist(ctx)
	}
}

func (s *Store) RemoveItem(ctx context.Context, itemID string) {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			found = true
			break
		}
	}
	if found {
		s.version++
	}
	s.mu.Unlock()

	if found {
		s.persist(ctx)
	}
}

func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.version++
	s.mu.Unlock()
	s.persist(ctx)
}

// CompleteOrder empties the cart after a successful order without tripping the
// empty-cart guard.
func (s *Store) CompleteOrder(ctx context.Context) {
	s.mu.Lock()
	s.orderJustPlaced = true
	s.mu.Unlock()
	s.ClearCart(ctx)
}

// ShouldRedirectToCart is the empty-cart guard of checkout pages.
func (s *Store) ShouldRedirectToCart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0 && !s.orderJustPlaced
}

func (s *Store) OrderJustPlaced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderJustPlaced
}

// AcknowledgeNavigation clears the order-just-placed flag once the shopper
// leaves the confirmation page.
func (s *Store) AcknowledgeNavigation() {
	s.mu.Lock()
	s.orderJustPlaced = false
	s.mu.Unlock()
}

func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items)
}

// Count is the sum of quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return count(s.items)
}

// Total is the sum of price x quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

func (s *Store) persist(ctx context.Context) {
	s.publishUpdated()

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.mu.Lock()
	snapshot := clone(s.items)
	version := s.version
	authenticated := s.authenticated
	pending := s.pendingMerge
	s.mu.Unlock()

	if !authenticated {
		if err := storage.SetJSON(ctx, s.local, storage.KeyCart, snapshot); err != nil {
			slog.ErrorContext(ctx, "failed to store cart", "error", err)
			s.bus.Publish(events.Error(syncFailedMessage))
		}
		return
	}

	items := snapshot
	if pending {
		// The server has never seen the device items; fold them into its cart.
		server, err := s.remote.Cart(ctx)
		if err == nil && !server.Success {
			err = api.Rejection(server.Envelope)
		}
		if err != nil {
			slog.ErrorContext(ctx, "cart merge failed", "error", err)
			s.bus.Publish(events.Error(syncFailedMessage))
			return
		}
		items = merge(normalize(server.Data), snapshot)
	}

	resp, err := s.remote.ReplaceCart(ctx, items)
	if err != nil {
		slog.ErrorContext(ctx, "cart sync failed", "error", err)
		s.bus.Publish(events.Error(syncFailedMessage))
		return
	}
	if !resp.Success {
		s.bus.Publish(events.Error(messageOr(resp.Message, syncFailedMessage)))
		return
	}
	if pending {
		s.discardDeviceCart(ctx)
	}

	s.mu.Lock()
	if pending {
		s.pendingMerge = false
	}
	adopted := s.version == version && s.authenticated
	if adopted {
		s.items = normalize(resp.Data)
	}
	s.mu.Unlock()
	if adopted {
		s.publishUpdated()
	}
}

// HandleAuthChange reconciles the cart on sign-in and sign-out. On sign-in the
// anonymous cart is merged into the server cart once and the device copy is
// discarded; on sign-out only in-memory state is dropped.
func (s *Store) HandleAuthChange(ctx context.Context, authenticated bool) {
	s.mu.Lock()
	if s.authenticated == authenticated {
		s.mu.Unlock()
		return
	}
	s.authenticated = authenticated
	if !authenticated {
		s.pendingMerge = false
		s.items = nil
		s.version++
		s.mu.Unlock()
		s.publishUpdated()
		return
	}
	s.mu.Unlock()

	anonymous := s.deviceCart(ctx)
	if len(anonymous) == 0 {
		s.Refresh(ctx)
		return
	}

	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	s.mergeLocked(ctx, anonymous)
}

// mergeLocked pushes the anonymous cart into the server cart. The caller
// holds syncMu.
func (s *Store) mergeLocked(ctx context.Context, anonymous []domain.CartItem) {
	server, err := s.remote.Cart(ctx)
	if err == nil && !server.Success {
		err = api.Rejection(server.Envelope)
	}
	if err != nil {
		slog.ErrorContext(ctx, "cart merge failed", "error", err)
		s.keepAnonymous(anonymous)
		return
	}

	merged := merge(normalize(server.Data), normalize(anonymous))
	resp, err := s.remote.ReplaceCart(ctx, merged)
	if err == nil && !resp.Success {
		err = api.Rejection(resp.Envelope)
	}
	if err != nil {
		slog.ErrorContext(ctx, "cart merge failed", "error", err)
		s.keepAnonymous(anonymous)
		return
	}

	s.discardDeviceCart(ctx)
	s.mu.Lock()
	s.items = normalize(resp.Data)
	s.pendingMerge = false
	s.version++
	s.mu.Unlock()
	s.publishUpdated()
}

func (s *Store) keepAnonymous(items []domain.CartItem) {
	s.mu.Lock()
	s.items = normalize(items)
	s.pendingMerge = true
	s.version++
	s.mu.Unlock()
	s.bus.Publish(events.Error(syncFailedMessage))
	s.publishUpdated()
}

func (s *Store) deviceCart(ctx context.Context) []domain.CartItem {
	var items []domain.CartItem
	if _, err := storage.GetJSON(ctx, s.local, storage.KeyCart, &items); err != nil {
		slog.ErrorContext(ctx, "failed to read stored cart", "error", err)
	}
	return items
}

func (s *Store) discardDeviceCart(ctx context.Context) {
	if err := s.local.Delete(ctx, storage.KeyCart); err != nil {
		slog.ErrorContext(ctx, "failed to discard stored cart", "error", err)
	}
}

func (s *Store) publishUpdated() {
	s.mu.Lock()
	e := events.CartUpdated{Count: count(s.items), Total: total(s.items)}
	s.mu.Unlock()
	s.bus.Publish(e)
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

func merge(base, extra []domain.CartItem) []domain.CartItem {
	out := clone(base)
	for _, item := range extra {
		found := false
		for i := range out {
			if out[i].ID == item.ID {
				out[i].Quantity += item.Quantity
				found = true
				break
			}
		}
		if !found {
			out = append(out, item)
		}
	}
	return out
}

func normalize(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		item.ID = item.Key()
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		out = append(out, item)
	}
	return out
}

func clone(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}

func count(items []domain.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func total(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
