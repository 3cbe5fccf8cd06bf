package wishlist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"golang.org/x/sync/singleflight"
)

type RemoteWishlist interface {
	Wishlist(ctx context.Context) (*api.Response[[]domain.WishlistItem], error)
	SyncWishlist(ctx context.Context, productIDs []string) (*api.Response[[]domain.WishlistItem], error)
	AddToWishlist(ctx context.Context, productID string) (*api.Envelope, error)
	RemoveFromWishlist(ctx context.Context, productID string) (*api.Envelope, error)
}

const reconcileKey = "reconcile"

// Store is the wishlist of one device. Items are unique by product id and keep
// insertion order.
type Store struct {
	mu            sync.Mutex
	items         []domain.WishlistItem
	authenticated bool

	sfg    singleflight.Group
	local  storage.Store
	remote RemoteWishlist
	bus    *events.Bus
}

func NewStore(local storage.Store, remote RemoteWishlist, bus *events.Bus) *Store {
	return &Store{
		local:  local,
		remote: remote,
		bus:    bus,
	}
}

func (s *Store) Load(ctx context.Context, authenticated bool) {
	s.mu.Lock()
	s.authenticated = authenticated
	s.mu.Unlock()

	if authenticated {
		s.reconcile(ctx)
		return
	}
	var items []domain.WishlistItem
	if _, err := storage.GetJSON(ctx, s.local, storage.KeyWishlist, &items); err != nil {
		slog.ErrorContext(ctx, "failed to read stored wishlist", "error", err)
	}
	s.replace(items)
}

// Contains is a pure lookup.
func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(productID) >= 0
}

func (s *Store) Items() []domain.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.WishlistItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Toggle adds the product when absent and removes it otherwise. It reports
// whether the product is in the wishlist afterwards.
func (s *Store) Toggle(ctx context.Context, p domain.Product) bool {
	s.mu.Lock()
	i := s.indexOf(p.ID)
	added := i < 0
	if added {
		s.items = append(s.items, domain.WishlistItem{Product: p})
	} else {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.mu.Unlock()

	if added {
		s.bus.Publish(events.Success(p.Name + " added to wishlist"))
		s.persist(ctx, p.ID, true)
	} else {
		s.bus.Publish(events.Info(p.Name + " removed from wishlist"))
		s.persist(ctx, p.ID, false)
	}
	return added
}

// Remove is idempotent.
func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	i := s.indexOf(productID)
	if i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.mu.Unlock()

	if i >= 0 {
		s.persist(ctx, productID, false)
	}
}

// HandleAuthChange runs the sync-once reconciliation on sign-in and drops the
// in-memory list on sign-out. Repeated sign-in announcements are ignored.
func (s *Store) HandleAuthChange(ctx context.Context, authenticated bool) {
	s.mu.Lock()
	if s.authenticated == authenticated {
		s.mu.Unlock()
		return
	}
	s.authenticated = authenticated
	if !authenticated {
		s.items = nil
		s.mu.Unlock()
		s.publishUpdated()
		return
	}
	s.mu.Unlock()
	s.reconcile(ctx)
}

// Refresh re-reads server truth while signed in. A device copy left over from
// a failed sign-in sync is pushed first.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	authenticated := s.authenticated
	s.mu.Unlock()
	if authenticated {
		s.reconcile(ctx)
	}
}

// reconcile pushes the anonymous device copy to the server exactly once and
// adopts the canonical set it returns. Without a device copy it adopts the
// server wishlist. Concurrent triggers share one run.
func (s *Store) reconcile(ctx context.Context) {
	_, _, _ = s.sfg.Do(reconcileKey, func() (interface{}, error) {
		var local []domain.WishlistItem
		if _, err := storage.GetJSON(ctx, s.local, storage.KeyWishlist, &local); err != nil {
			slog.ErrorContext(ctx, "failed to read stored wishlist", "error", err)
		}

		var (
			resp *api.Response[[]domain.WishlistItem]
			err  error
		)
		if len(local) > 0 {
			ids := make([]string, len(local))
			for i, item := range local {
				ids[i] = item.ID
			}
			resp, err = s.remote.SyncWishlist(ctx, ids)
		} else {
			resp, err = s.remote.Wishlist(ctx)
		}
		if err == nil && !resp.Success {
			err = api.Rejection(resp.Envelope)
		}
		if err != nil {
			slog.ErrorContext(ctx, "wishlist reconcile failed", "error", err, "local_items", len(local))
			if len(local) > 0 {
				s.replace(local)
			}
			s.bus.Publish(events.Error("We couldn't load your wishlist. Please try again."))
			return nil, err
		}

		if len(local) > 0 {
			if err := s.local.Delete(ctx, storage.KeyWishlist); err != nil {
				slog.ErrorContext(ctx, "failed to discard stored wishlist", "error", err)
			}
		}
		s.replace(resp.Data)
		return nil, nil
	})
}

func (s *Store) persist(ctx context.Context, productID string, added bool) {
	s.publishUpdated()

	s.mu.Lock()
	authenticated := s.authenticated
	snapshot := make([]domain.WishlistItem, len(s.items))
	copy(snapshot, s.items)
	s.mu.Unlock()

	if !authenticated {
		if err := storage.SetJSON(ctx, s.local, storage.KeyWishlist, snapshot); err != nil {
			slog.ErrorContext(ctx, "failed to store wishlist", "error", err)
			s.bus.Publish(events.Error("We couldn't save your wishlist on this device."))
		}
		return
	}

	var (
		env *api.Envelope
		err error
	)
	if added {
		env, err = s.remote.AddToWishlist(ctx, productID)
	} else {
		env, err = s.remote.RemoveFromWishlist(ctx, productID)
	}
	if err == nil {
		err = api.Rejection(env)
	}
	if err != nil {
		slog.ErrorContext(ctx, "wishlist sync failed", "error", err, "product_id", productID)
		s.bus.Publish(events.Error("We couldn't update your wishlist. Please try again."))
	}
}

func (s *Store) replace(items []domain.WishlistItem) {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.WishlistItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	s.mu.Lock()
	s.items = out
	s.mu.Unlock()
	s.publishUpdated()
}

func (s *Store) publishUpdated() {
	s.bus.Publish(events.WishlistUpdated{Count: s.Count()})
}

// indexOf must be called with mu held.
func (s *Store) indexOf(productID string) int {
	for i, item := range s.items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}
