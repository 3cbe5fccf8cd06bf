package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/account"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/internal/wishlist"
)

// ErrCartEmpty is returned when checkout is entered with nothing to buy.
var ErrCartEmpty = errors.New("cart is empty")

// Deps are shared by every device.
type Deps struct {
	// Persistent is device storage that survives restarts.
	Persistent storage.Store
	// Ephemeral is session-scoped storage with a bounded lifetime.
	Ephemeral  storage.Store
	Catalog    *catalog.Service
	API        api.Config
	HTTPClient *http.Client
	Sink       *events.KafkaSink
	Checkout   checkout.Options
	Verify     payment.Options
	// SyncTimeout bounds reconciliation work triggered by bus events.
	SyncTimeout time.Duration
}

// Storefront is the complete client state of one device.
type Storefront struct {
	DeviceID  string
	Bus       *events.Bus
	Session   *session.Session
	Cart      *cart.Store
	Wishlist  *wishlist.Store
	Addresses *account.AddressBook
	Checkout  *checkout.Checkout
	Verifier  *payment.Verifier
	Catalog   *catalog.Service
	Inbox     *Inbox

	syncTimeout time.Duration
	unsubscribe []func()
}

func New(ctx context.Context, deviceID string, deps Deps) *Storefront {
	persistent := storage.Scoped(deps.Persistent, deviceID)
	ephemeral := storage.Scoped(deps.Ephemeral, deviceID)
	tokens := session.NewTokens(persistent)

	var client *api.Client
	if deps.HTTPClient != nil {
		client = api.NewClientWithHTTP(deps.API, tokens, deps.HTTPClient)
	} else {
		client = api.NewClient(deps.API, tokens)
	}

	bus := events.NewBus()
	sess := session.New(client, persistent, tokens, bus)
	cartStore := cart.NewStore(persistent, client, bus)
	pending := payment.NewPendingStore(ephemeral)

	s := &Storefront{
		DeviceID:    deviceID,
		Bus:         bus,
		Session:     sess,
		Cart:        cartStore,
		Wishlist:    wishlist.NewStore(persistent, client, bus),
		Addresses:   account.NewAddressBook(client),
		Checkout:    checkout.New(client, client, cartStore, pending, sess, bus, deps.Checkout),
		Verifier:    payment.NewVerifier(client, pending, cartStore, sess, bus, deps.Verify),
		Catalog:     deps.Catalog,
		Inbox:       &Inbox{},
		syncTimeout: deps.SyncTimeout,
	}
	if s.syncTimeout <= 0 {
		s.syncTimeout = 30 * time.Second
	}

	if deps.Sink != nil {
		s.unsubscribe = append(s.unsubscribe, bus.Subscribe(deps.Sink.ForDevice(deviceID)))
	}
	s.unsubscribe = append(s.unsubscribe,
		events.On(bus, s.onAuthChanged),
		events.On(bus, func(events.OrderPlaced) { s.Checkout.Complete() }),
		events.On(bus, s.Inbox.add),
	)

	authenticated := sess.IsAuthenticated(ctx)
	s.Cart.Load(ctx, authenticated)
	s.Wishlist.Load(ctx, authenticated)
	slog.InfoContext(ctx, "storefront session started", "device_id", deviceID, "authenticated", authenticated)
	return s
}

// onAuthChanged reconciles device state with the new auth state. Bus events
// carry no context, so the work runs under its own deadline.
func (s *Storefront) onAuthChanged(e events.AuthStateChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	s.Cart.HandleAuthChange(ctx, e.Authenticated)
	s.Wishlist.HandleAuthChange(ctx, e.Authenticated)
	if !e.Authenticated {
		s.Addresses.Reset()
		if err := s.Checkout.Reset(); err != nil {
			slog.WarnContext(ctx, "checkout not reset on sign-out", "device_id", s.DeviceID, "error", err)
		}
	}
}

// BeginCheckout prepares the checkout page: it applies the empty-cart guard,
// prefills contact details and the default address for signed-in shoppers,
// and loads the country list.
func (s *Storefront) BeginCheckout(ctx context.Context) (checkout.View, error) {
	if s.Cart.ShouldRedirectToCart() {
		return checkout.View{}, ErrCartEmpty
	}

	// A finished order leaves the checkout completed; new items start over.
	if s.Checkout.Stage() == checkout.StageCompleted && s.Cart.Count() > 0 {
		if err := s.Checkout.Reset(); err != nil {
			return checkout.View{}, err
		}
	}

	if s.Checkout.Stage() == checkout.StageIdle {
		if user, ok := s.Session.User(ctx); ok {
			if err := s.Checkout.SetContact(user.Name, user.Email, user.Phone); err != nil {
				slog.WarnContext(ctx, "failed to prefill contact", "error", err)
			}
			if _, err := s.Addresses.List(ctx); err != nil {
				slog.WarnContext(ctx, "failed to load saved addresses", "error", err)
			} else if a, ok := s.Addresses.Default(); ok {
				if err := s.Checkout.SelectAddress(ctx, a); err != nil {
					slog.WarnContext(ctx, "failed to preselect default address", "error", err)
				}
			}
		}
	}

	if _, err := s.Checkout.LoadCountries(ctx); err != nil {
		slog.WarnContext(ctx, "failed to load countries", "error", err)
	}
	return s.Checkout.View(), nil
}

// Close detaches the storefront from its bus.
func (s *Storefront) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	s.Checkout.Countdown().Close()
}
