package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler serves the local JSON API of the storefront UI.
type Handler struct {
	manager *storefront.Manager
}

func NewHandler(manager *storefront.Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) device(r *http.Request) *storefront.Storefront {
	return h.manager.Get(r.Context(), deviceIDFromContext(r.Context()))
}

// NewRouter builds the routing tree. The whole tree is wrapped in an
// otelhttp handler so backend calls join the request trace.
func NewRouter(h *Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(DeviceMiddleware)

		r.Get("/notifications", h.Notifications)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", h.Me)
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/logout", h.Logout)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
			r.Post("/verify-email", h.VerifyEmail)
			r.Put("/affiliate", h.SetAffiliate)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/home", h.HomeCollections)
			r.Delete("/home", h.InvalidateHome)
			r.Get("/products", h.ListProducts)
			r.Get("/categories", h.Categories)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{item_id}", h.UpdateQuantity)
			r.Delete("/items/{item_id}", h.RemoveItem)
			r.Post("/acknowledge", h.AcknowledgeNavigation)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.GetWishlist)
			r.Post("/toggle", h.ToggleWishlist)
			r.Delete("/{product_id}", h.RemoveFromWishlist)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", h.ListAddresses)
			r.Post("/", h.CreateAddress)
			r.Put("/{address_id}", h.UpdateAddress)
			r.Delete("/{address_id}", h.DeleteAddress)
			r.Put("/{address_id}/default", h.SetDefaultAddress)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.CheckoutView)
			r.Post("/begin", h.BeginCheckout)
			r.Post("/reset", h.ResetCheckout)
			r.Put("/contact", h.SetContact)
			r.Put("/street", h.SetStreet)
			r.Get("/locations", h.LocationOptions)
			r.Put("/locations/country", h.SelectCountry)
			r.Put("/locations/state", h.SelectState)
			r.Put("/locations/city", h.SelectCity)
			r.Put("/address", h.SelectAddress)
			r.Put("/shipping", h.SetShippingMethod)
			r.Put("/payment-method", h.ChoosePaymentMethod)
			r.Post("/coupon", h.ApplyCoupon)
			r.Delete("/coupon", h.RemoveCoupon)
			r.Post("/orders", h.PlaceOrder)
			r.Post("/cancel", h.CancelPayment)
			r.Post("/crypto/confirm", h.ConfirmCryptoPaid)
			r.Delete("/crypto", h.CloseCryptoModal)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/verify", h.VerifyPayment)
			r.Post("/verify/retry", h.RetryVerification)
			r.Get("/verify/outcome", h.VerificationOutcome)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.device(r).Inbox.Drain())
}
