package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

// Pending is the provider reference kept while the shopper is away on the
// provider's payment page.
type Pending struct {
	Reference string               `json:"reference"`
	Method    domain.PaymentMethod `json:"method"`
	SavedAt   time.Time            `json:"saved_at"`
}

// PendingStore keeps the pending reference in session-scoped storage.
type PendingStore struct {
	store storage.Store
	now   func() time.Time
}

func NewPendingStore(session storage.Store) *PendingStore {
	return &PendingStore{store: session, now: time.Now}
}

func (p *PendingStore) Save(ctx context.Context, reference string, method domain.PaymentMethod) error {
	pending := Pending{Reference: reference, Method: method, SavedAt: p.now().UTC()}
	if err := storage.SetJSON(ctx, p.store, storage.KeyPendingPayment, pending); err != nil {
		return fmt.Errorf("failed to save pending payment: %w", err)
	}
	return nil
}

// Load returns the pending payment, or false when there is none.
func (p *PendingStore) Load(ctx context.Context) (Pending, bool, error) {
	var pending Pending
	found, err := storage.GetJSON(ctx, p.store, storage.KeyPendingPayment, &pending)
	if err != nil {
		return Pending{}, false, fmt.Errorf("failed to load pending payment: %w", err)
	}
	if !found || pending.Reference == "" {
		return Pending{}, false, nil
	}
	return pending, true, nil
}

func (p *PendingStore) Clear(ctx context.Context) error {
	if err := p.store.Delete(ctx, storage.KeyPendingPayment); err != nil {
		return fmt.Errorf("failed to clear pending payment: %w", err)
	}
	return nil
}
