package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

var ErrAddressIDRequired = errors.New("address id is required")

type AddressAPI interface {
	ListAddresses(ctx context.Context) (*api.Response[[]domain.Address], error)
	CreateAddress(ctx context.Context, a domain.Address) (*api.Response[domain.Address], error)
	UpdateAddress(ctx context.Context, a domain.Address) (*api.Response[domain.Address], error)
	DeleteAddress(ctx context.Context, id string) (*api.Envelope, error)
	SetDefaultAddress(ctx context.Context, id string) (*api.Envelope, error)
}

// AddressBook keeps the signed-in user's saved addresses. The last listed
// state is cached so checkout can preselect the default address.
type AddressBook struct {
	api AddressAPI

	mu        sync.RWMutex
	addresses []domain.Address
}

func NewAddressBook(addressAPI AddressAPI) *AddressBook {
	return &AddressBook{api: addressAPI}
}

func (b *AddressBook) List(ctx context.Context) ([]domain.Address, error) {
	resp, err := b.api.ListAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	if err := api.Rejection(resp.Envelope); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.addresses = append([]domain.Address(nil), resp.Data...)
	b.mu.Unlock()
	return resp.Data, nil
}

func (b *AddressBook) Create(ctx context.Context, a domain.Address) (domain.Address, error) {
	if errs := a.Validate(); errs != nil {
		return domain.Address{}, errs
	}
	resp, err := b.api.CreateAddress(ctx, a)
	if err != nil {
		return domain.Address{}, fmt.Errorf("failed to create address: %w", err)
	}
	if err := api.Rejection(resp.Envelope); err != nil {
		return domain.Address{}, err
	}

	b.mu.Lock()
	b.upsert(resp.Data)
	b.mu.Unlock()
	slog.InfoContext(ctx, "address created", "address_id", resp.Data.ID)
	return resp.Data, nil
}

func (b *AddressBook) Update(ctx context.Context, a domain.Address) (domain.Address, error) {
	if a.ID == "" {
		return domain.Address{}, ErrAddressIDRequired
	}
	if errs := a.Validate(); errs != nil {
		return domain.Address{}, errs
	}
	resp, err := b.api.UpdateAddress(ctx, a)
	if err != nil {
		return domain.Address{}, fmt.Errorf("failed to update address %s: %w", a.ID, err)
	}
	if err := api.Rejection(resp.Envelope); err != nil {
		return domain.Address{}, err
	}

	b.mu.Lock()
	b.upsert(resp.Data)
	b.mu.Unlock()
	return resp.Data, nil
}

func (b *AddressBook) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrAddressIDRequired
	}
	env, err := b.api.DeleteAddress(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete address %s: %w", id, err)
	}
	if err := api.Rejection(env); err != nil {
		return err
	}

	b.mu.Lock()
	for i, a := range b.addresses {
		if a.ID == id {
			b.addresses = append(b.addresses[:i], b.addresses[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	return nil
}

func (b *AddressBook) SetDefault(ctx context.Context, id string) error {
	if id == "" {
		return ErrAddressIDRequired
	}
	env, err := b.api.SetDefaultAddress(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to set default address %s: %w", id, err)
	}
	if err := api.Rejection(env); err != nil {
		return err
	}

	b.mu.Lock()
	for i := range b.addresses {
		b.addresses[i].IsDefault = b.addresses[i].ID == id
	}
	b.mu.Unlock()
	return nil
}

// Default returns the cached default address, if any.
func (b *AddressBook) Default() (domain.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, a := range b.addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return domain.Address{}, false
}

// Find returns a cached address by id.
func (b *AddressBook) Find(id string) (domain.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, a := range b.addresses {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Address{}, false
}

// Reset forgets the cached addresses, used on sign-out.
func (b *AddressBook) Reset() {
	b.mu.Lock()
	b.addresses = nil
	b.mu.Unlock()
}

// upsert must be called with mu held.
func (b *AddressBook) upsert(a domain.Address) {
	if a.IsDefault {
		for i := range b.addresses {
			b.addresses[i].IsDefault = false
		}
	}
	for i := range b.addresses {
		if b.addresses[i].ID == a.ID {
			b.addresses[i] = a
			return
		}
	}
	b.addresses = append(b.addresses, a)
}
