package account

import (
	"context"
	"net/http"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAddressAPI struct {
	list        []domain.Address
	createCalls int
	rejectNext  bool
}

func okEnv() *api.Envelope { return &api.Envelope{Success: true, StatusCode: http.StatusOK} }

func (m *mockAddressAPI) ListAddresses(context.Context) (*api.Response[[]domain.Address], error) {
	return &api.Response[[]domain.Address]{Envelope: okEnv(), Data: m.list}, nil
}

func (m *mockAddressAPI) CreateAddress(_ context.Context, a domain.Address) (*api.Response[domain.Address], error) {
	m.createCalls++
	if m.rejectNext {
		return &api.Response[domain.Address]{Envelope: &api.Envelope{
			StatusCode: http.StatusUnprocessableEntity,
			Message:    "invalid phone",
			Errors:     []api.FieldError{{Field: "phone", Message: "invalid"}},
		}}, nil
	}
	a.ID = "new"
	return &api.Response[domain.Address]{Envelope: okEnv(), Data: a}, nil
}

func (m *mockAddressAPI) UpdateAddress(_ context.Context, a domain.Address) (*api.Response[domain.Address], error) {
	return &api.Response[domain.Address]{Envelope: okEnv(), Data: a}, nil
}

func (m *mockAddressAPI) DeleteAddress(context.Context, string) (*api.Envelope, error) {
	return okEnv(), nil
}

func (m *mockAddressAPI) SetDefaultAddress(context.Context, string) (*api.Envelope, error) {
	return okEnv(), nil
}

func validAddress() domain.Address {
	return domain.Address{FullName: "Ada", Address: "1 Main St", CountryID: "1", StateID: "2", CityID: "3"}
}

func TestCreate_ValidatesBeforeCalling(t *testing.T) {
	m := &mockAddressAPI{}
	b := NewAddressBook(m)

	_, err := b.Create(context.Background(), domain.Address{CountryID: "1"})
	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"address", "city", "state"}, fe.Fields())
	assert.Zero(t, m.createCalls)
}

func TestCreate_Rejection(t *testing.T) {
	b := NewAddressBook(&mockAddressAPI{rejectNext: true})

	_, err := b.Create(context.Background(), validAddress())
	require.ErrorIs(t, err, api.ErrRejected)
	var rej *api.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "invalid", rej.Fields["phone"])
}

func TestDefaultTracking(t *testing.T) {
	ctx := context.Background()
	home := validAddress()
	home.ID, home.IsDefault = "home", true
	work := validAddress()
	work.ID = "work"
	b := NewAddressBook(&mockAddressAPI{list: []domain.Address{home, work}})

	_, err := b.List(ctx)
	require.NoError(t, err)
	d, ok := b.Default()
	require.True(t, ok)
	assert.Equal(t, "home", d.ID)

	require.NoError(t, b.SetDefault(ctx, "work"))
	d, _ = b.Default()
	assert.Equal(t, "work", d.ID)

	created := validAddress()
	created.IsDefault = true
	_, err = b.Create(ctx, created)
	require.NoError(t, err)
	d, _ = b.Default()
	assert.Equal(t, "new", d.ID)

	require.NoError(t, b.Delete(ctx, "new"))
	_, ok = b.Default()
	assert.False(t, ok)
	_, ok = b.Find("work")
	assert.True(t, ok)
}

func TestUpdate_RequiresID(t *testing.T) {
	b := NewAddressBook(&mockAddressAPI{})
	_, err := b.Update(context.Background(), validAddress())
	assert.ErrorIs(t, err, ErrAddressIDRequired)
}
