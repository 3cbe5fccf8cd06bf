package payment

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingStore_SessionScoped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	session := storage.Scoped(storage.NewRedisStore(client, "session", 30*time.Minute), "device-1")
	p := NewPendingStore(session)
	ctx := context.Background()

	_, found, err := p.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, p.Save(ctx, "ref-1", domain.PaymentMethodBankTransfer))
	got, found, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ref-1", got.Reference)
	assert.Equal(t, domain.PaymentMethodBankTransfer, got.Method)

	mr.FastForward(31 * time.Minute)
	_, found, err = p.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPendingStore_Clear(t *testing.T) {
	p := NewPendingStore(storage.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, p.Save(ctx, "ref-1", domain.PaymentMethodCard))
	require.NoError(t, p.Clear(ctx))
	require.NoError(t, p.Clear(ctx))

	_, found, err := p.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}
