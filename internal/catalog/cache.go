package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CollectionCache holds the landing page collections for a bounded time.
type CollectionCache interface {
	Get(ctx context.Context) (*domain.HomeCollections, error)
	Set(ctx context.Context, c *domain.HomeCollections) error
	Reset(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	value     *domain.HomeCollections
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

// WithClock replaces the clock used for expiry.
func (m *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	m.now = now
	return m
}

func (m *MemoryCache) Get(_ context.Context) (*domain.HomeCollections, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == nil || !m.now().Before(m.expiresAt) {
		return nil, ErrCacheMiss
	}
	c := *m.value
	return &c, nil
}

func (m *MemoryCache) Set(_ context.Context, c *domain.HomeCollections) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := *c
	m.value = &v
	m.expiresAt = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryCache) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	return nil
}
