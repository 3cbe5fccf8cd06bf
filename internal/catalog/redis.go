package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const homeCollectionsKey = "catalog:home"

// RedisCache shares the collections between storefront instances. Entries live
// for the base TTL plus up to a fifth of it as jitter.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisCache) Get(ctx context.Context) (*domain.HomeCollections, error) {
	data, err := r.client.Get(ctx, homeCollectionsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var c domain.HomeCollections
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal collections failed: %w", err)
	}
	return &c, nil
}

func (r *RedisCache) Set(ctx context.Context, c *domain.HomeCollections) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal collections failed: %w", err)
	}

	ttl := r.baseTTL
	if spread := int64(r.baseTTL / 5); spread > 0 {
		ttl += time.Duration(rand.Int63n(spread))
	}
	if err := r.client.Set(ctx, homeCollectionsKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, homeCollectionsKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
