package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CatalogAPI interface {
	HomeCollections(ctx context.Context) (*api.Response[domain.HomeCollections], error)
	Products(ctx context.Context, q api.ProductQuery) (*api.Response[domain.ProductPage], error)
	Categories(ctx context.Context) (*api.Response[[]domain.Category], error)
}

// Service serves catalog reads. Only the landing page collections are cached;
// listings depend on too many filter combinations.
type Service struct {
	api   CatalogAPI
	cache CollectionCache
	sfg   singleflight.Group
}

func NewService(catalogAPI CatalogAPI, cache CollectionCache) *Service {
	return &Service{
		api:   catalogAPI,
		cache: cache,
	}
}

func (s *Service) HomeCollections(ctx context.Context) (*domain.HomeCollections, error) {
	v, err, _ := s.sfg.Do(homeCollectionsKey, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			slog.WarnContext(ctx, "collections cache get failed", "error", err)
		}

		resp, err := s.api.HomeCollections(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch home collections: %w", err)
		}
		if err := api.Rejection(resp.Envelope); err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, &resp.Data); err != nil {
			slog.WarnContext(ctx, "collections cache set failed", "error", err)
		}
		return &resp.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.HomeCollections), nil
}

// InvalidateCollections drops the cached landing page collections.
func (s *Service) InvalidateCollections(ctx context.Context) error {
	return s.cache.Reset(ctx)
}

func (s *Service) ListProducts(ctx context.Context, q api.ProductQuery) (*domain.ProductPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Limit < 1:
		q.Limit = defaultPageSize
	case q.Limit > maxPageSize:
		q.Limit = maxPageSize
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		q.MinPrice, q.MaxPrice = q.MaxPrice, q.MinPrice
	}

	resp, err := s.api.Products(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if err := api.Rejection(resp.Envelope); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	resp, err := s.api.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if err := api.Rejection(resp.Envelope); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
