package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

const productCacheTTL = time.Minute

// productService implements ProductService with a read-through cache on
// single-product lookups. The short TTL bounds how stale a displayed stock
// quantity can be; the order flow always reads fresh rows under lock.
type productService struct {
	productRepo repository.ProductRepository
	cache       cache.Cache
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, c cache.Cache, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		cache:       c,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves products with pagination.
func (s *productService) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product through the cache.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product ID is required")
	}

	key := s.cache.Key("product", id)

	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var product model.Product
		if err := json.Unmarshal([]byte(cached), &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	if data, err := json.Marshal(product); err == nil {
		if err := s.cache.Set(ctx, key, string(data), productCacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("product_id", id).Msg("failed to cache product")
		}
	}

	return product, nil
}
