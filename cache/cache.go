package cache

import (
	"context"
	"errors"

	"go-storefront/models"
)

// ProductCache caches catalog entries keyed by product id hex.
type ProductCache interface {
	Get(ctx context.Context, productID string) (*models.Product, error)
	Set(ctx context.Context, productID string, product *models.Product) error
	Delete(ctx context.Context, productID string) error
}

var ErrCacheMiss = errors.New("cache miss")
