package services

import (
	"context"
	"errors"
	"log"

	"go-storefront/cache"
	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

// Catalog resolves product ids to catalog entries at the moment of cart
// mutation. It is read-only from the cart's point of view.
type Catalog interface {
	Product(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// CachedCatalog serves product lookups through a cache, collapsing
// concurrent misses for the same product into one database read.
type CachedCatalog struct {
	products store.ProductStore
	cache    cache.ProductCache
	sfg      singleflight.Group
}

func NewCachedCatalog(products store.ProductStore, productCache cache.ProductCache) *CachedCatalog {
	return &CachedCatalog{
		products: products,
		cache:    productCache,
	}
}

func (c *CachedCatalog) Product(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	key := id.Hex()

	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		product, err := c.cache.Get(ctx, key)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("product cache get error: %v", err)
		}

		product, err = c.products.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, NotFoundf("Product not found")
			}
			return nil, err
		}

		go func() {
			if err := c.cache.Set(context.Background(), key, product); err != nil {
				log.Printf("product cache set error: %v", err)
			}
		}()

		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Product), nil
}
