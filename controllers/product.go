package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go-storefront/cache"
	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductController handles product-related requests
type ProductController struct {
	Products store.ProductStore
	Cache    cache.ProductCache
}

// NewProductController creates a new ProductController
func NewProductController(products store.ProductStore, productCache cache.ProductCache) *ProductController {
	return &ProductController{Products: products, Cache: productCache}
}

// invalidate drops the cached catalog entry after a mutation so stale
// prices never outlive their TTL.
func (pc *ProductController) invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := pc.Cache.Delete(ctx, id.Hex()); err != nil {
		log.Printf("failed to invalidate product cache for %s: %v", id.Hex(), err)
	}
}

// GetProducts retrieves all products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	products, err := pc.Products.List(ctx)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "products": products})
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	product, err := pc.Products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusNotFound, "Product not found")
			return
		}
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "product": product})
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := pc.Products.Insert(ctx, &product); err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, utils.Envelope{"success": true, "product": product})
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}
	product.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := pc.Products.Update(ctx, &product); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusNotFound, "Product not found")
			return
		}
		utils.Error(w, err)
		return
	}
	pc.invalidate(ctx, id)

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "product": product})
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := pc.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusNotFound, "Product not found")
			return
		}
		utils.Error(w, err)
		return
	}
	pc.invalidate(ctx, id)

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "message": "Product deleted successfully"})
}
