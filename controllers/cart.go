package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartController handles cart-related requests
type CartController struct {
	Cart *services.CartService
}

// NewCartController creates a new CartController
func NewCartController(cart *services.CartService) *CartController {
	return &CartController{Cart: cart}
}

// cartLineRequest is the body for add/update/remove. Quantity is a pointer
// so an explicit 0 (remove) is distinguishable from an absent field.
type cartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	GuestID   string `json:"guestId"`
}

func (req *cartLineRequest) productID() (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return primitive.NilObjectID, services.BadRequestf("Invalid product ID")
	}
	return id, nil
}

// GetCart retrieves the cart for the current user or guest
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, err := middleware.ResolveOwner(r, r.URL.Query().Get("guestId"))
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Cart not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	cart, err := cc.Cart.GetCart(ctx, owner)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "cart": cart})
}

// AddToCart adds a product line to the cart, creating the cart (and a guest
// identity when the caller has none) on first add
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	productID, err := req.productID()
	if err != nil {
		utils.Error(w, err)
		return
	}
	if req.Quantity == nil {
		utils.Fail(w, http.StatusBadRequest, "quantity is required")
		return
	}

	owner, err := middleware.ResolveOwner(r, req.GuestID)
	if errors.Is(err, models.ErrNoOwner) {
		// First contact from an anonymous shopper: mint a guest identity.
		// The response carries it back on the cart for the client to keep.
		owner = models.GuestOwner(middleware.NewGuestID())
		err = nil
	}
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	cart, err := cc.Cart.AddProduct(ctx, owner, services.AddProductInput{
		ProductID: productID,
		Quantity:  *req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "cart": cart})
}

// UpdateQuantity sets a line's quantity; 0 or less removes the line
func (cc *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	productID, err := req.productID()
	if err != nil {
		utils.Error(w, err)
		return
	}
	if req.Quantity == nil {
		utils.Fail(w, http.StatusBadRequest, "quantity is required")
		return
	}

	owner, err := middleware.ResolveOwner(r, req.GuestID)
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Cart not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	cart, err := cc.Cart.UpdateQuantity(ctx, owner, productID, *req.Quantity, req.Size, req.Color)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "cart": cart})
}

// RemoveFromCart removes a line from the cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	productID, err := req.productID()
	if err != nil {
		utils.Error(w, err)
		return
	}

	owner, err := middleware.ResolveOwner(r, req.GuestID)
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "Cart not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	cart, err := cc.Cart.RemoveProduct(ctx, owner, productID, req.Size, req.Color)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "cart": cart})
}

// MergeCarts folds the caller's guest cart into their user cart after login
func (cc *CartController) MergeCarts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req struct {
		GuestID string `json:"guestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	cart, err := cc.Cart.MergeGuestCart(ctx, req.GuestID, userID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "cart": cart})
}
