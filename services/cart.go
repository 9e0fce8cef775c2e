package services

import (
	"context"
	"errors"

	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// versionRetries bounds how often a mutation re-reads and re-applies after
// losing a version race to a concurrent request for the same cart.
const versionRetries = 3

var errRetriesExhausted = Conflictf("Cart was modified concurrently, please retry")

// CartService owns the mutable shopping cart keyed by user-or-guest
// identity. Every mutation recomputes the total server-side and returns the
// full cart so the caller can resync its view without a follow-up read.
type CartService struct {
	carts   store.CartStore
	catalog Catalog
}

func NewCartService(carts store.CartStore, catalog Catalog) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

// AddProductInput describes one add-to-cart request.
type AddProductInput struct {
	ProductID primitive.ObjectID
	Quantity  int
	Size      string
	Color     string
}

// GetCart returns the cart for the owner.
func (s *CartService) GetCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	cart, err := s.carts.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundf("Cart not found")
		}
		return nil, err
	}
	return cart, nil
}

// AddProduct adds a line to the owner's cart, creating the cart on first
// add. A line matching (product, size, color) has its quantity incremented;
// otherwise a new line copies the catalog's current name, price and image.
func (s *CartService) AddProduct(ctx context.Context, owner models.CartOwner, in AddProductInput) (*models.Cart, error) {
	if in.Quantity < 1 {
		return nil, BadRequestf("Quantity must be at least 1")
	}

	product, err := s.catalog.Product(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < versionRetries; attempt++ {
		cart, err := s.carts.GetByOwner(ctx, owner)
		if errors.Is(err, store.ErrNotFound) {
			cart = &models.Cart{
				UserID:  owner.UserID,
				GuestID: owner.GuestID,
				Products: []models.CartItem{{
					ProductID: product.ID,
					Name:      product.Name,
					Image:     product.PrimaryImage(),
					Price:     product.Price,
					Size:      in.Size,
					Color:     in.Color,
					Quantity:  in.Quantity,
				}},
			}
			cart.RecomputeTotal()
			err = s.carts.Insert(ctx, cart)
			if errors.Is(err, store.ErrDuplicate) {
				// Another request created the cart first; fold into it.
				continue
			}
			if err != nil {
				return nil, err
			}
			return cart, nil
		}
		if err != nil {
			return nil, err
		}

		if i := cart.FindLine(in.ProductID, in.Size, in.Color); i >= 0 {
			cart.Products[i].Quantity += in.Quantity
		} else {
			cart.Products = append(cart.Products, models.CartItem{
				ProductID: product.ID,
				Name:      product.Name,
				Image:     product.PrimaryImage(),
				Price:     product.Price,
				Size:      in.Size,
				Color:     in.Color,
				Quantity:  in.Quantity,
			})
		}
		cart.RecomputeTotal()

		err = s.carts.Update(ctx, cart)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cart, nil
	}
	return nil, errRetriesExhausted
}

// UpdateQuantity sets the quantity on the matching line, removing the line
// entirely when quantity drops to zero or below.
func (s *CartService) UpdateQuantity(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID, quantity int, size, color string) (*models.Cart, error) {
	for attempt := 0; attempt < versionRetries; attempt++ {
		cart, err := s.carts.GetByOwner(ctx, owner)
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundf("Cart not found")
		}
		if err != nil {
			return nil, err
		}

		i := cart.FindLine(productID, size, color)
		if i < 0 {
			return nil, NotFoundf("Product not found in cart")
		}
		if quantity > 0 {
			cart.Products[i].Quantity = quantity
		} else {
			cart.Products = append(cart.Products[:i], cart.Products[i+1:]...)
		}
		cart.RecomputeTotal()

		err = s.carts.Update(ctx, cart)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cart, nil
	}
	return nil, errRetriesExhausted
}

// RemoveProduct removes the matching line unconditionally.
func (s *CartService) RemoveProduct(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID, size, color string) (*models.Cart, error) {
	for attempt := 0; attempt < versionRetries; attempt++ {
		cart, err := s.carts.GetByOwner(ctx, owner)
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundf("Cart not found")
		}
		if err != nil {
			return nil, err
		}

		i := cart.FindLine(productID, size, color)
		if i < 0 {
			return nil, NotFoundf("Product not found in cart")
		}
		cart.Products = append(cart.Products[:i], cart.Products[i+1:]...)
		cart.RecomputeTotal()

		err = s.carts.Update(ctx, cart)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cart, nil
	}
	return nil, errRetriesExhausted
}

// MergeGuestCart folds the guest cart into the user's cart on login.
// Colliding (product, size, color) lines sum their quantities; the guest
// cart is deleted afterwards, which makes a retried merge a safe no-op onto
// the user cart.
func (s *CartService) MergeGuestCart(ctx context.Context, guestID string, userID primitive.ObjectID) (*models.Cart, error) {
	if userID.IsZero() {
		return nil, Unauthorizedf("Not authorized")
	}
	if guestID == "" {
		return nil, BadRequestf("guestId is required")
	}

	for attempt := 0; attempt < versionRetries; attempt++ {
		guestCart, err := s.carts.GetByOwner(ctx, models.GuestOwner(guestID))
		if errors.Is(err, store.ErrNotFound) {
			// Nothing to merge; a retry after a successful merge lands here.
			return s.GetCart(ctx, models.UserOwner(userID))
		}
		if err != nil {
			return nil, err
		}
		if len(guestCart.Products) == 0 {
			return nil, BadRequestf("Guest cart is empty")
		}

		userCart, err := s.carts.GetByOwner(ctx, models.UserOwner(userID))
		if errors.Is(err, store.ErrNotFound) {
			// No user cart yet: re-key the guest cart instead of copying it.
			guestCart.UserID = userID
			guestCart.GuestID = ""
			err = s.carts.Update(ctx, guestCart)
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return guestCart, nil
		}
		if err != nil {
			return nil, err
		}

		for _, guestItem := range guestCart.Products {
			if i := userCart.FindLine(guestItem.ProductID, guestItem.Size, guestItem.Color); i >= 0 {
				userCart.Products[i].Quantity += guestItem.Quantity
			} else {
				userCart.Products = append(userCart.Products, guestItem)
			}
		}
		userCart.RecomputeTotal()

		err = s.carts.Update(ctx, userCart)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := s.carts.Delete(ctx, guestCart.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return userCart, nil
	}
	return nil, errRetriesExhausted
}
