package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoOwner is returned when a request carries neither a user identity nor
// a guest token.
var ErrNoOwner = errors.New("cart owner requires a user id or a guest id")

// CartOwner identifies who a cart belongs to. Exactly one of UserID or
// GuestID is set; constructions with both or neither are rejected up front
// so the business logic never has to re-check.
type CartOwner struct {
	UserID  primitive.ObjectID
	GuestID string
}

// UserOwner returns an owner for an authenticated user.
func UserOwner(id primitive.ObjectID) CartOwner {
	return CartOwner{UserID: id}
}

// GuestOwner returns an owner for a guest token.
func GuestOwner(guestID string) CartOwner {
	return CartOwner{GuestID: guestID}
}

// ResolveOwner builds an owner from loosely supplied identifiers. The user
// identity wins when both are present, matching how a logged-in client that
// still carries its old guest token is treated.
func ResolveOwner(userID primitive.ObjectID, guestID string) (CartOwner, error) {
	if !userID.IsZero() {
		return UserOwner(userID), nil
	}
	if guestID != "" {
		return GuestOwner(guestID), nil
	}
	return CartOwner{}, ErrNoOwner
}

// IsUser reports whether the owner is an authenticated user.
func (o CartOwner) IsUser() bool {
	return !o.UserID.IsZero()
}

// CartItem represents one line in a cart. Two lines with the same product
// but a different size or color are distinct.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image" json:"image"`
	Price     float64            `bson:"price" json:"price"`
	Size      string             `bson:"size" json:"size"`
	Color     string             `bson:"color" json:"color"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// SameLine reports whether the item matches the (product, size, color) key.
func (i CartItem) SameLine(productID primitive.ObjectID, size, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}

// Cart represents a shopping cart owned by a user or a guest.
type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	GuestID    string             `bson:"guest_id,omitempty" json:"guestId,omitempty"`
	Products   []CartItem         `bson:"products" json:"products"`
	TotalPrice float64            `bson:"total_price" json:"totalPrice"`
	Version    int64              `bson:"version" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Owner returns the cart's owner.
func (c *Cart) Owner() CartOwner {
	if !c.UserID.IsZero() {
		return UserOwner(c.UserID)
	}
	return GuestOwner(c.GuestID)
}

// FindLine returns the index of the line matching the key, or -1.
func (c *Cart) FindLine(productID primitive.ObjectID, size, color string) int {
	for i, item := range c.Products {
		if item.SameLine(productID, size, color) {
			return i
		}
	}
	return -1
}

// RecomputeTotal rederives TotalPrice from the lines. The stored total is
// never trusted; every mutation goes through here.
func (c *Cart) RecomputeTotal() {
	total := 0.0
	for _, item := range c.Products {
		total += item.Price * float64(item.Quantity)
	}
	c.TotalPrice = total
}
