package store

import (
	"context"
	"errors"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict means the document changed between read and write.
	ErrVersionConflict = errors.New("document version conflict")
	ErrDuplicate       = errors.New("duplicate document")
)

// CartStore persists carts. Update and Delete are version-guarded: the
// caller writes back the version it read, and the store rejects the write
// with ErrVersionConflict if another request got there first.
type CartStore interface {
	GetByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	Insert(ctx context.Context, cart *models.Cart) error
	Update(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// CheckoutStore persists checkout sessions. Sessions are append-only from
// the caller's point of view: Update is version-guarded and there is no
// delete.
type CheckoutStore interface {
	Insert(ctx context.Context, session *models.CheckoutSession) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.CheckoutSession, error)
	Update(ctx context.Context, session *models.CheckoutSession) error
	SetOrderID(ctx context.Context, id, orderID primitive.ObjectID) error
	ListFinalizedWithoutOrder(ctx context.Context) ([]models.CheckoutSession, error)
}

// OrderStore persists orders.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByCheckout(ctx context.Context, checkoutID primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductStore is the catalog's persistence.
type ProductStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserStore persists users.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SubscriberStore persists newsletter signups.
type SubscriberStore interface {
	Insert(ctx context.Context, subscriber *models.Subscriber) error
	List(ctx context.Context) ([]models.Subscriber, error)
}
