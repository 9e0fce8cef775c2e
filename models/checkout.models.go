package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShippingAddress is the structured delivery address captured at checkout.
type ShippingAddress struct {
	FirstName  string `bson:"first_name" json:"firstName"`
	LastName   string `bson:"last_name" json:"lastName"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone" json:"phone"`
}

// PaymentDetails is the opaque confirmation payload from the payment
// provider. It is stored verbatim and never interpreted.
type PaymentDetails map[string]interface{}

// PaymentStatus of a checkout or order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	// PaymentPaid is the literal value the pay endpoint accepts.
	PaymentPaid PaymentStatus = "paid"
)

// CheckoutSession is a point-in-time snapshot of a cart plus shipping and
// payment intent. It moves Pending -> Paid -> Finalized and is immutable
// once finalized. Sessions are never deleted; they are the audit trail.
type CheckoutSession struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	CheckoutItems   []CartItem         `bson:"checkout_items" json:"checkoutItems"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string             `bson:"payment_method" json:"paymentMethod"`
	TotalPrice      float64            `bson:"total_price" json:"totalPrice"`
	PaymentStatus   PaymentStatus      `bson:"payment_status" json:"paymentStatus"`
	IsPaid          bool               `bson:"is_paid" json:"isPaid"`
	PaymentDetails  PaymentDetails     `bson:"payment_details,omitempty" json:"paymentDetails,omitempty"`
	PaidAt          *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	IsFinalized     bool               `bson:"is_finalized" json:"isFinalized"`
	FinalizedAt     *time.Time         `bson:"finalized_at,omitempty" json:"finalizedAt,omitempty"`
	// OrderID is set when finalize creates the order, so a retried
	// finalize can return the existing order.
	OrderID   primitive.ObjectID `bson:"order_id,omitempty" json:"orderId,omitempty"`
	Version   int64              `bson:"version" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
