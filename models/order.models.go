package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the fulfillment state of an order. Delivered is terminal.
type OrderStatus string

const (
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OrderUser is the owner's display projection attached to order reads.
type OrderUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is the durable record created exactly once per finalized checkout.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	CheckoutID      primitive.ObjectID `bson:"checkout_id" json:"checkoutId"`
	OrderItems      []CartItem         `bson:"order_items" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string             `bson:"payment_method" json:"paymentMethod"`
	TotalPrice      float64            `bson:"total_price" json:"totalPrice"`
	IsPaid          bool               `bson:"is_paid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	PaymentStatus   PaymentStatus      `bson:"payment_status" json:"paymentStatus"`
	PaymentDetails  PaymentDetails     `bson:"payment_details,omitempty" json:"paymentDetails,omitempty"`
	IsDelivered     bool               `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	Status          OrderStatus        `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	User            *OrderUser         `bson:"-" json:"user,omitempty"`
}
