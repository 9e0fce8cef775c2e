package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderService is the read-and-admin surface over the order ledger. Orders
// are created only by CheckoutService.Finalize.
type OrderService struct {
	orders store.OrderStore
	users  store.UserStore
}

func NewOrderService(orders store.OrderStore, users store.UserStore) *OrderService {
	return &OrderService{orders: orders, users: users}
}

// Get returns one order with the owning user's name and email attached.
func (s *OrderService) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundf("Order not found with this ID")
		}
		return nil, err
	}
	s.attachUser(ctx, order)
	return order, nil
}

// MyOrders lists the caller's orders, newest first.
func (s *OrderService) MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, NotFoundf("No orders found for this user")
	}
	return orders, nil
}

// ListAll returns every order with owners attached, plus the aggregate
// revenue across them. Admin only.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, float64, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	totalAmount := 0.0
	for i := range orders {
		totalAmount += orders[i].TotalPrice
		s.attachUser(ctx, &orders[i])
	}
	return orders, totalAmount, nil
}

// UpdateStatus moves an order to a new fulfillment status. Delivered is
// terminal: it stamps deliveredAt and blocks all further transitions.
func (s *OrderService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundf("Order not found with this ID")
		}
		return nil, err
	}

	if !status.Valid() {
		return nil, BadRequestf("Invalid order status: %s", status)
	}
	if order.Status == models.OrderDelivered {
		return nil, BadRequestf("You have already delivered this order")
	}

	order.Status = status
	if status == models.OrderDelivered {
		now := time.Now()
		order.IsDelivered = true
		order.DeliveredAt = &now
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Delete removes an order outright. Admin only, no cascading effects.
func (s *OrderService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundf("Order not found with this ID")
		}
		return err
	}
	return nil
}

func (s *OrderService) attachUser(ctx context.Context, order *models.Order) {
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("failed to load user %s for order %s: %v", order.UserID.Hex(), order.ID.Hex(), err)
		}
		return
	}
	order.User = &models.OrderUser{Name: user.Name, Email: user.Email}
}
