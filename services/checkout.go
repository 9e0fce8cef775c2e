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

// CheckoutService drives the Pending -> Paid -> Finalized state machine and
// the exactly-once conversion of a paid checkout into an order.
type CheckoutService struct {
	checkouts store.CheckoutStore
	orders    store.OrderStore
	carts     store.CartStore
}

func NewCheckoutService(checkouts store.CheckoutStore, orders store.OrderStore, carts store.CartStore) *CheckoutService {
	return &CheckoutService{checkouts: checkouts, orders: orders, carts: carts}
}

// CreateCheckoutInput carries the client's cart snapshot.
type CreateCheckoutInput struct {
	CheckoutItems   []models.CartItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	TotalPrice      float64
}

// Create opens a new checkout session from a non-empty cart snapshot. The
// items are a point-in-time copy; later cart mutations do not touch them.
func (s *CheckoutService) Create(ctx context.Context, userID primitive.ObjectID, in CreateCheckoutInput) (*models.CheckoutSession, error) {
	if userID.IsZero() {
		return nil, Unauthorizedf("Not authorized")
	}
	if len(in.CheckoutItems) == 0 {
		return nil, BadRequestf("No items in checkout")
	}

	session := &models.CheckoutSession{
		UserID:          userID,
		CheckoutItems:   append([]models.CartItem(nil), in.CheckoutItems...),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TotalPrice:      in.TotalPrice,
		PaymentStatus:   models.PaymentPending,
		IsPaid:          false,
	}
	if err := s.checkouts.Insert(ctx, session); err != nil {
		return nil, err
	}
	log.Printf("checkout created for user %s", userID.Hex())
	return session, nil
}

// MarkPaid records the payment confirmation. Only the literal status "paid"
// transitions the session; anything else is rejected without touching it.
// A second call on an already-paid session is a no-op returning the session
// as stored, so paidAt is never re-stamped.
func (s *CheckoutService) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentStatus string, details models.PaymentDetails) (*models.CheckoutSession, error) {
	for attempt := 0; attempt < versionRetries; attempt++ {
		session, err := s.checkouts.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundf("Checkout not found")
		}
		if err != nil {
			return nil, err
		}

		if paymentStatus != string(models.PaymentPaid) {
			return nil, BadRequestf("Invalid Payment Status")
		}
		if session.IsPaid {
			return session, nil
		}

		now := time.Now()
		session.IsPaid = true
		session.PaymentStatus = models.PaymentPaid
		session.PaymentDetails = details
		session.PaidAt = &now

		err = s.checkouts.Update(ctx, session)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	return nil, Conflictf("Checkout was modified concurrently, please retry")
}

// Finalize converts a paid checkout into an order exactly once and clears
// the owner's cart. The flip of is_finalized is a version-guarded write, so
// two racing finalizes cannot both flip it; the unique index on the order's
// checkout id closes the remaining insert race in the repair path. A
// finalize retried after success returns the existing order rather than
// erroring. The returned bool reports whether this call created the order,
// so one-shot side effects such as the confirmation email fire only once.
func (s *CheckoutService) Finalize(ctx context.Context, id primitive.ObjectID) (*models.Order, bool, error) {
	for attempt := 0; attempt < versionRetries; attempt++ {
		session, err := s.checkouts.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, NotFoundf("Checkout not found")
		}
		if err != nil {
			return nil, false, err
		}

		if session.IsFinalized {
			if !session.OrderID.IsZero() {
				order, err := s.orders.Get(ctx, session.OrderID)
				if errors.Is(err, store.ErrNotFound) {
					// Order was deleted by an admin; the session stays the audit trail.
					return nil, false, NotFoundf("Order not found for finalized checkout")
				}
				if err != nil {
					return nil, false, err
				}
				return order, false, nil
			}
			// Finalized but orderless: a crash hit between the flip and
			// the order insert. Repair in place.
			return s.createOrderFor(ctx, session)
		}

		if !session.IsPaid {
			return nil, false, BadRequestf("Checkout is not Paid")
		}

		now := time.Now()
		session.IsFinalized = true
		session.FinalizedAt = &now

		err = s.checkouts.Update(ctx, session)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, false, err
		}

		order, created, err := s.createOrderFor(ctx, session)
		if err != nil {
			return nil, false, err
		}

		if err := s.carts.DeleteByUser(ctx, session.UserID); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("failed to clear cart for user %s after finalize: %v", session.UserID.Hex(), err)
		}
		return order, created, nil
	}
	return nil, false, Conflictf("Checkout was modified concurrently, please retry")
}

func (s *CheckoutService) createOrderFor(ctx context.Context, session *models.CheckoutSession) (*models.Order, bool, error) {
	// An order keyed by this checkout may already exist if an earlier
	// attempt crashed after the insert; never create a second one.
	existing, err := s.orders.FindByCheckout(ctx, session.ID)
	if err == nil {
		return existing, false, s.linkOrder(ctx, session, existing.ID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	order := &models.Order{
		UserID:          session.UserID,
		CheckoutID:      session.ID,
		OrderItems:      append([]models.CartItem(nil), session.CheckoutItems...),
		ShippingAddress: session.ShippingAddress,
		PaymentMethod:   session.PaymentMethod,
		TotalPrice:      session.TotalPrice,
		IsPaid:          true,
		PaidAt:          session.PaidAt,
		PaymentStatus:   models.PaymentPaid,
		PaymentDetails:  session.PaymentDetails,
		IsDelivered:     false,
		Status:          models.OrderProcessing,
	}
	err = s.orders.Insert(ctx, order)
	if errors.Is(err, store.ErrDuplicate) {
		// A concurrent finalize (or the reconciler) inserted between our
		// lookup and our insert; the unique index on checkout_id kept the
		// ledger at one order. Return the winner's.
		existing, err := s.orders.FindByCheckout(ctx, session.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, s.linkOrder(ctx, session, existing.ID)
	}
	if err != nil {
		return nil, false, err
	}
	return order, true, s.linkOrder(ctx, session, order.ID)
}

// linkOrder records the order id on the checkout. A failure is logged, not
// returned as fatal: the order exists and reconciliation repairs the link.
func (s *CheckoutService) linkOrder(ctx context.Context, session *models.CheckoutSession, orderID primitive.ObjectID) error {
	if !session.OrderID.IsZero() {
		return nil
	}
	if err := s.checkouts.SetOrderID(ctx, session.ID, orderID); err != nil {
		log.Printf("failed to record order id on checkout %s: %v", session.ID.Hex(), err)
	}
	return nil
}

// ReconcileOrphans creates the missing order for every finalized checkout
// that has none, and returns how many it repaired. Run at startup.
func (s *CheckoutService) ReconcileOrphans(ctx context.Context) (int, error) {
	sessions, err := s.checkouts.ListFinalizedWithoutOrder(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range sessions {
		if _, _, err := s.createOrderFor(ctx, &sessions[i]); err != nil {
			log.Printf("failed to reconcile checkout %s: %v", sessions[i].ID.Hex(), err)
			continue
		}
		repaired++
	}
	return repaired, nil
}
