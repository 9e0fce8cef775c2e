package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckoutController handles the checkout session lifecycle
type CheckoutController struct {
	Checkout     *services.CheckoutService
	Users        store.UserStore
	EmailService *utils.EmailService
}

// NewCheckoutController creates a new CheckoutController
func NewCheckoutController(checkout *services.CheckoutService, users store.UserStore, emailService *utils.EmailService) *CheckoutController {
	return &CheckoutController{
		Checkout:     checkout,
		Users:        users,
		EmailService: emailService,
	}
}

func checkoutIDFromPath(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return primitive.NilObjectID, services.NotFoundf("Checkout not found")
	}
	return id, nil
}

// CreateCheckout snapshots the cart into a new checkout session
func (cc *CheckoutController) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req struct {
		CheckoutItems   []models.CartItem      `json:"checkoutItems"`
		ShippingAddress models.ShippingAddress `json:"shippingAddress"`
		PaymentMethod   string                 `json:"paymentMethod"`
		TotalPrice      float64                `json:"totalPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	session, err := cc.Checkout.Create(ctx, userID, services.CreateCheckoutInput{
		CheckoutItems:   req.CheckoutItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TotalPrice:      req.TotalPrice,
	})
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, utils.Envelope{
		"success":  true,
		"checkout": session,
		"message":  "Checkout created successfully",
	})
}

// UpdatePayment marks the checkout paid after payment confirmation
func (cc *CheckoutController) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := checkoutIDFromPath(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	var req struct {
		PaymentStatus  string                `json:"paymentStatus"`
		PaymentDetails models.PaymentDetails `json:"paymentDetails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	session, err := cc.Checkout.MarkPaid(ctx, id, req.PaymentStatus, req.PaymentDetails)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{
		"success":  true,
		"checkout": session,
		"message":  "Payment updated successfully",
	})
}

// FinalizeCheckout converts a paid checkout into an order
func (cc *CheckoutController) FinalizeCheckout(w http.ResponseWriter, r *http.Request) {
	id, err := checkoutIDFromPath(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	order, created, err := cc.Checkout.Finalize(ctx, id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	// Confirmation email goes out in the background; a mail failure must
	// not fail the purchase. A retried finalize returns the existing order
	// without re-sending.
	if created {
		go func(order *models.Order) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			user, err := cc.Users.FindByID(ctx, order.UserID)
			if err != nil {
				log.Printf("failed to load user for order confirmation: %v", err)
				return
			}
			if err := cc.EmailService.SendOrderConfirmationEmail(user.Email, order); err != nil {
				log.Printf("failed to send order confirmation to %s: %v", user.Email, err)
			}
		}(order)
	}

	utils.JSON(w, http.StatusCreated, utils.Envelope{
		"success": true,
		"order":   order,
		"message": "Order created successfully",
	})
}
