package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderController handles order reads and admin mutations
type OrderController struct {
	Orders *services.OrderService
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

func orderIDFromPath(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return primitive.NilObjectID, services.NotFoundf("Order not found with this ID")
	}
	return id, nil
}

// GetOrder returns one order, restricted to its owner or an admin
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromPath(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	claims, ok := middleware.ClaimsFromContext(r)
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	order, err := oc.Orders.Get(ctx, id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if order.UserID.Hex() != claims.UserID && claims.Role != "admin" {
		utils.Fail(w, http.StatusForbidden, "Not authorized to view this order")
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "order": order})
}

// MyOrders lists the caller's orders, newest first
func (oc *OrderController) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	orders, err := oc.Orders.MyOrders(ctx, userID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "orders": orders})
}

// AdminListOrders lists all orders with the aggregate revenue (Admin only)
func (oc *OrderController) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	orders, totalAmount, err := oc.Orders.ListAll(ctx)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{
		"success":     true,
		"totalAmount": totalAmount,
		"orders":      orders,
	})
}

// AdminUpdateOrder updates an order's fulfillment status (Admin only)
func (oc *OrderController) AdminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromPath(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	order, err := oc.Orders.UpdateStatus(ctx, id, models.OrderStatus(req.Status))
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "order": order})
}

// AdminDeleteOrder hard-deletes an order (Admin only)
func (oc *OrderController) AdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromPath(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := oc.Orders.Delete(ctx, id); err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "message": "Order removed"})
}
