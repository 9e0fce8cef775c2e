package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"
)

// SubscriberController handles newsletter signups
type SubscriberController struct {
	Subscribers store.SubscriberStore
}

// NewSubscriberController creates a new SubscriberController
func NewSubscriberController(subscribers store.SubscriberStore) *SubscriberController {
	return &SubscriberController{Subscribers: subscribers}
}

// Subscribe records a newsletter signup
func (sc *SubscriberController) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		utils.Fail(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	subscriber := &models.Subscriber{Email: req.Email}
	if err := sc.Subscribers.Insert(ctx, subscriber); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.Fail(w, http.StatusBadRequest, "Email is already subscribed")
			return
		}
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, utils.Envelope{
		"success": true,
		"message": "Subscribed successfully",
	})
}

// AdminListSubscribers lists all newsletter subscribers (Admin only)
func (sc *SubscriberController) AdminListSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	subscribers, err := sc.Subscribers.List(ctx)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "subscribers": subscribers})
}
