package middleware

import (
	"net/http"

	"go-storefront/models"
	"go-storefront/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewGuestID mints an opaque guest token. The client persists it and sends
// it back on every cart request until the guest logs in.
func NewGuestID() string {
	return "guest_" + uuid.NewString()
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(r *http.Request) (*utils.Claims, bool) {
	claims, ok := r.Context().Value(UserContextKey).(*utils.Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user's id, if any.
func UserIDFromContext(r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := ClaimsFromContext(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// ResolveOwner produces the cart owner for a request: the authenticated
// user when a token was presented, else the supplied guest token.
func ResolveOwner(r *http.Request, guestID string) (models.CartOwner, error) {
	if userID, ok := UserIDFromContext(r); ok {
		return models.UserOwner(userID), nil
	}
	return models.ResolveOwner(primitive.NilObjectID, guestID)
}
