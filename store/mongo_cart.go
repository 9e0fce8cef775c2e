package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCartStore struct {
	collection *mongo.Collection
}

// NewMongoCartStore returns a CartStore backed by the "carts" collection.
func NewMongoCartStore(db *mongo.Database) CartStore {
	return &mongoCartStore{collection: db.Collection("carts")}
}

func ownerFilter(owner models.CartOwner) bson.M {
	if owner.IsUser() {
		return bson.M{"user_id": owner.UserID}
	}
	return bson.M{"guest_id": owner.GuestID}
}

func (s *mongoCartStore) GetByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	var cart models.Cart
	err := s.collection.FindOne(ctx, ownerFilter(owner)).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (s *mongoCartStore) Insert(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	cart.Version = 1

	result, err := s.collection.InsertOne(ctx, cart)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert cart: %w", err)
	}
	cart.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// Update writes the cart back, guarded by the version the caller read.
func (s *mongoCartStore) Update(ctx context.Context, cart *models.Cart) error {
	readVersion := cart.Version
	cart.UpdatedAt = time.Now()
	cart.Version = readVersion + 1

	filter := bson.M{"_id": cart.ID, "version": readVersion}
	result, err := s.collection.ReplaceOne(ctx, filter, cart)
	if err != nil {
		cart.Version = readVersion
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if result.MatchedCount == 0 {
		cart.Version = readVersion
		return ErrVersionConflict
	}
	return nil
}

func (s *mongoCartStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoCartStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
