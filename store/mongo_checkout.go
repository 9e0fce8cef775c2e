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

type mongoCheckoutStore struct {
	collection *mongo.Collection
}

// NewMongoCheckoutStore returns a CheckoutStore backed by the "checkouts"
// collection.
func NewMongoCheckoutStore(db *mongo.Database) CheckoutStore {
	return &mongoCheckoutStore{collection: db.Collection("checkouts")}
}

func (s *mongoCheckoutStore) Insert(ctx context.Context, session *models.CheckoutSession) error {
	session.CreatedAt = time.Now()
	session.Version = 1

	result, err := s.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to insert checkout: %w", err)
	}
	session.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *mongoCheckoutStore) Get(ctx context.Context, id primitive.ObjectID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get checkout: %w", err)
	}
	return &session, nil
}

// Update writes the session back, guarded by the version the caller read.
// The finalize transition relies on this guard for its exactly-once flip.
func (s *mongoCheckoutStore) Update(ctx context.Context, session *models.CheckoutSession) error {
	readVersion := session.Version
	session.Version = readVersion + 1

	filter := bson.M{"_id": session.ID, "version": readVersion}
	result, err := s.collection.ReplaceOne(ctx, filter, session)
	if err != nil {
		session.Version = readVersion
		return fmt.Errorf("failed to update checkout: %w", err)
	}
	if result.MatchedCount == 0 {
		session.Version = readVersion
		return ErrVersionConflict
	}
	return nil
}

func (s *mongoCheckoutStore) SetOrderID(ctx context.Context, id, orderID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"order_id": orderID}}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set order id: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFinalizedWithoutOrder finds sessions whose finalize flip succeeded but
// whose order insert did not. The reconciliation pass repairs these.
func (s *mongoCheckoutStore) ListFinalizedWithoutOrder(ctx context.Context) ([]models.CheckoutSession, error) {
	filter := bson.M{
		"is_finalized": true,
		"$or": []bson.M{
			{"order_id": bson.M{"$exists": false}},
			{"order_id": primitive.NilObjectID},
		},
	}
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned checkouts: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []models.CheckoutSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode orphaned checkouts: %w", err)
	}
	return sessions, nil
}
