package store

import (
	"context"
	"fmt"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoSubscriberStore struct {
	collection *mongo.Collection
}

// NewMongoSubscriberStore returns a SubscriberStore backed by the
// "subscribers" collection.
func NewMongoSubscriberStore(db *mongo.Database) SubscriberStore {
	return &mongoSubscriberStore{collection: db.Collection("subscribers")}
}

func (s *mongoSubscriberStore) Insert(ctx context.Context, subscriber *models.Subscriber) error {
	subscriber.CreatedAt = time.Now()

	result, err := s.collection.InsertOne(ctx, subscriber)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert subscriber: %w", err)
	}
	subscriber.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *mongoSubscriberStore) List(ctx context.Context) ([]models.Subscriber, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer cursor.Close(ctx)

	var subscribers []models.Subscriber
	if err := cursor.All(ctx, &subscribers); err != nil {
		return nil, fmt.Errorf("failed to decode subscribers: %w", err)
	}
	return subscribers, nil
}
