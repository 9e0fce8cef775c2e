package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes the stores depend on for their
// duplicate detection. Without them the ErrDuplicate translations never
// fire: racing first-adds would leave two carts for one owner and racing
// finalizes two orders for one checkout. Run once at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	// One live cart per owner. The owner fields are omitempty, so a guest
	// cart carries no user_id and vice versa; partial filters keep the
	// absent side out of the unique constraint.
	_, err := db.Collection("carts").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"user_id": bson.M{"$exists": true}},
			),
		},
		{
			Keys: bson.D{{Key: "guest_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"guest_id": bson.M{"$exists": true}},
			),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}

	// Exactly one order per finalized checkout.
	_, err = db.Collection("orders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "checkout_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create order index: %w", err)
	}

	_, err = db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}

	_, err = db.Collection("subscribers").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create subscriber index: %w", err)
	}
	return nil
}
