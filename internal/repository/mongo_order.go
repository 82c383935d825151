package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// finalStatus matches statuses an order can no longer leave, in any casing
var finalStatus = primitive.Regex{Pattern: `^\s*(delivered|cancelled)\s*$`, Options: "i"}

type MongoOrderStore struct {
	collection *mongo.Collection
}

func NewMongoOrderStore(db *mongo.Database) *MongoOrderStore {
	return &MongoOrderStore{collection: db.Collection(orderCollectionName)}
}

func (s *MongoOrderStore) Create(ctx context.Context, order *model.Order) error {
	if _, err := s.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *MongoOrderStore) GetByKey(ctx context.Context, key string) (*model.Order, error) {
	var order model.Order
	err := s.collection.FindOne(ctx, keyFilter(key)).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

func (s *MongoOrderStore) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Order, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var orders []*model.Order
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders for user %s: %w", userID, err)
	}
	if orders == nil {
		orders = []*model.Order{}
	}
	return orders, nil
}

// MarkCancelled only matches orders that are still cancellable, so two
// concurrent cancellations cannot both succeed
func (s *MongoOrderStore) MarkCancelled(ctx context.Context, key string, at time.Time) error {
	filter := keyFilter(key)
	filter["status"] = bson.M{"$not": finalStatus}

	update := bson.M{
		"$set": bson.M{
			"status":      model.StatusCancelled,
			"cancelledAt": at,
			"updatedAt":   at,
		},
	}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := s.collection.CountDocuments(ctx, keyFilter(key))
	if err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}
