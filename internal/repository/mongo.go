package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	productCollectionName = "products"
	orderCollectionName   = "orders"
	reviewCollectionName  = "reviews"
)

// keyFilter matches a document key stored either as a string or, for
// 24-char hex keys, as an ObjectID
func keyFilter(key string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(key); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{key, oid}}}
	}
	return bson.M{"_id": key}
}

// MongoHealth pings the database backing the stores
type MongoHealth struct {
	client *mongo.Client
}

func NewMongoHealth(client *mongo.Client) *MongoHealth {
	return &MongoHealth{client: client}
}

func (h *MongoHealth) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}
