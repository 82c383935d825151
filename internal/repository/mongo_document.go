package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDocumentStore is schemaless access to whitelisted collections
type MongoDocumentStore struct {
	db *mongo.Database
}

func NewMongoDocumentStore(db *mongo.Database) *MongoDocumentStore {
	return &MongoDocumentStore{db: db}
}

func (s *MongoDocumentStore) ListDocuments(ctx context.Context, collection string, limit int64) ([]map[string]interface{}, error) {
	findOptions := options.Find()
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []map[string]interface{}{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		docs = append(docs, exposeKey(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}
	return docs, nil
}

func (s *MongoDocumentStore) InsertDocument(ctx context.Context, collection string, doc map[string]interface{}) (string, error) {
	key := uuid.New().String()
	now := time.Now()

	record := bson.M{}
	for k, v := range doc {
		record[k] = v
	}
	record["_id"] = key
	record["createdAt"] = now
	record["updatedAt"] = now

	if _, err := s.db.Collection(collection).InsertOne(ctx, record); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return key, nil
}

// exposeKey publishes the store key as id unless the document carries its
// own id field
func exposeKey(doc bson.M) map[string]interface{} {
	out := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	if _, ok := out["id"]; ok {
		return out
	}
	switch key := doc["_id"].(type) {
	case primitive.ObjectID:
		out["id"] = key.Hex()
	default:
		out["id"] = key
	}
	return out
}
