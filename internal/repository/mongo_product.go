package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoProductStore struct {
	collection *mongo.Collection
}

func NewMongoProductStore(db *mongo.Database) *MongoProductStore {
	return &MongoProductStore{collection: db.Collection(productCollectionName)}
}

func (s *MongoProductStore) findOne(ctx context.Context, filter bson.M) (*model.Product, error) {
	var product model.Product
	err := s.collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// FindByNumericID matches documents whose id field holds a number equal to id
func (s *MongoProductStore) FindByNumericID(ctx context.Context, id int64) (*model.Product, error) {
	return s.findOne(ctx, bson.M{"id": id})
}

// FindByStringID matches documents whose id field holds the string id
func (s *MongoProductStore) FindByStringID(ctx context.Context, id string) (*model.Product, error) {
	return s.findOne(ctx, bson.M{"id": id})
}

func (s *MongoProductStore) FindByKey(ctx context.Context, key string) (*model.Product, error) {
	return s.findOne(ctx, keyFilter(key))
}

func (s *MongoProductStore) List(ctx context.Context, category string) ([]*model.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*model.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	if products == nil {
		products = []*model.Product{}
	}
	return products, nil
}

// AdjustAvailable runs the clamp and the inStock derivation server side in a
// single pipeline update, so concurrent adjustments cannot lose each other
func (s *MongoProductStore) AdjustAvailable(ctx context.Context, key string, delta float64, at time.Time) (*model.StockChange, error) {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$available", 0.0}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "available", Value: bson.D{{Key: "$max", Value: bson.A{
				0.0,
				bson.D{{Key: "$add", Value: bson.A{current, delta}}},
			}}}},
			{Key: "updatedAt", Value: at},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "inStock", Value: bson.D{{Key: "$gt", Value: bson.A{"$available", 0.0}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"available": 1})

	var before struct {
		Available float64 `bson:"available"`
	}
	err := s.collection.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to adjust product stock: %w", err)
	}

	after := model.ClampStock(before.Available, delta)
	return &model.StockChange{
		Before:    before.Available,
		After:     after,
		Delta:     after - before.Available,
		InStock:   after > 0,
		UpdatedAt: at,
	}, nil
}

func (s *MongoProductStore) UpsertByNumericID(ctx context.Context, p *model.Product, at time.Time) (bool, error) {
	filter := bson.M{"id": p.ID}
	update := bson.M{
		"$set": bson.M{
			"available": p.Available,
			"unit":      p.Unit,
			"inStock":   p.Available > 0,
			"updatedAt": at,
		},
	}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update product %v: %w", p.ID, err)
	}
	if result.MatchedCount > 0 {
		return false, nil
	}

	doc := *p
	doc.Key = model.DocKey(uuid.New().String())
	doc.InStock = doc.Available > 0
	doc.CreatedAt = at
	doc.UpdatedAt = at
	if _, err := s.collection.InsertOne(ctx, &doc); err != nil {
		return false, fmt.Errorf("failed to insert product %v: %w", p.ID, err)
	}
	p.Key = doc.Key
	return true, nil
}

func (s *MongoProductStore) SetReviewCount(ctx context.Context, key string, count int) error {
	result, err := s.collection.UpdateOne(ctx, keyFilter(key), bson.M{
		"$set": bson.M{"reviews": count},
	})
	if err != nil {
		return fmt.Errorf("failed to update review count: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
