package repository

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no document
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional update did not apply
	ErrConflict = errors.New("conflict")
)

// ProductRepository is the product collection as seen by the storefront
type ProductRepository interface {
	FindByNumericID(ctx context.Context, id int64) (*model.Product, error)
	FindByStringID(ctx context.Context, id string) (*model.Product, error)
	FindByKey(ctx context.Context, key string) (*model.Product, error)
	List(ctx context.Context, category string) ([]*model.Product, error)

	// AdjustAvailable atomically sets available = max(0, available+delta),
	// inStock = available > 0 and updatedAt = at
	AdjustAvailable(ctx context.Context, key string, delta float64, at time.Time) (*model.StockChange, error)

	// UpsertByNumericID inserts the product or refreshes stock fields of the
	// existing product with the same numeric id
	UpsertByNumericID(ctx context.Context, p *model.Product, at time.Time) (created bool, err error)
	SetReviewCount(ctx context.Context, key string, count int) error
}

// OrderRepository is the order collection
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByKey(ctx context.Context, key string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Order, error)

	// MarkCancelled moves a cancellable order to Cancelled. Returns ErrConflict
	// when the order is already Delivered or Cancelled.
	MarkCancelled(ctx context.Context, key string, at time.Time) error
}

// ReviewRepository is the review collection
type ReviewRepository interface {
	// CountByProduct returns review counts keyed by the product id string form
	CountByProduct(ctx context.Context) (map[string]int, error)
}

// DocumentRepository gives schemaless access to the allowed collections
type DocumentRepository interface {
	ListDocuments(ctx context.Context, collection string, limit int64) ([]map[string]interface{}, error)
	InsertDocument(ctx context.Context, collection string, doc map[string]interface{}) (string, error)
}

// Ledger stores stock movements for auditing
type Ledger interface {
	Record(ctx context.Context, m *model.StockMovement) error
	List(ctx context.Context, productKey string, limit int) ([]model.StockMovement, error)
}

// Collections reachable through the generic data endpoints
var Collections = map[string]bool{
	"orders":   true,
	"products": true,
	"reviews":  true,
	"users":    true,
}

// Pinger reports store health
type Pinger interface {
	Ping(ctx context.Context) error
}
