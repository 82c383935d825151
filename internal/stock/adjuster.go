package stock

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/model"
)

// StockWriter is the atomic stock primitive of the store
type StockWriter interface {
	AdjustAvailable(ctx context.Context, key string, delta float64, at time.Time) (*model.StockChange, error)
}

// Adjuster commits signed stock deltas. The clamp at zero and the inStock
// flag are computed by the store in the same write.
type Adjuster struct {
	writer StockWriter
	now    func() time.Time
}

func NewAdjuster(writer StockWriter) *Adjuster {
	return &Adjuster{writer: writer, now: time.Now}
}

// Apply moves product's available stock by delta
func (a *Adjuster) Apply(ctx context.Context, product *model.Product, delta float64) (*model.StockChange, error) {
	change, err := a.writer.AdjustAvailable(ctx, string(product.Key), delta, a.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("adjust stock of %s: %w", product.Key, err)
	}
	product.Available = change.After
	product.InStock = change.InStock
	product.UpdatedAt = change.UpdatedAt
	return change, nil
}
