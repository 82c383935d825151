package stock

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
	"storefront-service/pkg/logger"
	"storefront-service/pkg/notify"

	"go.uber.org/zap"
)

// Direction of a stock adjustment
type Direction string

const (
	DirectionReduce  Direction = "reduce"
	DirectionRestore Direction = "restore"
)

// Adjustment outcomes reported to metrics
const (
	OutcomeApplied  = "applied"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder receives stock metrics
type Recorder interface {
	RecordStockAdjustment(direction, outcome string)
	UpdateProductInventory(productKey, productName, unit string, available float64)
	RecordLowStockAlert(productKey string)
}

// Store is the store surface the service needs
type Store interface {
	ProductFinder
	StockWriter
}

// Adjustment is one applied line item
type Adjustment struct {
	ProductKey  string             `json:"productKey"`
	ProductName string             `json:"productName"`
	Unit        string             `json:"unit"`
	Quantity    float64            `json:"quantity"`
	Change      *model.StockChange `json:"change"`
}

// SkippedItem is a line item whose product could not be found
type SkippedItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Report lists what a Reduce or Restore call did
type Report struct {
	Applied []Adjustment  `json:"applied"`
	Skipped []SkippedItem `json:"skipped"`
}

// Option configures a Service
type Option func(*Service)

// WithLedger records every applied adjustment
func WithLedger(l repository.Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithRecorder reports adjustments to metrics
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLowStockAlerts notifies when a reduction leaves a product at or
// below threshold
func WithLowStockAlerts(n notify.Notifier, threshold float64) Option {
	return func(s *Service) {
		s.notifier = n
		s.threshold = threshold
	}
}

// WithStrategies overrides the resolver's lookup order
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Service) { s.resolver = NewResolver(s.store, strategies...) }
}

// Service applies order line items to product stock
type Service struct {
	store     Store
	resolver  *Resolver
	adjuster  *Adjuster
	ledger    repository.Ledger
	recorder  Recorder
	notifier  notify.Notifier
	threshold float64
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: NewResolver(store),
		adjuster: NewAdjuster(store),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolver exposes the product resolver used by the service
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Reduce takes the items' quantities out of stock
func (s *Service) Reduce(ctx context.Context, items []model.LineItem, orderID string) (*Report, error) {
	return s.apply(ctx, items, orderID, DirectionReduce)
}

// Restore puts the items' quantities back into stock
func (s *Service) Restore(ctx context.Context, items []model.LineItem, orderID string) (*Report, error) {
	return s.apply(ctx, items, orderID, DirectionRestore)
}

// apply processes items one at a time. Missing products are skipped; a store
// failure stops processing and leaves earlier items applied.
func (s *Service) apply(ctx context.Context, items []model.LineItem, orderID string, dir Direction) (*Report, error) {
	log := logger.FromContext(ctx).With(zap.String("direction", string(dir)))
	if orderID != "" {
		log = log.With(zap.String("order_id", orderID))
	}

	report := &Report{Applied: []Adjustment{}, Skipped: []SkippedItem{}}
	for _, item := range items {
		id, err := ParseIdentifier(item.ID)
		if err != nil {
			log.Warn("Skipping line item with invalid product id", zap.Any("id", item.ID), zap.Error(err))
			s.record(dir, OutcomeNotFound)
			report.Skipped = append(report.Skipped, SkippedItem{ID: model.IDString(item.ID), Reason: "invalid product id"})
			continue
		}

		product, err := s.resolver.Resolve(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Product not found for stock update", zap.String("product_id", id.String()))
			s.record(dir, OutcomeNotFound)
			report.Skipped = append(report.Skipped, SkippedItem{ID: id.String(), Reason: "product not found"})
			continue
		}
		if err != nil {
			s.record(dir, OutcomeError)
			return report, err
		}

		unit := product.CanonicalUnit()
		quantity := Normalize(item.PackSize(), unit, item.Quantity)
		delta := quantity
		if dir == DirectionReduce {
			delta = -quantity
		}

		change, err := s.adjuster.Apply(ctx, product, delta)
		if errors.Is(err, repository.ErrNotFound) {
			// removed between lookup and update
			log.Warn("Product disappeared before stock update", zap.String("product_key", string(product.Key)))
			s.record(dir, OutcomeNotFound)
			report.Skipped = append(report.Skipped, SkippedItem{ID: id.String(), Reason: "product not found"})
			continue
		}
		if err != nil {
			s.record(dir, OutcomeError)
			return report, err
		}

		s.record(dir, OutcomeApplied)
		log.Info("Stock updated",
			zap.String("product_key", string(product.Key)),
			zap.String("product_name", product.Name),
			zap.String("size", item.PackSize()),
			zap.Float64("quantity", quantity),
			zap.String("unit", unit),
			zap.Float64("before", change.Before),
			zap.Float64("after", change.After),
		)

		report.Applied = append(report.Applied, Adjustment{
			ProductKey:  string(product.Key),
			ProductName: product.Name,
			Unit:        unit,
			Quantity:    quantity,
			Change:      change,
		})

		s.afterChange(ctx, log, product, unit, item, change, orderID, dir)
	}
	return report, nil
}

func (s *Service) record(dir Direction, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordStockAdjustment(string(dir), outcome)
	}
}

// afterChange runs the side effects of a committed adjustment. None of them
// can fail the request.
func (s *Service) afterChange(ctx context.Context, log *zap.Logger, product *model.Product, unit string, item model.LineItem, change *model.StockChange, orderID string, dir Direction) {
	if s.recorder != nil {
		s.recorder.UpdateProductInventory(string(product.Key), product.Name, unit, change.After)
	}

	if s.ledger != nil {
		reason := model.ReasonSale
		if dir == DirectionRestore {
			reason = model.ReasonCancellation
		}
		err := s.ledger.Record(ctx, &model.StockMovement{
			ProductKey:     string(product.Key),
			ProductName:    product.Name,
			Reason:         reason,
			OrderID:        orderID,
			Delta:          change.Delta,
			QuantityBefore: change.Before,
			QuantityAfter:  change.After,
			Unit:           unit,
			CreatedAt:      change.UpdatedAt,
		})
		if err != nil {
			log.Error("Failed to record stock movement", zap.String("product_key", string(product.Key)), zap.Error(err))
		}
	}

	if dir != DirectionReduce || s.notifier == nil || !crossedThreshold(change, s.threshold) {
		return
	}

	if s.recorder != nil {
		s.recorder.RecordLowStockAlert(string(product.Key))
	}
	alert := notify.LowStockAlert{
		ProductKey:  string(product.Key),
		ProductName: product.Name,
		Size:        item.PackSize(),
		Unit:        unit,
		Available:   change.After,
		Threshold:   s.threshold,
	}
	if err := s.notifier.LowStock(ctx, alert); err != nil {
		log.Error("Failed to send low stock alert", zap.String("product_key", string(product.Key)), zap.Error(err))
		return
	}
	log.Info("Low stock alert sent", zap.String("product_key", string(product.Key)), zap.Float64("available", change.After))
}

// crossedThreshold reports whether a change took stock from above the
// threshold to at or below it
func crossedThreshold(change *model.StockChange, threshold float64) bool {
	return change.Before > threshold && change.After <= threshold
}

// String renders a report summary for logs and messages
func (r *Report) String() string {
	return fmt.Sprintf("%d applied, %d skipped", len(r.Applied), len(r.Skipped))
}
