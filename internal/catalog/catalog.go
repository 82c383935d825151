package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
	"storefront-service/internal/stock"
	"storefront-service/pkg/logger"

	"go.uber.org/zap"
)

// Recorder receives catalog metrics
type Recorder interface {
	RecordCatalogOperation(operation string)
	UpdateProductInventory(productKey, productName, unit string, available float64)
}

// SyncError describes a catalog entry that could not be synced
type SyncError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// SyncResult summarises a product sync
type SyncResult struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Failed  int         `json:"failed"`
	Total   int         `json:"total"`
	Errors  []SyncError `json:"errors,omitempty"`
}

// ReviewSyncResult summarises a review count sync
type ReviewSyncResult struct {
	Products int `json:"products"`
	Updated  int `json:"updated"`
}

// Service keeps the stored catalog aligned with the master product list and
// the review collection
type Service struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	ledger   repository.Ledger
	recorder Recorder
	now      func() time.Time
}

func NewService(products repository.ProductRepository, reviews repository.ReviewRepository, ledger repository.Ledger, recorder Recorder) *Service {
	return &Service{
		products: products,
		reviews:  reviews,
		ledger:   ledger,
		recorder: recorder,
		now:      time.Now,
	}
}

// SyncProducts inserts catalog entries missing from the store and refreshes
// stock fields of the ones already present, matching on the numeric id.
// Entries that fail are reported and do not stop the sync.
func (s *Service) SyncProducts(ctx context.Context, entries []*model.Product) (*SyncResult, error) {
	log := logger.FromContext(ctx)
	result := &SyncResult{Total: len(entries)}

	for _, entry := range entries {
		if err := s.syncProduct(ctx, log, entry, result); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, SyncError{ID: model.IDString(entry.ID), Error: err.Error()})
			log.Warn("Failed to sync product", zap.String("product_id", model.IDString(entry.ID)), zap.Error(err))
		}
	}

	log.Info("Product sync finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *Service) syncProduct(ctx context.Context, log *zap.Logger, entry *model.Product, result *SyncResult) error {
	id, err := stock.ParseIdentifier(entry.ID)
	if err != nil {
		return err
	}
	numericID, ok := id.NumericID()
	if !ok {
		return fmt.Errorf("product id %q is not numeric", id)
	}
	if entry.Available < 0 {
		return fmt.Errorf("available must not be negative")
	}

	p := *entry
	p.ID = numericID
	p.Unit = p.CanonicalUnit()

	var before float64
	existing, err := s.products.FindByNumericID(ctx, numericID)
	switch {
	case err == nil:
		before = existing.Available
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	at := s.now().UTC()
	created, err := s.products.UpsertByNumericID(ctx, &p, at)
	if err != nil {
		return err
	}

	key := string(p.Key)
	name := p.Name
	if created {
		result.Created++
		s.recordOperation("product_created")
	} else {
		result.Updated++
		s.recordOperation("product_updated")
		if existing != nil {
			key = string(existing.Key)
			name = existing.Name
		}
	}
	if s.recorder != nil {
		s.recorder.UpdateProductInventory(key, name, p.Unit, p.Available)
	}

	if s.ledger != nil && p.Available != before {
		err := s.ledger.Record(ctx, &model.StockMovement{
			ProductKey:     key,
			ProductName:    name,
			Reason:         model.ReasonSync,
			Delta:          p.Available - before,
			QuantityBefore: before,
			QuantityAfter:  p.Available,
			Unit:           p.Unit,
			CreatedAt:      at,
		})
		if err != nil {
			log.Error("Failed to record sync movement", zap.String("product_key", key), zap.Error(err))
		}
	}
	return nil
}

// SyncReviewCounts recounts reviews per product and stores the count on
// every product whose stored count differs. Reviews may reference a product
// by its legacy id or by its document key.
func (s *Service) SyncReviewCounts(ctx context.Context) (*ReviewSyncResult, error) {
	log := logger.FromContext(ctx)

	counts, err := s.reviews.CountByProduct(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, "")
	if err != nil {
		return nil, err
	}

	result := &ReviewSyncResult{Products: len(products)}
	for _, p := range products {
		count := 0
		if id := model.IDString(p.ID); id != "" {
			count += counts[id]
		}
		if key := string(p.Key); key != model.IDString(p.ID) {
			count += counts[key]
		}
		if count == p.Reviews {
			continue
		}
		if err := s.products.SetReviewCount(ctx, string(p.Key), count); err != nil {
			return result, err
		}
		result.Updated++
		log.Debug("Review count updated",
			zap.String("product_key", string(p.Key)),
			zap.Int("old", p.Reviews),
			zap.Int("new", count))
	}

	s.recordOperation("review_counts_synced")
	log.Info("Review counts synchronized", zap.Int("products", result.Products), zap.Int("updated", result.Updated))
	return result, nil
}

func (s *Service) recordOperation(op string) {
	if s.recorder != nil {
		s.recorder.RecordCatalogOperation(op)
	}
}
