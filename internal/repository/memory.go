package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront-service/internal/model"

	"github.com/google/uuid"
)

// MemoryStore is an in-process document store used for local development
// and tests. It satisfies every repository interface of the service.
type MemoryStore struct {
	mu        sync.RWMutex
	products  []*model.Product
	orders    map[string]*model.Order
	reviews   []*model.Review
	documents map[string][]map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[string]*model.Order),
		documents: make(map[string][]map[string]interface{}),
	}
}

// SeedProducts stores copies of the given products, assigning keys where missing
func (s *MemoryStore) SeedProducts(products ...*model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		cp := *p
		if cp.Key == "" {
			cp.Key = model.DocKey(uuid.New().String())
		}
		cp.InStock = cp.Available > 0
		s.products = append(s.products, &cp)
	}
}

// SeedReviews stores copies of the given reviews
func (s *MemoryStore) SeedReviews(reviews ...*model.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reviews {
		cp := *r
		if cp.Key == "" {
			cp.Key = model.DocKey(uuid.New().String())
		}
		s.reviews = append(s.reviews, &cp)
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) findProduct(match func(*model.Product) bool) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindByNumericID(_ context.Context, id int64) (*model.Product, error) {
	return s.findProduct(func(p *model.Product) bool {
		n, ok := numericValue(p.ID)
		return ok && n == float64(id)
	})
}

func (s *MemoryStore) FindByStringID(_ context.Context, id string) (*model.Product, error) {
	return s.findProduct(func(p *model.Product) bool {
		str, ok := p.ID.(string)
		return ok && str == id
	})
}

func (s *MemoryStore) FindByKey(_ context.Context, key string) (*model.Product, error) {
	return s.findProduct(func(p *model.Product) bool {
		return string(p.Key) == key
	})
}

func (s *MemoryStore) List(_ context.Context, category string) ([]*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := []*model.Product{}
	for _, p := range s.products {
		if category != "" && p.Category != category {
			continue
		}
		cp := *p
		products = append(products, &cp)
	}
	return products, nil
}

func (s *MemoryStore) AdjustAvailable(_ context.Context, key string, delta float64, at time.Time) (*model.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if string(p.Key) != key {
			continue
		}
		before := p.Available
		p.Available = model.ClampStock(before, delta)
		p.InStock = p.Available > 0
		p.UpdatedAt = at
		return &model.StockChange{
			Before:    before,
			After:     p.Available,
			Delta:     p.Available - before,
			InStock:   p.InStock,
			UpdatedAt: at,
		}, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpsertByNumericID(_ context.Context, p *model.Product, at time.Time) (bool, error) {
	id, ok := numericValue(p.ID)
	if !ok {
		return false, fmt.Errorf("product id %v is not numeric", p.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if n, ok := numericValue(existing.ID); ok && n == id {
			existing.Available = p.Available
			existing.Unit = p.Unit
			existing.InStock = p.Available > 0
			existing.UpdatedAt = at
			return false, nil
		}
	}

	cp := *p
	cp.Key = model.DocKey(uuid.New().String())
	cp.InStock = cp.Available > 0
	cp.CreatedAt = at
	cp.UpdatedAt = at
	s.products = append(s.products, &cp)
	p.Key = cp.Key
	return true, nil
}

func (s *MemoryStore) SetReviewCount(_ context.Context, key string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if string(p.Key) == key {
			p.Reviews = count
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Create(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[string(order.Key)]; exists {
		return fmt.Errorf("failed to insert order: duplicate key %s", order.Key)
	}
	cp := *order
	cp.Items = append([]model.LineItem(nil), order.Items...)
	s.orders[string(order.Key)] = &cp
	return nil
}

func (s *MemoryStore) GetByKey(_ context.Context, key string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int64) ([]*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []*model.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			cp := *o
			orders = append(orders, &cp)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit > 0 && int64(len(orders)) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *MemoryStore) MarkCancelled(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[key]
	if !ok {
		return ErrNotFound
	}
	if !order.Status.Cancellable() {
		return ErrConflict
	}
	order.Status = model.StatusCancelled
	order.CancelledAt = &at
	order.UpdatedAt = at
	return nil
}

func (s *MemoryStore) CountByProduct(context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range s.reviews {
		if key := model.IDString(r.ProductID); key != "" {
			counts[key]++
		}
	}
	return counts, nil
}

// ListDocuments renders typed collections through their JSON form so the
// generic endpoints see the same records as the typed ones
func (s *MemoryStore) ListDocuments(_ context.Context, collection string, limit int64) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []interface{}
	switch collection {
	case "products":
		for _, p := range s.products {
			records = append(records, p)
		}
	case "orders":
		for _, o := range s.orders {
			records = append(records, o)
		}
	case "reviews":
		for _, r := range s.reviews {
			records = append(records, r)
		}
	default:
		for _, d := range s.documents[collection] {
			records = append(records, d)
		}
	}

	docs := []map[string]interface{}{}
	for _, rec := range records {
		if limit > 0 && int64(len(docs)) >= limit {
			break
		}
		doc, err := toDocument(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s document: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MemoryStore) InsertDocument(_ context.Context, collection string, doc map[string]interface{}) (string, error) {
	key := uuid.New().String()
	now := time.Now()

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch collection {
	case "products":
		var p model.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
		p.Key = model.DocKey(key)
		p.InStock = p.Available > 0
		p.CreatedAt, p.UpdatedAt = now, now
		s.products = append(s.products, &p)
	case "orders":
		var o model.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
		o.Key = model.DocKey(key)
		o.CreatedAt, o.UpdatedAt = now, now
		s.orders[key] = &o
	case "reviews":
		var r model.Review
		if err := json.Unmarshal(raw, &r); err != nil {
			return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
		r.Key = model.DocKey(key)
		r.CreatedAt = now
		s.reviews = append(s.reviews, &r)
	default:
		record := make(map[string]interface{}, len(doc)+3)
		for k, v := range doc {
			record[k] = v
		}
		if _, ok := record["id"]; !ok {
			record["id"] = key
		}
		record["createdAt"] = now
		record["updatedAt"] = now
		s.documents[collection] = append(s.documents[collection], record)
	}
	return key, nil
}

func toDocument(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// numericValue reports the value of a legacy id stored as a number
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
