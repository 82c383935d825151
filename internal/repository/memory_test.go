package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMemoryFindByIDForms(t *testing.T) {
	s := NewMemoryStore()
	s.SeedProducts(
		&model.Product{Key: "k-num", ID: 7, Name: "Rice"},
		&model.Product{Key: "k-str", ID: "7x", Name: "Dal"},
		&model.Product{Key: "k-float", ID: float64(12), Name: "Oil"},
	)
	ctx := context.Background()

	p, err := s.FindByNumericID(ctx, 7)
	if err != nil || p.Key != "k-num" {
		t.Fatalf("numeric lookup: %+v %v", p, err)
	}
	if p, err = s.FindByNumericID(ctx, 12); err != nil || p.Key != "k-float" {
		t.Fatalf("float-backed numeric lookup: %+v %v", p, err)
	}
	if _, err = s.FindByStringID(ctx, "7"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("string lookup must not match numeric ids, got %v", err)
	}
	if p, err = s.FindByStringID(ctx, "7x"); err != nil || p.Key != "k-str" {
		t.Fatalf("string lookup: %+v %v", p, err)
	}
	if p, err = s.FindByKey(ctx, "k-str"); err != nil || p.Name != "Dal" {
		t.Fatalf("key lookup: %+v %v", p, err)
	}
}

func TestMemoryAdjustAvailableClamps(t *testing.T) {
	s := NewMemoryStore()
	s.SeedProducts(&model.Product{Key: "p1", ID: 1, Available: 3})
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	change, err := s.AdjustAvailable(ctx, "p1", -5, at)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if change.Before != 3 || change.After != 0 || change.Delta != -3 || change.InStock {
		t.Fatalf("unexpected change: %+v", change)
	}
	p, _ := s.FindByKey(ctx, "p1")
	if p.Available != 0 || p.InStock || !p.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected product: %+v", p)
	}

	if _, err := s.AdjustAvailable(ctx, "missing", 1, at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAdjustAvailableConcurrent(t *testing.T) {
	s := NewMemoryStore()
	s.SeedProducts(&model.Product{Key: "p1", ID: 1, Available: 100})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AdjustAvailable(ctx, "p1", -1, time.Now())
		}()
	}
	wg.Wait()

	p, _ := s.FindByKey(ctx, "p1")
	if p.Available != 50 {
		t.Fatalf("expected 50, got %v", p.Available)
	}
}

func TestMemoryMarkCancelled(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Create(ctx, &model.Order{Key: "o1", Status: model.StatusPlaced})
	_ = s.Create(ctx, &model.Order{Key: "o2", Status: "delivered"})

	if err := s.MarkCancelled(ctx, "o1", time.Now()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := s.MarkCancelled(ctx, "o1", time.Now()); !errors.Is(err, ErrConflict) {
		t.Fatalf("second cancel should conflict, got %v", err)
	}
	if err := s.MarkCancelled(ctx, "o2", time.Now()); !errors.Is(err, ErrConflict) {
		t.Fatalf("delivered cancel should conflict, got %v", err)
	}
	if err := s.MarkCancelled(ctx, "nope", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	o, _ := s.GetByKey(ctx, "o1")
	if !o.Status.Is(model.StatusCancelled) || o.CancelledAt == nil {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestMemoryListByUserNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()
	_ = s.Create(ctx, &model.Order{Key: "a", UserID: "u1", CreatedAt: base})
	_ = s.Create(ctx, &model.Order{Key: "b", UserID: "u1", CreatedAt: base.Add(time.Minute)})
	_ = s.Create(ctx, &model.Order{Key: "c", UserID: "u2", CreatedAt: base})

	orders, err := s.ListByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 || orders[0].Key != "b" || orders[1].Key != "a" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestMemoryUpsertByNumericID(t *testing.T) {
	s := NewMemoryStore()
	s.SeedProducts(&model.Product{Key: "p1", ID: 1, Name: "Rice", Available: 1, Unit: "kg"})
	ctx := context.Background()
	at := time.Now()

	created, err := s.UpsertByNumericID(ctx, &model.Product{ID: float64(1), Available: 8, Unit: "gm"}, at)
	if err != nil || created {
		t.Fatalf("update: created=%v err=%v", created, err)
	}
	p, _ := s.FindByKey(ctx, "p1")
	if p.Available != 8 || p.Unit != "gm" || p.Name != "Rice" || !p.InStock {
		t.Fatalf("unexpected product: %+v", p)
	}

	np := &model.Product{ID: int64(2), Name: "Salt", Available: 0}
	created, err = s.UpsertByNumericID(ctx, np, at)
	if err != nil || !created || np.Key == "" {
		t.Fatalf("insert: created=%v err=%v key=%q", created, err, np.Key)
	}

	if _, err := s.UpsertByNumericID(ctx, &model.Product{ID: "x"}, at); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestMemoryDocumentsRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	key, err := s.InsertDocument(ctx, "users", map[string]interface{}{"name": "asha"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	docs, err := s.ListDocuments(ctx, "users", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0]["id"] != key || docs[0]["name"] != "asha" {
		t.Fatalf("unexpected docs: %+v", docs)
	}

	if _, err := s.InsertDocument(ctx, "products", map[string]interface{}{"id": 9, "name": "Ghee", "available": 2}); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	p, err := s.FindByNumericID(ctx, 9)
	if err != nil || p.Name != "Ghee" || !p.InStock {
		t.Fatalf("typed view of inserted product: %+v %v", p, err)
	}
}

func TestMemoryCountByProduct(t *testing.T) {
	s := NewMemoryStore()
	s.SeedReviews(
		&model.Review{ProductID: float64(3)},
		&model.Review{ProductID: 3},
		&model.Review{ProductID: "abc"},
		&model.Review{},
	)
	counts, err := s.CountByProduct(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["3"] != 2 || counts["abc"] != 1 || len(counts) != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestMemoryLedgerNewestFirst(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	_ = l.Record(ctx, &model.StockMovement{ProductKey: "a", Delta: -1})
	_ = l.Record(ctx, &model.StockMovement{ProductKey: "b", Delta: -2})
	_ = l.Record(ctx, &model.StockMovement{ProductKey: "a", Delta: 1})

	all, _ := l.List(ctx, "", 0)
	if len(all) != 3 || all[0].Delta != 1 || all[0].ID != 3 {
		t.Fatalf("unexpected movements: %+v", all)
	}
	onlyA, _ := l.List(ctx, "a", 1)
	if len(onlyA) != 1 || onlyA[0].ProductKey != "a" || onlyA[0].Delta != 1 {
		t.Fatalf("unexpected filtered movements: %+v", onlyA)
	}
}

func TestKeyFilter(t *testing.T) {
	if f := keyFilter("abc"); f["_id"] != "abc" {
		t.Fatalf("unexpected filter: %v", f)
	}
	inner, ok := keyFilter("507f1f77bcf86cd799439011")["_id"].(bson.M)
	if !ok {
		t.Fatalf("expected $in filter for hex key")
	}
	if in, ok := inner["$in"].(bson.A); !ok || len(in) != 2 {
		t.Fatalf("unexpected $in: %v", inner)
	}
}
