package repository

import (
	"context"
	"fmt"
	"sync"

	"storefront-service/internal/model"

	"gorm.io/gorm"
)

const defaultLedgerLimit = 100

// GormLedger keeps stock movements in the SQL audit database
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Ping(ctx context.Context) error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (l *GormLedger) Record(ctx context.Context, m *model.StockMovement) error {
	if err := l.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

func (l *GormLedger) List(ctx context.Context, productKey string, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = defaultLedgerLimit
	}

	query := l.db.WithContext(ctx).Model(&model.StockMovement{})
	if productKey != "" {
		query = query.Where("product_key = ?", productKey)
	}

	var movements []model.StockMovement
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}

// MemoryLedger keeps movements in process, newest last
type MemoryLedger struct {
	mu        sync.Mutex
	nextID    uint
	movements []model.StockMovement
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Record(_ context.Context, m *model.StockMovement) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	m.ID = l.nextID
	l.movements = append(l.movements, *m)
	return nil
}

// List returns the newest movements first
func (l *MemoryLedger) List(_ context.Context, productKey string, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = defaultLedgerLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := []model.StockMovement{}
	for i := len(l.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if productKey != "" && l.movements[i].ProductKey != productKey {
			continue
		}
		out = append(out, l.movements[i])
	}
	return out, nil
}
