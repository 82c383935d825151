package stock

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
)

// ProductFinder is the lookup surface the resolver needs from the store
type ProductFinder interface {
	FindByNumericID(ctx context.Context, id int64) (*model.Product, error)
	FindByStringID(ctx context.Context, id string) (*model.Product, error)
	FindByKey(ctx context.Context, key string) (*model.Product, error)
}

// Strategy is one way of looking a product up. Applies reports whether the
// strategy can be tried for the identifier at all.
type Strategy interface {
	Name() string
	Applies(id Identifier) bool
	Find(ctx context.Context, finder ProductFinder, id Identifier) (*model.Product, error)
}

type numericIDStrategy struct{}

func (numericIDStrategy) Name() string { return "numeric_id" }

func (numericIDStrategy) Applies(id Identifier) bool {
	_, ok := id.NumericID()
	return ok
}

func (numericIDStrategy) Find(ctx context.Context, finder ProductFinder, id Identifier) (*model.Product, error) {
	n, _ := id.NumericID()
	return finder.FindByNumericID(ctx, n)
}

type stringIDStrategy struct{}

func (stringIDStrategy) Name() string { return "string_id" }

func (stringIDStrategy) Applies(Identifier) bool { return true }

func (stringIDStrategy) Find(ctx context.Context, finder ProductFinder, id Identifier) (*model.Product, error) {
	return finder.FindByStringID(ctx, id.StringID())
}

type documentKeyStrategy struct{}

func (documentKeyStrategy) Name() string { return "document_key" }

func (documentKeyStrategy) Applies(id Identifier) bool {
	_, ok := id.DocumentKey()
	return ok
}

func (documentKeyStrategy) Find(ctx context.Context, finder ProductFinder, id Identifier) (*model.Product, error) {
	key, _ := id.DocumentKey()
	return finder.FindByKey(ctx, key)
}

// DefaultStrategies is the lookup order used by the storefront: numeric id
// field, then string id field, then store document key
func DefaultStrategies() []Strategy {
	return []Strategy{numericIDStrategy{}, stringIDStrategy{}, documentKeyStrategy{}}
}

// Resolver finds the product an identifier refers to
type Resolver struct {
	finder     ProductFinder
	strategies []Strategy
}

// NewResolver uses DefaultStrategies when none are given
func NewResolver(finder ProductFinder, strategies ...Strategy) *Resolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Resolver{finder: finder, strategies: strategies}
}

// Resolve returns the first product matched by the strategies in order.
// repository.ErrNotFound is returned only when every applicable strategy missed.
func (r *Resolver) Resolve(ctx context.Context, id Identifier) (*model.Product, error) {
	for _, s := range r.strategies {
		if !s.Applies(id) {
			continue
		}
		product, err := s.Find(ctx, r.finder, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("resolve product %q by %s: %w", id, s.Name(), err)
		}
	}
	return nil, repository.ErrNotFound
}
