package usecase

import (
	"context"
	"sync"

	"github.com/calorio/recommender/internal/domain"
)

// catalogSnapshot bundles a food catalog with the vectorizer fitted over it
// and the resulting vector matrix. All three are created together and never
// mutated, so vectors from different fits can never be mixed.
type catalogSnapshot struct {
	foods      []domain.FoodItem
	vectorizer *TextVectorizer
	matrix     []SparseVector
}

// catalogCache owns the lazily built catalog snapshot. The mutex serializes
// concurrent builders so the snapshot is built at most once and no request
// observes a partially built one; reads reuse the same instance until
// Invalidate is called.
type catalogCache struct {
	mu       sync.Mutex
	snapshot *catalogSnapshot
}

// get returns the current snapshot, building it from the gateway on first
// use. The gateway call runs under the lock: a second builder waits instead
// of racing.
func (c *catalogCache) get(ctx context.Context, gw domain.DataGateway, config VectorizerConfig) (*catalogSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil {
		return c.snapshot, nil
	}

	foods, err := gw.ListFoods(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(foods))
	for i, food := range foods {
		names[i] = food.Name
	}

	vectorizer := NewTextVectorizer(config)
	matrix, err := vectorizer.FitTransform(names)
	if err != nil {
		return nil, err
	}

	c.snapshot = &catalogSnapshot{
		foods:      foods,
		vectorizer: vectorizer,
		matrix:     matrix,
	}
	return c.snapshot, nil
}

// invalidate drops the snapshot so the next request rebuilds it. Callers
// that mutate the food catalog are expected to trigger this; otherwise the
// snapshot lives until process restart.
func (c *catalogCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}
