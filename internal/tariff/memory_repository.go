package tariff

import (
	"context"
	"sync"

	"github.com/voltvend/voltvend/internal/faults"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[int64]Tariff
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository(tariffs ...Tariff) Repository {
	storage := make(map[int64]Tariff, len(tariffs))
	for _, t := range tariffs {
		storage[t.ID] = t
	}
	return &memoryRepository{storage: storage}
}

func (r *memoryRepository) Get(_ context.Context, id int64) (Tariff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.storage[id]
	if !ok || !t.Active {
		return Tariff{}, faults.NotFoundf("tariff %d", id)
	}
	return t, nil
}
