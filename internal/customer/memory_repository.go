package customer

import (
	"context"
	"sync"

	"github.com/voltvend/voltvend/internal/faults"
)

type memoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]Customer
	byEmail map[string]int64
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[int64]Customer),
		byEmail: make(map[string]int64),
	}
}

func (r *memoryRepository) Create(_ context.Context, c Customer) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[c.Email]; exists {
		return Customer{}, faults.Integrityf("email %q already registered", c.Email)
	}
	r.nextID++
	c.ID = r.nextID
	r.byID[c.ID] = c
	r.byEmail[c.Email] = c.ID
	return c, nil
}

func (r *memoryRepository) Get(_ context.Context, id int64) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return Customer{}, faults.NotFoundf("customer %d", id)
	}
	return c, nil
}
