package meter

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/faults"
)

// MemoryRepository is a concurrency-safe in-memory meter store for tests and
// dev mode. The in-memory ledger reaches its cached balances through
// AdjustBalance while holding its per-meter lock.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]Meter
	byNumber map[string]int64
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[int64]Meter),
		byNumber: make(map[string]int64),
	}
}

// Create assigns an identifier and stores the meter. Duplicate meter numbers
// fail with an integrity fault.
func (r *MemoryRepository) Create(_ context.Context, m Meter) (Meter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byNumber[m.MeterNumber]; exists {
		return Meter{}, faults.Integrityf("meter number %q already exists", m.MeterNumber)
	}
	r.nextID++
	m.ID = r.nextID
	r.byID[m.ID] = m
	r.byNumber[m.MeterNumber] = m.ID
	return m, nil
}

// Get fetches a meter by identifier.
func (r *MemoryRepository) Get(_ context.Context, id int64) (Meter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return Meter{}, faults.NotFoundf("meter %d", id)
	}
	return m, nil
}

// ListByCustomer returns all meters owned by a customer in id order.
func (r *MemoryRepository) ListByCustomer(_ context.Context, customerID int64) ([]Meter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var meters []Meter
	for id := int64(1); id <= r.nextID; id++ {
		if m, ok := r.byID[id]; ok && m.CustomerID == customerID {
			meters = append(meters, m)
		}
	}
	return meters, nil
}

// AdjustBalance applies a signed delta to the cached balance and returns the
// new value. The caller serializes per-meter mutations; this only guards map
// access.
func (r *MemoryRepository) AdjustBalance(id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return decimal.Zero, faults.NotFoundf("meter %d", id)
	}
	m.CurrentBalance = m.CurrentBalance.Add(delta)
	r.byID[id] = m
	return m.CurrentBalance, nil
}
