package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/faults"
	"github.com/voltvend/voltvend/internal/meter"
	"github.com/voltvend/voltvend/internal/tariff"
	"github.com/voltvend/voltvend/internal/token"
)

type inMemoryLedger struct {
	tariffs  tariff.Repository
	meters   *meter.MemoryRepository
	tokens   *token.Generator
	pricing  Pricing
	attempts int

	mu         sync.Mutex
	meterLocks map[int64]*sync.Mutex
	seq        int64
	tokenSet   map[string]struct{}
	purchases  map[int64][]Purchase
	events     map[int64][]ConsumptionEvent
	nextRowID  int64

	// beforePersist injects a failure between token generation and the
	// commit of the purchase. Set only from testing helpers.
	beforePersist func() error
}

// NewInMemory creates a concurrency-safe in-memory ledger for tests and dev
// mode. Mutations on the same meter serialize on a dedicated mutex; meters
// never contend with each other.
func NewInMemory(tariffs tariff.Repository, meters *meter.MemoryRepository, tokens *token.Generator, pricing Pricing, attempts int) Ledger {
	if attempts < 1 {
		attempts = 1
	}
	return &inMemoryLedger{
		tariffs:    tariffs,
		meters:     meters,
		tokens:     tokens,
		pricing:    pricing,
		attempts:   attempts,
		meterLocks: make(map[int64]*sync.Mutex),
		tokenSet:   make(map[string]struct{}),
		purchases:  make(map[int64][]Purchase),
		events:     make(map[int64][]ConsumptionEvent),
	}
}

func (l *inMemoryLedger) lockMeter(id int64) *sync.Mutex {
	l.mu.Lock()
	lock, ok := l.meterLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.meterLocks[id] = lock
	}
	l.mu.Unlock()
	lock.Lock()
	return lock
}

func (l *inMemoryLedger) nextSeq() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	return l.seq
}

func (l *inMemoryLedger) Purchase(ctx context.Context, input PurchaseInput) (Receipt, error) {
	if !input.AmountPaid.IsPositive() {
		return Receipt{}, faults.Validationf("amount must be positive")
	}

	lock := l.lockMeter(input.MeterID)
	defer lock.Unlock()

	if _, err := l.meters.Get(ctx, input.MeterID); err != nil {
		return Receipt{}, err
	}

	trf, err := l.tariffs.Get(ctx, input.TariffID)
	if err != nil {
		return Receipt{}, err
	}

	units, netAmount, err := l.pricing.UnitsFor(input.AmountPaid, trf.Rate, trf.FixedCharge)
	if err != nil {
		return Receipt{}, err
	}

	var rec Purchase
	for attempt := 1; ; attempt++ {
		seq := l.nextSeq()
		minted, err := l.tokens.Generate(input.MeterID, seq)
		if err != nil {
			return Receipt{}, err
		}

		l.mu.Lock()
		_, taken := l.tokenSet[minted]
		l.mu.Unlock()
		if taken {
			if attempt >= l.attempts {
				return Receipt{}, faults.Conflictf("token collision persisted after %d attempts", attempt)
			}
			continue
		}

		rec = Purchase{
			MeterID:        input.MeterID,
			TariffID:       input.TariffID,
			AmountPaid:     input.AmountPaid.Round(Scale),
			UnitsPurchased: units,
			NetAmountUsed:  netAmount,
			Token:          minted,
			Timestamp:      time.Now().UTC(),
			Sequence:       seq,
		}
		break
	}

	if l.beforePersist != nil {
		// Nothing has been written yet, so failing here leaves no purchase
		// row and no balance change, mirroring a rolled-back transaction.
		if err := l.beforePersist(); err != nil {
			return Receipt{}, faults.Store(err)
		}
	}

	l.mu.Lock()
	l.nextRowID++
	rec.ID = l.nextRowID
	l.tokenSet[rec.Token] = struct{}{}
	l.purchases[input.MeterID] = append(l.purchases[input.MeterID], rec)
	l.mu.Unlock()

	if _, err := l.meters.AdjustBalance(input.MeterID, units); err != nil {
		return Receipt{}, err
	}

	return Receipt{
		MeterID:        input.MeterID,
		Token:          rec.Token,
		UnitsPurchased: units,
		NetAmountUsed:  netAmount,
		Status:         StatusSuccess,
	}, nil
}

func (l *inMemoryLedger) RecordConsumption(ctx context.Context, meterID int64, ts time.Time, units decimal.Decimal) (decimal.Decimal, error) {
	if units.IsNegative() {
		return decimal.Zero, faults.Validationf("units_used must be non-negative")
	}

	lock := l.lockMeter(meterID)
	defer lock.Unlock()

	if _, err := l.meters.Get(ctx, meterID); err != nil {
		return decimal.Zero, err
	}

	seq := l.nextSeq()
	event := ConsumptionEvent{
		MeterID:   meterID,
		Timestamp: ts.UTC(),
		UnitsUsed: units.Round(Scale),
		Sequence:  seq,
	}

	l.mu.Lock()
	l.nextRowID++
	event.ID = l.nextRowID
	l.events[meterID] = append(l.events[meterID], event)
	l.mu.Unlock()

	return l.meters.AdjustBalance(meterID, units.Neg())
}

func (l *inMemoryLedger) Entries(_ context.Context, meterID int64) ([]Purchase, []ConsumptionEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	purchases := append([]Purchase(nil), l.purchases[meterID]...)
	events := append([]ConsumptionEvent(nil), l.events[meterID]...)
	return purchases, events, nil
}

func (l *inMemoryLedger) RecentPurchases(ctx context.Context, customerID int64, limit int) ([]PurchaseRecord, error) {
	meters, err := l.meters.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var records []PurchaseRecord
	l.mu.Lock()
	for _, m := range meters {
		for _, p := range l.purchases[m.ID] {
			rec := PurchaseRecord{
				MeterID:        p.MeterID,
				MeterNumber:    m.MeterNumber,
				Token:          p.Token,
				AmountPaid:     p.AmountPaid,
				UnitsPurchased: p.UnitsPurchased,
				PurchaseDate:   p.Timestamp,
				Sequence:       p.Sequence,
			}
			if trf, err := l.tariffs.Get(ctx, p.TariffID); err == nil {
				rec.TariffDescription = trf.Description
			}
			records = append(records, rec)
		}
	}
	l.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].PurchaseDate.Equal(records[j].PurchaseDate) {
			return records[i].PurchaseDate.After(records[j].PurchaseDate)
		}
		return records[i].Sequence > records[j].Sequence
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
