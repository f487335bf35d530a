package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/config"
	"github.com/voltvend/voltvend/internal/faults"
	"github.com/voltvend/voltvend/internal/meter"
	"github.com/voltvend/voltvend/internal/tariff"
	"github.com/voltvend/voltvend/internal/token"
)

func newTestLedger(t *testing.T) (Ledger, *meter.MemoryRepository, meter.Meter) {
	t.Helper()

	tariffs := tariff.NewMemoryRepository(tariff.Tariff{
		ID:          1,
		Rate:        decimal.NewFromInt(50),
		FixedCharge: decimal.NewFromInt(100),
		Description: "Residential standard",
		Active:      true,
	})
	meters := meter.NewMemoryRepository()
	m, err := meters.Create(context.Background(), meter.Meter{
		CustomerID:     1,
		MeterNumber:    "MTR-0001",
		MeterType:      "residential",
		CurrentBalance: decimal.Zero,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create meter: %v", err)
	}

	pricing := Pricing{Policy: config.PricingNet, Rounding: config.RoundingHalfUp}
	l := NewInMemory(tariffs, meters, token.NewGenerator(), pricing, 3)
	return l, meters, m
}

func TestPurchaseIssuesTokenAndCreditsBalance(t *testing.T) {
	l, meters, m := newTestLedger(t)
	ctx := context.Background()

	receipt, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 1, AmountPaid: decimal.NewFromInt(600)})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if receipt.Status != StatusSuccess {
		t.Fatalf("unexpected status %q", receipt.Status)
	}
	if receipt.UnitsPurchased.StringFixed(4) != "10.0000" {
		t.Fatalf("expected 10.0000 units, got %s", receipt.UnitsPurchased.StringFixed(4))
	}
	if receipt.NetAmountUsed.StringFixed(4) != "600.0000" {
		t.Fatalf("expected net 600.0000, got %s", receipt.NetAmountUsed.StringFixed(4))
	}
	if !token.Valid(receipt.Token) {
		t.Fatalf("receipt token %q is not valid", receipt.Token)
	}

	stored, err := meters.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get meter: %v", err)
	}
	if stored.CurrentBalance.StringFixed(4) != "10.0000" {
		t.Fatalf("expected balance 10.0000, got %s", stored.CurrentBalance.StringFixed(4))
	}
}

func TestPurchaseBelowFixedCharge(t *testing.T) {
	l, meters, m := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 1, AmountPaid: decimal.NewFromInt(50)})
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	purchases, _, err := l.Entries(ctx, m.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(purchases) != 0 {
		t.Fatalf("rejected purchase left %d rows", len(purchases))
	}

	stored, _ := meters.Get(ctx, m.ID)
	if !stored.CurrentBalance.IsZero() {
		t.Fatalf("rejected purchase changed balance to %s", stored.CurrentBalance)
	}
}

func TestPurchaseUnknownMeterAndTariff(t *testing.T) {
	l, _, m := newTestLedger(t)
	ctx := context.Background()

	if _, err := l.Purchase(ctx, PurchaseInput{MeterID: 999, TariffID: 1, AmountPaid: decimal.NewFromInt(600)}); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found for meter, got %v", err)
	}
	if _, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 999, AmountPaid: decimal.NewFromInt(600)}); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found for tariff, got %v", err)
	}
}

func TestConcurrentPurchasesNoLostUpdate(t *testing.T) {
	l, meters, m := newTestLedger(t)
	ctx := context.Background()

	const workers = 25
	amount := decimal.NewFromInt(600) // 10 units each

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 1, AmountPaid: amount}); err != nil {
				t.Errorf("purchase: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := meters.Get(ctx, m.ID)
	want := decimal.NewFromInt(10 * workers)
	if !stored.CurrentBalance.Equal(want) {
		t.Fatalf("lost update: expected balance %s, got %s", want, stored.CurrentBalance)
	}

	purchases, _, err := l.Entries(ctx, m.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(purchases) != workers {
		t.Fatalf("expected %d purchase rows, got %d", workers, len(purchases))
	}

	tokens := make(map[string]struct{}, workers)
	for _, p := range purchases {
		if _, dup := tokens[p.Token]; dup {
			t.Fatalf("duplicate token %s", p.Token)
		}
		tokens[p.Token] = struct{}{}
	}
}

func TestPurchaseAtomicityOnInjectedFailure(t *testing.T) {
	l, meters, m := newTestLedger(t)
	ctx := context.Background()

	FailBeforePersist(l, func() error { return errors.New("store connection lost") })
	_, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 1, AmountPaid: decimal.NewFromInt(600)})
	if !errors.Is(err, faults.ErrTransientStore) {
		t.Fatalf("expected transient store error, got %v", err)
	}

	purchases, _, _ := l.Entries(ctx, m.ID)
	if len(purchases) != 0 {
		t.Fatalf("failed purchase persisted %d rows", len(purchases))
	}
	stored, _ := meters.Get(ctx, m.ID)
	if !stored.CurrentBalance.IsZero() {
		t.Fatalf("failed purchase changed balance to %s", stored.CurrentBalance)
	}

	// The failed attempt's token must not be considered consumed.
	FailBeforePersist(l, nil)
	if _, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 1, AmountPaid: decimal.NewFromInt(600)}); err != nil {
		t.Fatalf("purchase after recovery: %v", err)
	}
}

func TestRecordConsumptionDebitsBalance(t *testing.T) {
	l, meters, m := newTestLedger(t)
	ctx := context.Background()

	if _, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 1, AmountPaid: decimal.NewFromInt(600)}); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	newBal, err := l.RecordConsumption(ctx, m.ID, time.Now().UTC(), decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("record consumption: %v", err)
	}
	if newBal.StringFixed(4) != "6.0000" {
		t.Fatalf("expected balance 6.0000, got %s", newBal.StringFixed(4))
	}

	stored, _ := meters.Get(ctx, m.ID)
	if !stored.CurrentBalance.Equal(newBal) {
		t.Fatalf("cached balance %s disagrees with returned %s", stored.CurrentBalance, newBal)
	}
}

func TestRecordConsumptionAllowsNegativeBalance(t *testing.T) {
	l, _, m := newTestLedger(t)
	ctx := context.Background()

	newBal, err := l.RecordConsumption(ctx, m.ID, time.Now().UTC(), decimal.NewFromInt(7))
	if err != nil {
		t.Fatalf("record consumption: %v", err)
	}
	if newBal.StringFixed(4) != "-7.0000" {
		t.Fatalf("expected balance -7.0000, got %s", newBal.StringFixed(4))
	}
}

func TestRecordConsumptionValidation(t *testing.T) {
	l, _, m := newTestLedger(t)
	ctx := context.Background()

	if _, err := l.RecordConsumption(ctx, m.ID, time.Now().UTC(), decimal.NewFromInt(-1)); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := l.RecordConsumption(ctx, 999, time.Now().UTC(), decimal.NewFromInt(1)); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBalanceMatchesProjectionUnderInterleaving(t *testing.T) {
	l, meters, m := newTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 1, AmountPaid: decimal.NewFromInt(600)}); err != nil {
				t.Errorf("purchase: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := l.RecordConsumption(ctx, m.ID, time.Now().UTC(), decimal.NewFromInt(3)); err != nil {
				t.Errorf("consume: %v", err)
			}
		}()
	}
	wg.Wait()

	purchases, events, err := l.Entries(ctx, m.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}

	independent := decimal.Zero
	for _, p := range purchases {
		independent = independent.Add(p.UnitsPurchased)
	}
	for _, e := range events {
		independent = independent.Sub(e.UnitsUsed)
	}

	stored, _ := meters.Get(ctx, m.ID)
	if !stored.CurrentBalance.Equal(independent) {
		t.Fatalf("cached balance %s != ledger sum %s", stored.CurrentBalance, independent)
	}

	points := RunningBalance(purchases, events)
	if len(points) != len(purchases)+len(events) {
		t.Fatalf("projection dropped entries: %d points for %d entries", len(points), len(purchases)+len(events))
	}
	final := points[len(points)-1].RunningBalance
	if !final.Equal(independent) {
		t.Fatalf("projected final balance %s != ledger sum %s", final, independent)
	}
}

func TestRecentPurchasesOrderAndLimit(t *testing.T) {
	l, _, m := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := l.Purchase(ctx, PurchaseInput{MeterID: m.ID, TariffID: 1, AmountPaid: decimal.NewFromInt(600)}); err != nil {
			t.Fatalf("purchase %d: %v", i, err)
		}
	}

	records, err := l.RecentPurchases(ctx, m.CustomerID, 10)
	if err != nil {
		t.Fatalf("recent purchases: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		if cur.PurchaseDate.After(prev.PurchaseDate) {
			t.Fatalf("records not in descending date order at %d", i)
		}
		if cur.PurchaseDate.Equal(prev.PurchaseDate) && cur.Sequence > prev.Sequence {
			t.Fatalf("tie not broken by sequence at %d", i)
		}
	}
	if records[0].TariffDescription != "Residential standard" {
		t.Fatalf("missing tariff description: %+v", records[0])
	}
}
