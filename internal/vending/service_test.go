package vending

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/config"
	"github.com/voltvend/voltvend/internal/faults"
	"github.com/voltvend/voltvend/internal/ledger"
	"github.com/voltvend/voltvend/internal/meter"
	"github.com/voltvend/voltvend/internal/notification"
	"github.com/voltvend/voltvend/internal/tariff"
	"github.com/voltvend/voltvend/internal/token"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, message notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingNotifier, meter.Meter) {
	t.Helper()
	ctx := context.Background()

	meters := meter.NewMemoryRepository()
	meterSvc := meter.NewService(meters)
	m, err := meterSvc.Register(ctx, meter.RegisterInput{
		CustomerID: 1, MeterNumber: "MTR-0042", MeterType: "residential",
	})
	if err != nil {
		t.Fatalf("register meter: %v", err)
	}

	tariffs := tariff.NewMemoryRepository(tariff.Tariff{
		ID: 1, Rate: decimal.NewFromInt(50), FixedCharge: decimal.NewFromInt(100),
		Description: "Residential standard", Active: true,
	})
	pricing := ledger.Pricing{Policy: config.PricingNet, Rounding: config.RoundingHalfUp}
	backend := ledger.NewInMemory(tariffs, meters, token.NewGenerator(), pricing, 3)

	notifier := &recordingNotifier{}
	return NewService(backend, meterSvc, notifier), notifier, m
}

func TestBuyToken(t *testing.T) {
	svc, notifier, m := newTestService(t)
	ctx := context.Background()

	receipt, err := svc.BuyToken(ctx, BuyInput{MeterID: m.ID, TariffID: 1, Amount: decimal.NewFromInt(600)})
	if err != nil {
		t.Fatalf("buy token: %v", err)
	}
	if receipt.Status != ledger.StatusSuccess {
		t.Fatalf("unexpected status %q", receipt.Status)
	}
	if receipt.UnitsPurchased.StringFixed(4) != "10.0000" {
		t.Fatalf("expected 10.0000 units, got %s", receipt.UnitsPurchased.StringFixed(4))
	}
	if receipt.Token == "" {
		t.Fatal("receipt missing token")
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.messages))
	}
	if notifier.messages[0].Kind != notification.KindTokenIssued {
		t.Fatalf("unexpected notification kind %q", notifier.messages[0].Kind)
	}
}

func TestBuyTokenNotIdempotent(t *testing.T) {
	svc, _, m := newTestService(t)
	ctx := context.Background()

	input := BuyInput{MeterID: m.ID, TariffID: 1, Amount: decimal.NewFromInt(600)}
	first, err := svc.BuyToken(ctx, input)
	if err != nil {
		t.Fatalf("first buy: %v", err)
	}
	second, err := svc.BuyToken(ctx, input)
	if err != nil {
		t.Fatalf("second buy: %v", err)
	}
	if first.Token == second.Token {
		t.Fatalf("identical inputs reused token %s", first.Token)
	}
}

func TestBuyTokenValidation(t *testing.T) {
	svc, notifier, m := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input BuyInput
		want  error
	}{
		{"missing meter", BuyInput{TariffID: 1, Amount: decimal.NewFromInt(600)}, faults.ErrValidation},
		{"missing tariff", BuyInput{MeterID: m.ID, Amount: decimal.NewFromInt(600)}, faults.ErrValidation},
		{"zero amount", BuyInput{MeterID: m.ID, TariffID: 1}, faults.ErrValidation},
		{"below fixed charge", BuyInput{MeterID: m.ID, TariffID: 1, Amount: decimal.NewFromInt(50)}, faults.ErrValidation},
		{"unknown meter", BuyInput{MeterID: 999, TariffID: 1, Amount: decimal.NewFromInt(600)}, faults.ErrNotFound},
		{"unknown tariff", BuyInput{MeterID: m.ID, TariffID: 999, Amount: decimal.NewFromInt(600)}, faults.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.BuyToken(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if len(notifier.messages) != 0 {
		t.Fatalf("failed purchases emitted %d notifications", len(notifier.messages))
	}
}
