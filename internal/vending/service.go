package vending

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/faults"
	"github.com/voltvend/voltvend/internal/ledger"
	"github.com/voltvend/voltvend/internal/meter"
	"github.com/voltvend/voltvend/internal/notification"
)

// Service orchestrates token purchases over the ledger engine.
//
// BuyToken is deliberately not idempotent: two identical calls mint two
// tokens and credit the meter twice, matching the upstream system it
// replaces. Replay protection lives in the HTTP idempotency middleware in
// front of this service.
type Service struct {
	ledger   ledger.Ledger
	meters   *meter.Service
	notifier notification.Notifier
}

// NewService constructs a vending service.
func NewService(l ledger.Ledger, meters *meter.Service, notifier notification.Notifier) *Service {
	return &Service{ledger: l, meters: meters, notifier: notifier}
}

// BuyInput captures the data needed to purchase a token.
type BuyInput struct {
	MeterID  int64
	TariffID int64
	Amount   decimal.Decimal
}

// BuyToken validates the request and runs the purchase transaction. On
// success the customer is notified with the minted token.
func (s *Service) BuyToken(ctx context.Context, input BuyInput) (ledger.Receipt, error) {
	if input.MeterID <= 0 {
		return ledger.Receipt{}, faults.Validationf("meter_id is required")
	}
	if input.TariffID <= 0 {
		return ledger.Receipt{}, faults.Validationf("tariff_id is required")
	}

	m, err := s.meters.Get(ctx, input.MeterID)
	if err != nil {
		return ledger.Receipt{}, err
	}

	receipt, err := s.ledger.Purchase(ctx, ledger.PurchaseInput{
		MeterID:    input.MeterID,
		TariffID:   input.TariffID,
		AmountPaid: input.Amount,
	})
	if err != nil {
		return ledger.Receipt{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTokenIssued,
			Destination: fmt.Sprintf("customer:%d", m.CustomerID),
			Body:        fmt.Sprintf("Token %s issued for meter %s (%s units)", receipt.Token, m.MeterNumber, receipt.UnitsPurchased.StringFixed(4)),
		})
	}

	return receipt, nil
}
