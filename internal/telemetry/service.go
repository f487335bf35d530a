package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/faults"
	"github.com/voltvend/voltvend/internal/ledger"
	"github.com/voltvend/voltvend/internal/meter"
	"github.com/voltvend/voltvend/internal/notification"
)

// Service records consumption events reported by metering telemetry.
type Service struct {
	ledger   ledger.Ledger
	meters   *meter.Service
	notifier notification.Notifier
}

// NewService constructs a telemetry service.
func NewService(l ledger.Ledger, meters *meter.Service, notifier notification.Notifier) *Service {
	return &Service{ledger: l, meters: meters, notifier: notifier}
}

// Record appends a consumption debit for the meter. When the resulting cached
// balance is non-positive a depletion notification is emitted; the event is
// still recorded, since cutting supply is not this service's decision.
func (s *Service) Record(ctx context.Context, meterID int64, ts time.Time, units decimal.Decimal) error {
	if meterID <= 0 {
		return faults.Validationf("meter_id is required")
	}
	if units.IsNegative() {
		return faults.Validationf("units_used must be non-negative")
	}
	if ts.IsZero() {
		return faults.Validationf("timestamp is required")
	}

	m, err := s.meters.Get(ctx, meterID)
	if err != nil {
		return err
	}

	newBalance, err := s.ledger.RecordConsumption(ctx, meterID, ts, units)
	if err != nil {
		return err
	}

	if s.notifier != nil && newBalance.Sign() <= 0 {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindBalanceDepleted,
			Destination: fmt.Sprintf("customer:%d", m.CustomerID),
			Body:        fmt.Sprintf("Meter %s balance is %s units", m.MeterNumber, newBalance.StringFixed(4)),
		})
	}

	return nil
}
