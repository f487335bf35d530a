// Package ledger holds the append-only purchase/consumption ledger and the
// engine that turns a payment into units and a token. Purchases credit a
// meter, consumption events debit it, and the cached meter balance always
// equals the sum of credits minus debits once in-flight operations settle.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusSuccess is the receipt status for a committed purchase.
const StatusSuccess = "success"

// PurchaseInput carries the caller-supplied fields of a token purchase.
type PurchaseInput struct {
	MeterID    int64
	TariffID   int64
	AmountPaid decimal.Decimal
}

// Receipt is the outcome of a committed purchase.
type Receipt struct {
	MeterID        int64
	Token          string
	UnitsPurchased decimal.Decimal
	NetAmountUsed  decimal.Decimal
	Status         string
}

// Purchase is an immutable credit entry. Once written it is never updated or
// deleted.
type Purchase struct {
	ID             int64
	MeterID        int64
	TariffID       int64
	AmountPaid     decimal.Decimal
	UnitsPurchased decimal.Decimal
	NetAmountUsed  decimal.Decimal
	Token          string
	Timestamp      time.Time
	Sequence       int64
}

// ConsumptionEvent is an immutable debit entry produced by metering telemetry.
type ConsumptionEvent struct {
	ID        int64
	MeterID   int64
	Timestamp time.Time
	UnitsUsed decimal.Decimal
	Sequence  int64
}

// PurchaseRecord is a purchase joined with meter and tariff metadata for
// reporting.
type PurchaseRecord struct {
	MeterID           int64
	MeterNumber       string
	Token             string
	AmountPaid        decimal.Decimal
	UnitsPurchased    decimal.Decimal
	TariffDescription string
	PurchaseDate      time.Time
	Sequence          int64
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
//
// Purchase executes the whole vend as one atomic unit: validate, lock the
// meter, resolve the tariff, compute units, mint a token, append the purchase
// and bump the cached balance. On any failure nothing is persisted. It is not
// idempotent; replay protection sits in front of it (the HTTP idempotency
// layer).
//
// RecordConsumption appends a debit and decrements the cached balance under
// the same per-meter lock as Purchase. The balance may go non-positive; the
// engine never clamps it or cuts supply, that policy belongs to an external
// supply controller. The new cached balance is returned.
type Ledger interface {
	Purchase(ctx context.Context, input PurchaseInput) (Receipt, error)
	RecordConsumption(ctx context.Context, meterID int64, ts time.Time, units decimal.Decimal) (decimal.Decimal, error)
	Entries(ctx context.Context, meterID int64) ([]Purchase, []ConsumptionEvent, error)
	RecentPurchases(ctx context.Context, customerID int64, limit int) ([]PurchaseRecord, error)
}
