package dashboard

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/customer"
	"github.com/voltvend/voltvend/internal/ledger"
	"github.com/voltvend/voltvend/internal/meter"
)

// RecentLimit caps the dashboard's transaction history.
const RecentLimit = 10

// Transaction is one history row: a purchase plus the meter's running balance
// as of and including that purchase, not the present-moment balance.
type Transaction struct {
	ledger.PurchaseRecord
	LiveMeterBalance decimal.Decimal
}

// Overview is the customer dashboard payload.
type Overview struct {
	Meters             []meter.Meter
	RecentTransactions []Transaction
}

// Service assembles reporting views from the ledger. It reads ledger and
// consumption data but never mutates them.
type Service struct {
	customers *customer.Service
	meters    *meter.Service
	ledger    ledger.Ledger
}

// NewService constructs a dashboard service.
func NewService(customers *customer.Service, meters *meter.Service, l ledger.Ledger) *Service {
	return &Service{customers: customers, meters: meters, ledger: l}
}

// GetOverview returns the customer's meters and their 10 most recent
// purchases, newest first, each annotated with the running balance at the
// point of that purchase.
func (s *Service) GetOverview(ctx context.Context, customerID int64) (Overview, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return Overview{}, err
	}

	meters, err := s.meters.ListByCustomer(ctx, customerID)
	if err != nil {
		return Overview{}, err
	}

	records, err := s.ledger.RecentPurchases(ctx, customerID, RecentLimit)
	if err != nil {
		return Overview{}, err
	}

	// One projection per meter covers every record for that meter.
	balances := make(map[int64]map[int64]decimal.Decimal)
	for _, rec := range records {
		if _, done := balances[rec.MeterID]; done {
			continue
		}
		purchases, events, err := s.ledger.Entries(ctx, rec.MeterID)
		if err != nil {
			return Overview{}, err
		}
		bySeq := make(map[int64]decimal.Decimal)
		for _, point := range ledger.RunningBalance(purchases, events) {
			bySeq[point.Sequence] = point.RunningBalance
		}
		balances[rec.MeterID] = bySeq
	}

	transactions := make([]Transaction, 0, len(records))
	for _, rec := range records {
		transactions = append(transactions, Transaction{
			PurchaseRecord:   rec,
			LiveMeterBalance: balances[rec.MeterID][rec.Sequence],
		})
	}

	return Overview{Meters: meters, RecentTransactions: transactions}, nil
}

// ConsumptionSeries returns the meter's daily usage totals, ascending by
// date, capped at the most recent 30 distinct dates.
func (s *Service) ConsumptionSeries(ctx context.Context, meterID int64) ([]ledger.DailyUsage, error) {
	if _, err := s.meters.Get(ctx, meterID); err != nil {
		return nil, err
	}

	_, events, err := s.ledger.Entries(ctx, meterID)
	if err != nil {
		return nil, err
	}
	return ledger.DailyTotals(events, ledger.DailyLimit), nil
}
