package tariff

import "github.com/shopspring/decimal"

// Tariff is a pricing policy converting a payment into electricity units.
// Tariffs are read-only within this service and assumed pre-populated.
type Tariff struct {
	ID          int64
	Rate        decimal.Decimal // currency per unit
	FixedCharge decimal.Decimal // currency, deducted before unit conversion
	Description string
	Active      bool
}
