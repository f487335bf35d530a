package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/config"
	"github.com/voltvend/voltvend/internal/faults"
)

// Scale is the fixed decimal precision of every monetary and unit quantity.
const Scale = 4

// Pricing converts a payment into units under a configurable policy. The
// exact formula is policy, not a constant: the default divides the amount net
// of the fixed charge by the unit rate.
type Pricing struct {
	Policy   string
	Rounding string
}

// NewPricing derives the pricing policy from configuration.
func NewPricing(cfg config.Config) Pricing {
	return Pricing{Policy: cfg.PricingPolicy, Rounding: cfg.RoundingMode}
}

// UnitsFor computes the purchased units and the net amount consumed by the
// purchase. The amount must exceed the fixed charge; a payment that would
// yield negative units is rejected rather than persisted.
func (p Pricing) UnitsFor(amountPaid, rate, fixedCharge decimal.Decimal) (units, netAmount decimal.Decimal, err error) {
	if !amountPaid.IsPositive() {
		return decimal.Zero, decimal.Zero, faults.Validationf("amount must be positive")
	}
	if !rate.IsPositive() {
		return decimal.Zero, decimal.Zero, faults.Validationf("tariff rate must be positive")
	}

	spendable := amountPaid.Sub(fixedCharge)
	if spendable.IsNegative() {
		return decimal.Zero, decimal.Zero, faults.Validationf("amount below fixed charge")
	}

	base := spendable
	if p.Policy == config.PricingGross {
		base = amountPaid
	}

	raw := base.Div(rate)
	switch p.Rounding {
	case config.RoundingDown:
		units = raw.RoundDown(Scale)
		// The truncation remainder is refunded, so only the charge plus the
		// exact cost of the truncated units counts as used.
		cost := units.Mul(rate)
		if p.Policy == config.PricingGross {
			netAmount = cost.Round(Scale)
		} else {
			netAmount = fixedCharge.Add(cost).Round(Scale)
		}
	default:
		units = raw.Round(Scale)
		netAmount = amountPaid.Round(Scale)
	}

	if units.IsNegative() {
		return decimal.Zero, decimal.Zero, faults.Validationf("amount below fixed charge")
	}
	return units, netAmount, nil
}
