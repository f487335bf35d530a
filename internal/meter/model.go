package meter

import (
	"time"

	"github.com/shopspring/decimal"
)

// Meter is a physical prepaid meter tied to one customer. The owning customer
// is immutable after creation. CurrentBalance is the cached unit balance
// mutated only by the ledger engine; it mirrors the ledger sum at rest.
type Meter struct {
	ID                  int64
	CustomerID          int64
	MeterNumber         string
	MeterType           string
	InstallationAddress string
	CurrentBalance      decimal.Decimal
	CreatedAt           time.Time
}
