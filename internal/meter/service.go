package meter

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltvend/voltvend/internal/faults"
)

// Service manages meter registration and lookup.
type Service struct {
	repo Repository
}

// NewService builds a meter service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures data required to register a meter.
type RegisterInput struct {
	CustomerID          int64
	MeterNumber         string
	MeterType           string
	InstallationAddress string
}

// Register creates a meter with a zero unit balance for an existing customer.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Meter, error) {
	number := strings.TrimSpace(input.MeterNumber)
	meterType := strings.TrimSpace(input.MeterType)

	if input.CustomerID <= 0 {
		return Meter{}, faults.Validationf("customer_id is required")
	}
	if number == "" {
		return Meter{}, faults.Validationf("meter_number is required")
	}
	if meterType == "" {
		return Meter{}, faults.Validationf("meter_type is required")
	}

	m := Meter{
		CustomerID:          input.CustomerID,
		MeterNumber:         number,
		MeterType:           meterType,
		InstallationAddress: strings.TrimSpace(input.InstallationAddress),
		CurrentBalance:      decimal.Zero,
		CreatedAt:           time.Now().UTC(),
	}
	return s.repo.Create(ctx, m)
}

// Get retrieves meter metadata.
func (s *Service) Get(ctx context.Context, id int64) (Meter, error) {
	return s.repo.Get(ctx, id)
}

// ListByCustomer returns the customer's meters.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]Meter, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}
