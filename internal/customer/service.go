package customer

import (
	"context"
	"strings"
	"time"

	"github.com/voltvend/voltvend/internal/faults"
)

// Service manages customer registration and lookup.
type Service struct {
	repo Repository
}

// NewService creates a new customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures data required to register a customer.
type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
}

// Register creates a customer profile. Email must be unique.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Customer, error) {
	name := strings.TrimSpace(input.FullName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := strings.TrimSpace(input.Phone)

	if name == "" || email == "" || phone == "" {
		return Customer{}, faults.Validationf("full_name, email and phone are required")
	}
	if !strings.Contains(email, "@") {
		return Customer{}, faults.Validationf("email %q is malformed", email)
	}

	return s.repo.Create(ctx, Customer{
		FullName:  name,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	})
}

// Get retrieves a customer profile.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}
