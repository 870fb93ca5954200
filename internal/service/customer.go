package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/repository"
)

type customerRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd repository.ProfileUpdate) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type customerAccountsRepo interface {
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error)
}

// CustomerService covers profile reads and the explicit profile-update
// operation. Identity fields never change through here.
type CustomerService struct {
	customers customerRepo
	accounts  customerAccountsRepo
}

func NewCustomerService(customers customerRepo, accounts customerAccountsRepo) *CustomerService {
	return &CustomerService{customers: customers, accounts: accounts}
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (s *CustomerService) UpdateProfile(ctx context.Context, id uuid.UUID, upd repository.ProfileUpdate) error {
	if upd.Email == "" {
		return fmt.Errorf("UpdateProfile: %w", &domain.ValidationError{Field: "email", Message: "required"})
	}
	if upd.Phone == "" {
		return fmt.Errorf("UpdateProfile: %w", &domain.ValidationError{Field: "phone", Message: "required"})
	}
	if err := s.customers.UpdateProfile(ctx, id, upd); err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	logging.FromContext(ctx).Info("customer profile updated", "customer_id", id)
	return nil
}

// Deactivate soft-deletes a customer; rows are never removed.
func (s *CustomerService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.customers.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	logging.FromContext(ctx).Info("customer deactivated", "customer_id", id)
	return nil
}

func (s *CustomerService) Accounts(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("Accounts: %w", err)
	}
	return accounts, nil
}
