package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sediba-fin/sediba-core/internal/auth"
	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
)

const tokenTTL = 24 * time.Hour

type tellerRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.Teller, error)
}

type customerAuthRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.Customer, error)
}

// LoginService authenticates tellers and customers and issues tokens.
// The resulting claims replace any notion of a global current-user
// session: every downstream call gets the actor from its context.
type LoginService struct {
	tellers   tellerRepo
	customers customerAuthRepo
	jwtSecret string
}

func NewLoginService(tellers tellerRepo, customers customerAuthRepo, jwtSecret string) *LoginService {
	return &LoginService{tellers: tellers, customers: customers, jwtSecret: jwtSecret}
}

func (s *LoginService) TellerLogin(ctx context.Context, username, password string) (*domain.Teller, string, error) {
	teller, err := s.tellers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("TellerLogin: %w", domain.ErrInvalidCredentials)
		}
		return nil, "", fmt.Errorf("TellerLogin: %w", err)
	}
	if !teller.Active {
		return nil, "", fmt.Errorf("TellerLogin: %w", domain.ErrInvalidCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(teller.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("TellerLogin: %w", domain.ErrInvalidCredentials)
	}

	token, err := auth.GenerateToken(teller.ID, auth.RoleTeller, s.jwtSecret, tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("TellerLogin: %w", err)
	}

	logging.FromContext(ctx).Info("teller logged in", "teller_id", teller.ID)
	return teller, token, nil
}

func (s *LoginService) CustomerLogin(ctx context.Context, username, password string) (*domain.Customer, string, error) {
	customer, err := s.customers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("CustomerLogin: %w", domain.ErrInvalidCredentials)
		}
		return nil, "", fmt.Errorf("CustomerLogin: %w", err)
	}
	if !customer.Active {
		return nil, "", fmt.Errorf("CustomerLogin: %w", domain.ErrInvalidCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("CustomerLogin: %w", domain.ErrInvalidCredentials)
	}

	token, err := auth.GenerateToken(customer.ID, auth.RoleCustomer, s.jwtSecret, tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("CustomerLogin: %w", err)
	}

	logging.FromContext(ctx).Info("customer logged in", "customer_id", customer.ID)
	return customer, token, nil
}
