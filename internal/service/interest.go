package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/repository"
)

type interestAccountRepo interface {
	ListInterestBearing(ctx context.Context) ([]string, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, number string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, number string, newBalance decimal.Decimal, newVersion int64) error
}

// InterestService credits the flat monthly rate to every interest-bearing
// account. Each account runs in its own transaction so one failure never
// blocks the rest of the batch.
type InterestService struct {
	db             *repository.DB
	accounts       interestAccountRepo
	savingsRate    decimal.Decimal
	investmentRate decimal.Decimal
}

func NewInterestService(db *repository.DB, accounts interestAccountRepo, savingsRate, investmentRate float64) *InterestService {
	return &InterestService{
		db:             db,
		accounts:       accounts,
		savingsRate:    decimal.NewFromFloat(savingsRate),
		investmentRate: decimal.NewFromFloat(investmentRate),
	}
}

type InterestFailure struct {
	AccountNumber string
	Err           error
}

type InterestRunResult struct {
	Applied  map[string]decimal.Decimal
	Failures []InterestFailure
}

// Run applies one month of interest across all eligible accounts.
// Accounts that left the eligible set between listing and locking are
// skipped; everything else that goes wrong lands in Failures.
func (s *InterestService) Run(ctx context.Context) (*InterestRunResult, error) {
	log := logging.FromContext(ctx)

	numbers, err := s.accounts.ListInterestBearing(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", &domain.PersistenceError{Op: "list accounts", Err: err})
	}

	result := &InterestRunResult{Applied: make(map[string]decimal.Decimal, len(numbers))}
	for _, number := range numbers {
		interest, err := s.RunAccount(ctx, number)
		if err != nil {
			if errors.Is(err, domain.ErrAccountInactive) || errors.Is(err, domain.ErrNotFound) {
				continue
			}
			log.Warn("interest application failed", "account_number", number, "error", err)
			result.Failures = append(result.Failures, InterestFailure{AccountNumber: number, Err: err})
			continue
		}
		result.Applied[number] = interest
	}

	log.Info("interest run completed",
		"accounts", len(numbers),
		"applied", len(result.Applied),
		"failed", len(result.Failures),
	)
	return result, nil
}

// RunAccount applies interest to a single account and returns the amount
// credited.
func (s *InterestService) RunAccount(ctx context.Context, number string) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("RunAccount: %w", &domain.PersistenceError{Op: "begin", Err: err})
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, number)
	if err != nil {
		return decimal.Zero, fmt.Errorf("RunAccount: %w", err)
	}

	interest, err := account.ApplyInterest(s.rateFor(account.Kind))
	if err != nil {
		return decimal.Zero, fmt.Errorf("RunAccount: %w", err)
	}

	if interest.IsPositive() {
		if err := s.accounts.UpdateBalance(ctx, tx, number, account.Balance, account.Version+1); err != nil {
			return decimal.Zero, fmt.Errorf("RunAccount: %w", &domain.PersistenceError{Op: "update balance", Err: err})
		}
		if err := tx.Commit(); err != nil {
			return decimal.Zero, fmt.Errorf("RunAccount: %w", &domain.PersistenceError{Op: "commit", Err: err})
		}
	}
	return interest, nil
}

func (s *InterestService) rateFor(kind domain.AccountKind) decimal.Decimal {
	if kind == domain.AccountKindInvestment {
		return s.investmentRate
	}
	return s.savingsRate
}
