package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/repository"
)

type accountRepo interface {
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, number string) (*domain.Account, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, number string, status domain.AccountStatus) error
}

// AccountService covers the teller lookup and closure surface.
type AccountService struct {
	db       *repository.DB
	accounts accountRepo
}

func NewAccountService(db *repository.DB, accounts accountRepo) *AccountService {
	return &AccountService{db: db, accounts: accounts}
}

func (s *AccountService) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	account, err := s.accounts.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("GetByNumber: %w", err)
	}
	return account, nil
}

// Close marks an account closed. The balance must be zero; closing an
// already closed account succeeds without touching the row again.
func (s *AccountService) Close(ctx context.Context, number string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Close: %w", &domain.PersistenceError{Op: "begin", Err: err})
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, number)
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}

	alreadyClosed := account.Status == domain.AccountStatusClosed
	if err := account.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	if alreadyClosed {
		return nil
	}

	if err := s.accounts.UpdateStatus(ctx, tx, number, domain.AccountStatusClosed); err != nil {
		return fmt.Errorf("Close: %w", &domain.PersistenceError{Op: "update status", Err: err})
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Close: %w", &domain.PersistenceError{Op: "commit", Err: err})
	}

	logging.FromContext(ctx).Info("account closed", "account_number", number)
	return nil
}
