package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/repository"
)

type txAccountRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, number string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, number string, newBalance decimal.Decimal, newVersion int64) error
}

type txLedgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]domain.Transaction, int, error)
}

// TransactionService performs teller-facing deposits and withdrawals.
// The balance update and the transaction row commit together or not at
// all; the persisted balance is the source of truth.
type TransactionService struct {
	db           *repository.DB
	accounts     txAccountRepo
	transactions txLedgerRepo
}

func NewTransactionService(db *repository.DB, accounts txAccountRepo, transactions txLedgerRepo) *TransactionService {
	return &TransactionService{db: db, accounts: accounts, transactions: transactions}
}

func (s *TransactionService) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, tellerID *uuid.UUID) (*domain.Transaction, error) {
	t, err := s.mutate(ctx, accountNumber, amount, tellerID, domain.TransactionTypeDeposit)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	return t, nil
}

func (s *TransactionService) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, tellerID *uuid.UUID) (*domain.Transaction, error) {
	t, err := s.mutate(ctx, accountNumber, amount, tellerID, domain.TransactionTypeWithdrawal)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	return t, nil
}

func (s *TransactionService) History(ctx context.Context, accountNumber string, limit, offset int) ([]domain.Transaction, int, error) {
	txs, total, err := s.transactions.GetByAccount(ctx, accountNumber, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	return txs, total, nil
}

func (s *TransactionService) mutate(ctx context.Context, accountNumber string, amount decimal.Decimal, tellerID *uuid.UUID, txType domain.TransactionType) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, accountNumber)
	if err != nil {
		return nil, err
	}

	switch txType {
	case domain.TransactionTypeDeposit:
		err = account.Deposit(amount)
	case domain.TransactionTypeWithdrawal:
		err = account.Withdraw(amount)
	}
	if err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateBalance(ctx, tx, accountNumber, account.Balance, account.Version+1); err != nil {
		return nil, &domain.PersistenceError{Op: "update balance", Err: err}
	}

	record := domain.NewTransaction(accountNumber, txType, amount, tellerID)
	if err := s.transactions.Create(ctx, tx, record); err != nil {
		return nil, &domain.PersistenceError{Op: "record transaction", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &domain.PersistenceError{Op: "commit", Err: err}
	}

	log.Info("transaction recorded",
		"transaction_id", record.ID,
		"account_number", accountNumber,
		"type", txType,
		"amount", amount,
		"balance", account.Balance,
	)

	return record, nil
}
