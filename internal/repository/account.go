package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_number, customer_id, kind, balance, version,
	branch_code, status, opened_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByNumber: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByNumber: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE customer_id = $1 ORDER BY opened_at`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByCustomerID: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByCustomerID: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByCustomerID: rows: %w", err)
	}
	return accounts, nil
}

// ErrNumberTaken signals an account-number collision so the caller can
// regenerate and retry; it never escapes the opening workflow.
var ErrNumberTaken = errors.New("account number already taken")

func (r *AccountRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error {
	// A failed INSERT aborts the whole transaction on Postgres, so the
	// insert runs under a savepoint: on a number collision the savepoint
	// is rolled back and the transaction stays usable for the retry.
	if _, err := tx.ExecContext(ctx, `SAVEPOINT create_account`); err != nil {
		return fmt.Errorf("Create: savepoint: %w", err)
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (
			account_number, customer_id, kind, balance, version,
			branch_code, status, opened_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.Number, a.CustomerID, a.Kind, a.Balance, a.Version,
		a.BranchCode, a.Status, a.OpenedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "accounts_pkey") {
			if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT create_account`); rbErr != nil {
				return fmt.Errorf("Create: rollback to savepoint: %w", rbErr)
			}
			return fmt.Errorf("Create: %w", ErrNumberTaken)
		}
		return fmt.Errorf("Create: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT create_account`); err != nil {
		return fmt.Errorf("Create: release savepoint: %w", err)
	}
	return nil
}

// GetForUpdate locks the account row for the duration of the transaction,
// serializing all balance mutations against the same account number.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, number string) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1 FOR UPDATE`, number,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, number string, newBalance decimal.Decimal, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, version = $2 WHERE account_number = $3 AND version = $4`,
		newBalance, newVersion, number, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, number string, status domain.AccountStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET status = $1 WHERE account_number = $2`, status, number,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

// ListInterestBearing returns the numbers of every active savings and
// investment account. The interest batch re-reads each row under lock
// before mutating it, so only numbers are fetched here.
func (r *AccountRepository) ListInterestBearing(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_number FROM accounts
		WHERE status = $1 AND kind IN ($2, $3) ORDER BY account_number`,
		domain.AccountStatusActive, domain.AccountKindSavings, domain.AccountKindInvestment,
	)
	if err != nil {
		return nil, fmt.Errorf("ListInterestBearing: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("ListInterestBearing: scan: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListInterestBearing: rows: %w", err)
	}
	return numbers, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.Number, &a.CustomerID, &a.Kind, &a.Balance, &a.Version,
		&a.BranchCode, &a.Status, &a.OpenedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
