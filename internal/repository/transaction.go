package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sediba-fin/sediba-core/internal/domain"
)

const transactionColumns = `id, account_number, type, amount, teller_id, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends one ledger row. There is no update or delete path.
func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, account_number, type, amount, teller_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.AccountNumber, t.Type, t.Amount, t.TellerID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_number = $1`, accountNumber,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccount: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_number = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountNumber, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccount: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("GetByAccount: scan: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetByAccount: rows: %w", err)
	}
	return txs, total, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.AccountNumber, &t.Type, &t.Amount, &t.TellerID, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
