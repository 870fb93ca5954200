package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// Transaction is one deposit or withdrawal against a single account.
// Rows are append-only: a transaction is written exactly once alongside
// the balance change it records and is never updated or deleted.
// TellerID is nil for self-service operations.
type Transaction struct {
	ID            uuid.UUID
	AccountNumber string
	Type          TransactionType
	Amount        decimal.Decimal
	TellerID      *uuid.UUID
	CreatedAt     time.Time
}

func NewTransaction(accountNumber string, txType TransactionType, amount decimal.Decimal, tellerID *uuid.UUID) *Transaction {
	return &Transaction{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		Type:          txType,
		Amount:        amount,
		TellerID:      tellerID,
		CreatedAt:     time.Now().UTC(),
	}
}
