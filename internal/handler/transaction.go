package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sediba-fin/sediba-core/internal/auth"
	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
)

type transactionService interface {
	Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, tellerID *uuid.UUID) (*domain.Transaction, error)
	Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, tellerID *uuid.UUID) (*domain.Transaction, error)
	History(ctx context.Context, accountNumber string, limit, offset int) ([]domain.Transaction, int, error)
}

type TransactionHandler struct {
	transactions transactionService
}

func NewTransactionHandler(transactions transactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type transactionRequest struct {
	Amount string `json:"amount"`
}

type transactionDTO struct {
	ID            uuid.UUID  `json:"id"`
	AccountNumber string     `json:"account_number"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	TellerID      *uuid.UUID `json:"teller_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:            t.ID,
		AccountNumber: t.AccountNumber,
		Type:          string(t.Type),
		Amount:        t.Amount.StringFixed(2),
		TellerID:      t.TellerID,
		CreatedAt:     t.CreatedAt,
	}
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.transactions.Deposit)
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.transactions.Withdraw)
}

func (h *TransactionHandler) mutate(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, accountNumber string, amount decimal.Decimal, tellerID *uuid.UUID) (*domain.Transaction, error)) {

	number := r.PathValue("number")

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be a decimal amount"}})
		return
	}

	record, err := op(r.Context(), number, amount, auth.TellerID(r.Context()))
	if err != nil {
		logging.FromContext(r.Context()).Error("transaction failed", "error", err, "account_number", number)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(record))
}

func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	txs, total, err := h.transactions.History(r.Context(), number, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(txs))
	for i := range txs {
		dtos[i] = toTransactionDTO(&txs[i])
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"transactions": dtos,
		"total":        total,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
