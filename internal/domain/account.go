package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	AccountKindCheque     AccountKind = "cheque"
	AccountKindSavings    AccountKind = "savings"
	AccountKindInvestment AccountKind = "investment"
)

func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindCheque, AccountKindSavings, AccountKindInvestment:
		return true
	}
	return false
}

// BearsInterest reports whether accounts of this kind earn monthly interest.
func (k AccountKind) BearsInterest() bool {
	return k == AccountKindSavings || k == AccountKindInvestment
}

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusDormant AccountStatus = "dormant"
	AccountStatusClosed  AccountStatus = "closed"
)

// InvestmentMinimumBalance is the minimum opening and maintenance balance
// for investment accounts.
var InvestmentMinimumBalance = decimal.RequireFromString("500.00")

// Account is the sole authority over its balance: every mutation goes
// through Deposit, Withdraw, ApplyInterest or Close, which enforce the
// kind-specific rules. Number and CustomerID never change after creation.
type Account struct {
	Number     string
	CustomerID uuid.UUID
	Kind       AccountKind
	Balance    decimal.Decimal
	Version    int64
	BranchCode string
	Status     AccountStatus
	OpenedAt   time.Time
}

func NewChequeAccount(customerID uuid.UUID, branchCode string, initialDeposit decimal.Decimal) (*Account, error) {
	return newAccount(customerID, AccountKindCheque, branchCode, initialDeposit)
}

func NewSavingsAccount(customerID uuid.UUID, branchCode string, initialDeposit decimal.Decimal) (*Account, error) {
	return newAccount(customerID, AccountKindSavings, branchCode, initialDeposit)
}

func NewInvestmentAccount(customerID uuid.UUID, branchCode string, initialDeposit decimal.Decimal) (*Account, error) {
	if initialDeposit.LessThan(InvestmentMinimumBalance) {
		return nil, fmt.Errorf("NewInvestmentAccount: requires at least %s: %w",
			InvestmentMinimumBalance, ErrBelowMinimumDeposit)
	}
	return newAccount(customerID, AccountKindInvestment, branchCode, initialDeposit)
}

// NewAccount builds an account of the given kind, applying the kind's
// opening rules.
func NewAccount(kind AccountKind, customerID uuid.UUID, branchCode string, initialDeposit decimal.Decimal) (*Account, error) {
	switch kind {
	case AccountKindCheque:
		return NewChequeAccount(customerID, branchCode, initialDeposit)
	case AccountKindSavings:
		return NewSavingsAccount(customerID, branchCode, initialDeposit)
	case AccountKindInvestment:
		return NewInvestmentAccount(customerID, branchCode, initialDeposit)
	default:
		return nil, fmt.Errorf("NewAccount: unknown account kind %q", kind)
	}
}

func newAccount(customerID uuid.UUID, kind AccountKind, branchCode string, initialDeposit decimal.Decimal) (*Account, error) {
	if initialDeposit.IsNegative() {
		return nil, fmt.Errorf("newAccount: %w", ErrInvalidAmount)
	}
	number, err := GenerateAccountNumber(branchCode)
	if err != nil {
		return nil, fmt.Errorf("newAccount: %w", err)
	}
	return &Account{
		Number:     number,
		CustomerID: customerID,
		Kind:       kind,
		Balance:    initialDeposit,
		Version:    1,
		BranchCode: branchCode,
		Status:     AccountStatusActive,
		OpenedAt:   time.Now().UTC(),
	}, nil
}

// ReconstructAccount rebuilds an account from persisted state. It is the
// only way to obtain an Account that did not go through an opening
// constructor; no field is written after it returns.
func ReconstructAccount(number string, customerID uuid.UUID, kind AccountKind,
	balance decimal.Decimal, version int64, branchCode string,
	status AccountStatus, openedAt time.Time) *Account {
	return &Account{
		Number:     number,
		CustomerID: customerID,
		Kind:       kind,
		Balance:    balance,
		Version:    version,
		BranchCode: branchCode,
		Status:     status,
		OpenedAt:   openedAt,
	}
}

// GenerateAccountNumber produces BRANCH-XXXXXXXX (or AC-XXXXXXXX when no
// branch code is given). Uniqueness is statistical only; the database
// unique index is authoritative and collisions are regenerated at insert.
func GenerateAccountNumber(branchCode string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("GenerateAccountNumber: %w", err)
	}
	token := strings.ToUpper(hex.EncodeToString(buf))
	branchCode = strings.TrimSpace(branchCode)
	if branchCode == "" {
		return "AC-" + token, nil
	}
	return strings.ToUpper(branchCode) + "-" + token, nil
}

func (a *Account) checkActive() error {
	if a.Status != AccountStatusActive {
		return fmt.Errorf("account %s is %s: %w", a.Number, a.Status, ErrAccountInactive)
	}
	return nil
}

// Deposit credits the account. All kinds accept deposits.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if err := a.checkActive(); err != nil {
		return fmt.Errorf("Deposit: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("Deposit: %w", ErrInvalidAmount)
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw debits the account under the kind-specific rule: cheque
// accounts allow no overdraft, savings accounts reject every withdrawal,
// investment accounts must keep the minimum balance.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if a.Kind == AccountKindSavings {
		// Deliberate dead end carried over from the product rules:
		// savings funds are only accessible at closure.
		return fmt.Errorf("Withdraw: %w", ErrWithdrawalNotSupported)
	}
	if err := a.checkActive(); err != nil {
		return fmt.Errorf("Withdraw: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("Withdraw: %w", ErrInvalidAmount)
	}

	switch a.Kind {
	case AccountKindCheque:
		if a.Balance.LessThan(amount) {
			return fmt.Errorf("Withdraw: %w", ErrInsufficientFunds)
		}
	case AccountKindInvestment:
		if a.Balance.Sub(amount).LessThan(InvestmentMinimumBalance) {
			return fmt.Errorf("Withdraw: would breach minimum balance of %s: %w",
				InvestmentMinimumBalance, ErrBelowMinimumBalance)
		}
	}

	a.Balance = a.Balance.Sub(amount)
	return nil
}

// ApplyInterest credits one month of interest at the given rate and
// returns the amount applied, rounded to 2 decimal places half-up.
// Cheque accounts do not earn interest.
func (a *Account) ApplyInterest(rate decimal.Decimal) (decimal.Decimal, error) {
	if !a.Kind.BearsInterest() {
		return decimal.Zero, fmt.Errorf("ApplyInterest: %s: %w", a.Kind, ErrNoInterest)
	}
	if err := a.checkActive(); err != nil {
		return decimal.Zero, fmt.Errorf("ApplyInterest: %w", err)
	}

	// decimal.Round is half away from zero, which is half-up for the
	// positive amounts we deal with here.
	interest := a.Balance.Mul(rate).Round(2)
	if interest.IsPositive() {
		a.Balance = a.Balance.Add(interest)
	}
	return interest, nil
}

// Close marks the account closed. Only active accounts with a zero
// balance can transition; closing an account that is already closed is
// a no-op.
func (a *Account) Close() error {
	if a.Status == AccountStatusClosed {
		return nil
	}
	if a.Status != AccountStatusActive {
		return fmt.Errorf("Close: account %s is %s: %w", a.Number, a.Status, ErrAccountInactive)
	}
	if !a.Balance.IsZero() {
		return fmt.Errorf("Close: %w", ErrNonZeroBalance)
	}
	a.Status = AccountStatusClosed
	return nil
}
