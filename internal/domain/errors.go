package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrAccountInactive        = errors.New("account is not active")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrWithdrawalNotSupported = errors.New("withdrawals from savings accounts are not allowed")
	ErrBelowMinimumBalance    = errors.New("withdrawal would breach the minimum balance")
	ErrBelowMinimumDeposit    = errors.New("initial deposit is below the required minimum")
	ErrNonZeroBalance         = errors.New("account balance must be zero to close")
	ErrNoInterest             = errors.New("account type does not earn interest")
	ErrDuplicateCustomer      = errors.New("customer already exists")
	ErrVersionConflict        = errors.New("optimistic lock conflict")
	ErrInvalidCredentials     = errors.New("invalid username or password")
)

// ValidationError reports the first input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// PersistenceError wraps an infrastructure failure without losing the cause.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
