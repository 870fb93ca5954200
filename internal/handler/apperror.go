package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"}
	ErrTellerOnly         = &AppError{http.StatusForbidden, "TELLER_ONLY", "This operation requires a teller"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount          = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrAccountInactive        = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_INACTIVE", "Account is not active"}
	ErrInsufficientFunds      = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrWithdrawalNotSupported = &AppError{http.StatusUnprocessableEntity, "WITHDRAWAL_NOT_SUPPORTED", "Withdrawals from savings accounts are not allowed; close the account to access funds"}
	ErrBelowMinimumBalance    = &AppError{http.StatusUnprocessableEntity, "BELOW_MINIMUM_BALANCE", "Withdrawal would breach the minimum balance of 500.00"}
	ErrBelowMinimumDeposit    = &AppError{http.StatusUnprocessableEntity, "BELOW_MINIMUM_DEPOSIT", "Investment accounts require an initial deposit of at least 500.00"}
	ErrNonZeroBalance         = &AppError{http.StatusUnprocessableEntity, "NON_ZERO_BALANCE", "Account balance must be zero to close"}
	ErrDuplicateCustomer      = &AppError{http.StatusConflict, "DUPLICATE_CUSTOMER", "A customer with this identity already exists"}
	ErrVersionConflict        = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Account was modified concurrently, please retry"}
)
