package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/service"
)

type openingService interface {
	OpenAccount(ctx context.Context, req service.OpenAccountRequest) (*service.OpenAccountResult, error)
	CheckCustomerUnique(ctx context.Context, naturalKey, email, phone string) (bool, error)
}

type accountService interface {
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	Close(ctx context.Context, number string) error
}

type AccountHandler struct {
	opening  openingService
	accounts accountService
}

func NewAccountHandler(opening openingService, accounts accountService) *AccountHandler {
	return &AccountHandler{opening: opening, accounts: accounts}
}

type openAccountRequest struct {
	CustomerKind string `json:"customer_kind"`

	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	NationalID  string `json:"national_id,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`

	CompanyName        string `json:"company_name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	ContactPerson      string `json:"contact_person,omitempty"`

	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	AccountKind    string `json:"account_kind"`
	BranchCode     string `json:"branch_code,omitempty"`
	InitialDeposit string `json:"initial_deposit"`
}

func (r openAccountRequest) toServiceRequest() (service.OpenAccountRequest, []FieldError) {
	var fields []FieldError

	deposit, err := decimal.NewFromString(r.InitialDeposit)
	if err != nil {
		fields = append(fields, FieldError{Field: "initial_deposit", Message: "must be a decimal amount"})
	}

	var dob time.Time
	if r.DateOfBirth != "" {
		dob, err = time.Parse("2006-01-02", r.DateOfBirth)
		if err != nil {
			fields = append(fields, FieldError{Field: "date_of_birth", Message: "must be YYYY-MM-DD"})
		}
	}

	if len(fields) > 0 {
		return service.OpenAccountRequest{}, fields
	}

	return service.OpenAccountRequest{
		CustomerKind:       domain.CustomerKind(r.CustomerKind),
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		NationalID:         r.NationalID,
		DateOfBirth:        dob,
		CompanyName:        r.CompanyName,
		RegistrationNumber: r.RegistrationNumber,
		ContactPerson:      r.ContactPerson,
		Email:              r.Email,
		Phone:              r.Phone,
		Address:            r.Address,
		AccountKind:        domain.AccountKind(r.AccountKind),
		BranchCode:         r.BranchCode,
		InitialDeposit:     deposit,
	}, nil
}

type openAccountResponse struct {
	AccountNumber string    `json:"account_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	NewCustomer   bool      `json:"new_customer"`
}

func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	svcReq, fields := req.toServiceRequest()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	result, err := h.opening.OpenAccount(r.Context(), svcReq)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to open account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, openAccountResponse{
		AccountNumber: result.AccountNumber,
		CustomerID:    result.CustomerID,
		NewCustomer:   result.NewCustomer,
	})
}

type uniqueCheckRequest struct {
	NaturalKey string `json:"natural_key"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

func (h *AccountHandler) CheckUnique(w http.ResponseWriter, r *http.Request) {
	var req uniqueCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	unique, err := h.opening.CheckCustomerUnique(r.Context(), req.NaturalKey, req.Email, req.Phone)
	if err != nil {
		logging.FromContext(r.Context()).Error("uniqueness check failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]bool{"unique": unique})
}

type accountDTO struct {
	AccountNumber string    `json:"account_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Kind          string    `json:"kind"`
	Balance       string    `json:"balance"`
	BranchCode    string    `json:"branch_code"`
	Status        string    `json:"status"`
	OpenedAt      time.Time `json:"opened_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		AccountNumber: a.Number,
		CustomerID:    a.CustomerID,
		Kind:          string(a.Kind),
		Balance:       a.Balance.StringFixed(2),
		BranchCode:    a.BranchCode,
		Status:        string(a.Status),
		OpenedAt:      a.OpenedAt,
	}
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	account, err := h.accounts.GetByNumber(r.Context(), number)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	if err := h.accounts.Close(r.Context(), number); err != nil {
		logging.FromContext(r.Context()).Error("failed to close account", "error", err, "account_number", number)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"account_number": number, "status": string(domain.AccountStatusClosed)})
}
