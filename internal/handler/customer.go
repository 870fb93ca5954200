package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/repository"
)

type customerService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd repository.ProfileUpdate) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Accounts(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error)
}

type CustomerHandler struct {
	customers customerService
}

func NewCustomerHandler(customers customerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

type customerDTO struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCustomerDTO(c *domain.Customer) customerDTO {
	return customerDTO{
		ID:          c.ID,
		Kind:        string(c.Kind),
		DisplayName: c.DisplayName(),
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
	}
}

func customerIDFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrInvalidRequest
	}
	return id, nil
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := customerIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCustomerDTO(customer))
}

type updateProfileRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *CustomerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, appErr := customerIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	upd := repository.ProfileUpdate{Email: req.Email, Phone: req.Phone, Address: req.Address}
	if err := h.customers.UpdateProfile(r.Context(), id, upd); err != nil {
		logging.FromContext(r.Context()).Error("failed to update profile", "error", err, "customer_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"customer_id": id.String()})
}

func (h *CustomerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, appErr := customerIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.customers.Deactivate(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"customer_id": id.String(), "active": "false"})
}

func (h *CustomerHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	id, appErr := customerIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.customers.Accounts(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
