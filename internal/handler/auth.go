package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
)

type loginService interface {
	TellerLogin(ctx context.Context, username, password string) (*domain.Teller, string, error)
	CustomerLogin(ctx context.Context, username, password string) (*domain.Customer, string, error)
}

type AuthHandler struct {
	login loginService
}

func NewAuthHandler(login loginService) *AuthHandler {
	return &AuthHandler{login: login}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
}

func (h *AuthHandler) TellerLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	teller, token, err := h.login.TellerLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{Token: token, DisplayName: teller.Name})
}

func (h *AuthHandler) CustomerLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	customer, token, err := h.login.CustomerLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		logging.FromContext(r.Context()).Warn("customer login rejected", "username", req.Username)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{Token: token, DisplayName: customer.DisplayName()})
}
