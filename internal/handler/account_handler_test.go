package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sediba-fin/sediba-core/internal/auth"
	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/handler"
	"github.com/sediba-fin/sediba-core/internal/middleware"
	"github.com/sediba-fin/sediba-core/internal/service"
)

type stubOpeningService struct {
	result *service.OpenAccountResult
	err    error
}

func (s *stubOpeningService) OpenAccount(ctx context.Context, req service.OpenAccountRequest) (*service.OpenAccountResult, error) {
	return s.result, s.err
}

func (s *stubOpeningService) CheckCustomerUnique(ctx context.Context, naturalKey, email, phone string) (bool, error) {
	return true, nil
}

type stubAccountService struct {
	account *domain.Account
	err     error
}

func (s *stubAccountService) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return s.account, s.err
}

func (s *stubAccountService) Close(ctx context.Context, number string) error {
	return s.err
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

const openAccountBody = `{
	"customer_kind": "individual",
	"first_name": "Larona",
	"last_name": "Mothame",
	"national_id": "ID600001",
	"date_of_birth": "1991-07-02",
	"email": "larona@test.com",
	"phone": "+26776000001",
	"address": "45 Station Road",
	"account_kind": "cheque",
	"initial_deposit": "150.00"
}`

func TestAccountHandler_Open(t *testing.T) {
	opening := &stubOpeningService{result: &service.OpenAccountResult{
		AccountNumber: "B001-1A2B3C4D",
		CustomerID:    uuid.New(),
		NewCustomer:   true,
	}}
	h := handler.NewAccountHandler(opening, &stubAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(openAccountBody))
	rec := httptest.NewRecorder()
	h.Open(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "B001-1A2B3C4D", data["account_number"])
	assert.Equal(t, true, data["new_customer"])
}

func TestAccountHandler_Open_BadDeposit(t *testing.T) {
	h := handler.NewAccountHandler(&stubOpeningService{}, &stubAccountService{})

	body := strings.Replace(openAccountBody, `"150.00"`, `"ten bucks"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Open(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestAccountHandler_Open_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate customer", domain.ErrDuplicateCustomer, http.StatusConflict, "DUPLICATE_CUSTOMER"},
		{"below minimum deposit", domain.ErrBelowMinimumDeposit, http.StatusUnprocessableEntity, "BELOW_MINIMUM_DEPOSIT"},
		{
			"validation error",
			&domain.ValidationError{Field: "phone", Message: "required"},
			http.StatusBadRequest, "VALIDATION_FAILED",
		},
		{
			"infrastructure failure",
			&domain.PersistenceError{Op: "commit", Err: context.DeadlineExceeded},
			http.StatusInternalServerError, "INTERNAL_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := handler.NewAccountHandler(&stubOpeningService{err: tc.err}, &stubAccountService{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(openAccountBody))
			rec := httptest.NewRecorder()
			h.Open(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestAccountHandler_Get(t *testing.T) {
	account := domain.ReconstructAccount(
		"B001-1A2B3C4D", uuid.New(), domain.AccountKindSavings,
		decimal.RequireFromString("1000.5"), 3, "B001",
		domain.AccountStatusActive, time.Now().UTC(),
	)
	h := handler.NewAccountHandler(&stubOpeningService{}, &stubAccountService{account: account})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/accounts/{number}", h.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/B001-1A2B3C4D", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	// balances always render with two decimal places
	assert.Equal(t, "1000.50", data["balance"])
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	h := handler.NewAccountHandler(&stubOpeningService{}, &stubAccountService{err: domain.ErrNotFound})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/accounts/{number}", h.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/B001-FFFFFFFF", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "RESOURCE_NOT_FOUND", resp.Error.Code)
}

func TestTellerGuard(t *testing.T) {
	const secret = "handler-test-secret"

	h := handler.NewAccountHandler(&stubOpeningService{result: &service.OpenAccountResult{}}, &stubAccountService{})
	protected := middleware.Auth(secret)(middleware.TellerOnly(http.HandlerFunc(h.Open)))

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(openAccountBody))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "MISSING_TOKEN", decodeResponse(t, rec).Error.Code)
	})

	t.Run("customer token rejected", func(t *testing.T) {
		token, err := auth.GenerateToken(uuid.New(), auth.RoleCustomer, secret, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(openAccountBody))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "TELLER_ONLY", decodeResponse(t, rec).Error.Code)
	})

	t.Run("teller token accepted", func(t *testing.T) {
		token, err := auth.GenerateToken(uuid.New(), auth.RoleTeller, secret, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(openAccountBody))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}
