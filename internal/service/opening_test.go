package service_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/repository"
	"github.com/sediba-fin/sediba-core/internal/service"
	"github.com/sediba-fin/sediba-core/internal/testutil"
)

func newOpeningService(db *sql.DB) *service.OpeningService {
	return service.NewOpeningService(
		repository.NewDB(db),
		repository.NewCustomerRepository(db),
		repository.NewAccountRepository(db),
		"B001",
		"Welcome123",
	)
}

func individualRequest(nationalID, email, phone string) service.OpenAccountRequest {
	return service.OpenAccountRequest{
		CustomerKind:   domain.CustomerKindIndividual,
		FirstName:      "Larona",
		LastName:       "Mothame",
		NationalID:     nationalID,
		DateOfBirth:    time.Date(1991, 7, 2, 0, 0, 0, 0, time.UTC),
		Email:          email,
		Phone:          phone,
		Address:        "45 Station Road",
		AccountKind:    domain.AccountKindCheque,
		InitialDeposit: decimal.RequireFromString("150.00"),
	}
}

func TestOpenAccount_NewCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpeningService(db)
	ctx := context.Background()

	result, err := svc.OpenAccount(ctx, individualRequest("ID100001", "larona@test.com", "+26771000001"))
	require.NoError(t, err)

	assert.True(t, result.NewCustomer)
	assert.True(t, strings.HasPrefix(result.AccountNumber, "B001-"))
	assert.Equal(t, 1, testutil.CountCustomers(t, db, "ID100001"))
	assert.True(t, testutil.GetAccountBalance(t, db, result.AccountNumber).Equal(decimal.RequireFromString("150.00")))

	var username string
	err = db.QueryRow(`SELECT username FROM customers WHERE id = $1`, result.CustomerID).Scan(&username)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(username, "larona.mothame"))
}

func TestOpenAccount_ReusesExistingCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpeningService(db)
	ctx := context.Background()

	existing := testutil.SeedIndividualCustomer(t, db, "Larona Mothame", "ID100002", "existing@test.com", "+26771000002")

	req := individualRequest("ID100002", "other@test.com", "+26771000099")
	req.AccountKind = domain.AccountKindSavings
	result, err := svc.OpenAccount(ctx, req)
	require.NoError(t, err)

	assert.False(t, result.NewCustomer)
	assert.Equal(t, existing.ID, result.CustomerID)
	assert.Equal(t, 1, testutil.CountCustomers(t, db, "ID100002"))
}

func TestOpenAccount_CompanyCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpeningService(db)
	ctx := context.Background()

	result, err := svc.OpenAccount(ctx, service.OpenAccountRequest{
		CustomerKind:       domain.CustomerKindCompany,
		CompanyName:        "Kgale Holdings",
		RegistrationNumber: "CO2019-778",
		ContactPerson:      "T. Seretse",
		Email:              "accounts@kgale.test",
		Phone:              "+26731000001",
		Address:            "Plot 14, Gaborone",
		AccountKind:        domain.AccountKindInvestment,
		InitialDeposit:     decimal.RequireFromString("2500.00"),
	})
	require.NoError(t, err)

	assert.True(t, result.NewCustomer)
	assert.Equal(t, 1, testutil.CountCustomers(t, db, "CO2019-778"))
}

// reusedNumberAccountRepo forces the first insert attempt onto an
// already-taken account number; later attempts pass through untouched.
type reusedNumberAccountRepo struct {
	*repository.AccountRepository
	taken string
	calls int
}

func (r *reusedNumberAccountRepo) Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error {
	r.calls++
	if r.calls == 1 {
		a.Number = r.taken
	}
	return r.AccountRepository.Create(ctx, tx, a)
}

func TestOpenAccount_RetriesOnNumberCollision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	existing := testutil.SeedIndividualCustomer(t, db, "Existing Holder", "ID100010", "holder@test.com", "+26771000010")
	takenAccount := testutil.SeedAccount(t, db, existing.ID, domain.AccountKindCheque, "0.00")

	accounts := &reusedNumberAccountRepo{
		AccountRepository: repository.NewAccountRepository(db),
		taken:             takenAccount.Number,
	}
	svc := service.NewOpeningService(
		repository.NewDB(db),
		repository.NewCustomerRepository(db),
		accounts,
		"B001",
		"Welcome123",
	)

	result, err := svc.OpenAccount(ctx, individualRequest("ID100011", "retry@test.com", "+26771000011"))
	require.NoError(t, err)

	assert.Equal(t, 2, accounts.calls, "first attempt collides, second succeeds")
	assert.NotEqual(t, takenAccount.Number, result.AccountNumber)
	// the collision must not have poisoned the transaction: both the new
	// customer and the regenerated account committed
	assert.Equal(t, 1, testutil.CountCustomers(t, db, "ID100011"))
	assert.True(t, testutil.GetAccountBalance(t, db, result.AccountNumber).Equal(decimal.RequireFromString("150.00")))
}

// usernameClashCustomerRepo forces the first insert attempt onto an
// already-taken username; later attempts pass through untouched.
type usernameClashCustomerRepo struct {
	*repository.CustomerRepository
	taken string
	calls int
}

func (r *usernameClashCustomerRepo) Create(ctx context.Context, tx *sql.Tx, c *domain.Customer) error {
	r.calls++
	if r.calls == 1 {
		c.Username = r.taken
	}
	return r.CustomerRepository.Create(ctx, tx, c)
}

func TestOpenAccount_RegeneratesUsernameOnCollision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	existing := testutil.SeedIndividualCustomer(t, db, "Name Twin", "ID100012", "twin@test.com", "+26771000012")

	customers := &usernameClashCustomerRepo{
		CustomerRepository: repository.NewCustomerRepository(db),
		taken:              existing.Username,
	}
	svc := service.NewOpeningService(
		repository.NewDB(db),
		customers,
		repository.NewAccountRepository(db),
		"B001",
		"Welcome123",
	)

	// same display name as the seeded customer, different identity: the
	// username clash must not be reported as a duplicate customer
	result, err := svc.OpenAccount(ctx, individualRequest("ID100013", "twin2@test.com", "+26771000013"))
	require.NoError(t, err)

	assert.Equal(t, 2, customers.calls, "first attempt clashes, second succeeds")
	assert.Equal(t, 1, testutil.CountCustomers(t, db, "ID100013"))

	var username string
	err = db.QueryRow(`SELECT username FROM customers WHERE id = $1`, result.CustomerID).Scan(&username)
	require.NoError(t, err)
	assert.NotEqual(t, existing.Username, username)
}

// failingAccountRepo simulates an infrastructure failure on the account
// insert, after the customer row has been written in the same unit of work.
type failingAccountRepo struct{}

func (failingAccountRepo) Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error {
	return errors.New("simulated storage failure")
}

func TestOpenAccount_RollsBackCustomerOnAccountFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewOpeningService(
		repository.NewDB(db),
		repository.NewCustomerRepository(db),
		failingAccountRepo{},
		"B001",
		"Welcome123",
	)
	ctx := context.Background()

	_, err := svc.OpenAccount(ctx, individualRequest("ID100003", "orphan@test.com", "+26771000003"))
	require.Error(t, err)

	var persistenceErr *domain.PersistenceError
	assert.ErrorAs(t, err, &persistenceErr)

	// the whole unit of work must have rolled back: no orphan customer
	assert.Equal(t, 0, testutil.CountCustomers(t, db, "ID100003"))
}

func TestOpenAccount_DuplicateIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpeningService(db)
	ctx := context.Background()

	testutil.SeedIndividualCustomer(t, db, "Existing Person", "ID100004", "taken@test.com", "+26771000004")

	// same email, different national ID: the natural-key lookup misses,
	// the insert trips the unique constraint
	_, err := svc.OpenAccount(ctx, individualRequest("ID100005", "taken@test.com", "+26771000005"))
	require.ErrorIs(t, err, domain.ErrDuplicateCustomer)

	assert.Equal(t, 0, testutil.CountCustomers(t, db, "ID100005"))
}

func TestOpenAccount_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpeningService(db)
	ctx := context.Background()

	tests := []struct {
		name      string
		mutate    func(*service.OpenAccountRequest)
		wantField string
	}{
		{
			name:      "missing national id",
			mutate:    func(r *service.OpenAccountRequest) { r.NationalID = "" },
			wantField: "national_id",
		},
		{
			name:      "missing email",
			mutate:    func(r *service.OpenAccountRequest) { r.Email = "" },
			wantField: "email",
		},
		{
			name:      "bad email",
			mutate:    func(r *service.OpenAccountRequest) { r.Email = "not-an-email" },
			wantField: "email",
		},
		{
			name: "investment below minimum",
			mutate: func(r *service.OpenAccountRequest) {
				r.AccountKind = domain.AccountKindInvestment
				r.InitialDeposit = decimal.RequireFromString("499.99")
			},
			wantField: "initial_deposit",
		},
		{
			name:      "unknown account kind",
			mutate:    func(r *service.OpenAccountRequest) { r.AccountKind = "bond" },
			wantField: "account_kind",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := individualRequest("ID100006", "valid@test.com", "+26771000006")
			tc.mutate(&req)

			_, err := svc.OpenAccount(ctx, req)
			require.Error(t, err)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.wantField, validationErr.Field)
		})
	}
}

func TestCheckCustomerUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOpeningService(db)
	ctx := context.Background()

	testutil.SeedIndividualCustomer(t, db, "Existing Person", "ID100007", "unique@test.com", "+26771000007")

	unique, err := svc.CheckCustomerUnique(ctx, "ID100007", "fresh@test.com", "+26771000099")
	require.NoError(t, err)
	assert.False(t, unique, "shared national ID")

	unique, err = svc.CheckCustomerUnique(ctx, "ID999999", "unique@test.com", "+26771000099")
	require.NoError(t, err)
	assert.False(t, unique, "shared email")

	unique, err = svc.CheckCustomerUnique(ctx, "ID999999", "fresh@test.com", "+26771000099")
	require.NoError(t, err)
	assert.True(t, unique)
}
