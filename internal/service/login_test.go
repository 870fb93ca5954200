package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sediba-fin/sediba-core/internal/auth"
	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/repository"
	"github.com/sediba-fin/sediba-core/internal/service"
	"github.com/sediba-fin/sediba-core/internal/testutil"
)

const testJWTSecret = "login-test-secret"

func TestTellerLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewLoginService(
		repository.NewTellerRepository(db),
		repository.NewCustomerRepository(db),
		testJWTSecret,
	)
	ctx := context.Background()

	teller := testutil.SeedTeller(t, db, "login.teller")

	got, token, err := svc.TellerLogin(ctx, "login.teller", "password123")
	require.NoError(t, err)
	assert.Equal(t, teller.ID, got.ID)

	claims, err := auth.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, teller.ID, claims.ActorID)
	assert.Equal(t, auth.RoleTeller, claims.Role)
}

func TestTellerLogin_Failures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewLoginService(
		repository.NewTellerRepository(db),
		repository.NewCustomerRepository(db),
		testJWTSecret,
	)
	ctx := context.Background()

	teller := testutil.SeedTeller(t, db, "login.teller2")

	_, _, err := svc.TellerLogin(ctx, "login.teller2", "wrong-password")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.TellerLogin(ctx, "nobody", "password123")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, execErr := db.Exec(`UPDATE tellers SET active = false WHERE id = $1`, teller.ID)
	require.NoError(t, execErr)
	_, _, err = svc.TellerLogin(ctx, "login.teller2", "password123")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestCustomerLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewLoginService(
		repository.NewTellerRepository(db),
		repository.NewCustomerRepository(db),
		testJWTSecret,
	)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Login Customer", "ID400001", "login1@test.com", "+26774000001")

	got, token, err := svc.CustomerLogin(ctx, customer.Username, "password123")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)

	claims, err := auth.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleCustomer, claims.Role)

	_, _, err = svc.CustomerLogin(ctx, customer.Username, "nope")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
