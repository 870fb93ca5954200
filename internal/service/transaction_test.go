package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/repository"
	"github.com/sediba-fin/sediba-core/internal/service"
	"github.com/sediba-fin/sediba-core/internal/testutil"
)

func newTransactionService(db *sql.DB) *service.TransactionService {
	return service.NewTransactionService(
		repository.NewDB(db),
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
	)
}

func TestDeposit_PersistsBalanceAndLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Depositor One", "ID200001", "dep1@test.com", "+26772000001")
	account := testutil.SeedAccount(t, db, customer.ID, domain.AccountKindCheque, "100.00")
	teller := testutil.SeedTeller(t, db, "teller.one")

	record, err := svc.Deposit(ctx, account.Number, decimal.RequireFromString("25.50"), &teller.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeDeposit, record.Type)
	assert.True(t, testutil.GetAccountBalance(t, db, account.Number).Equal(decimal.RequireFromString("125.50")))
	assert.Equal(t, 1, testutil.CountTransactions(t, db, account.Number))
}

func TestWithdraw_PersistsBalanceAndLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Withdrawer One", "ID200002", "wd1@test.com", "+26772000002")
	account := testutil.SeedAccount(t, db, customer.ID, domain.AccountKindCheque, "100.00")

	_, err := svc.Withdraw(ctx, account.Number, decimal.RequireFromString("40.00"), nil)
	require.NoError(t, err)

	assert.True(t, testutil.GetAccountBalance(t, db, account.Number).Equal(decimal.RequireFromString("60.00")))
	assert.Equal(t, 1, testutil.CountTransactions(t, db, account.Number))
}

func TestWithdraw_InsufficientFundsLeavesStateUntouched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Withdrawer Two", "ID200003", "wd2@test.com", "+26772000003")
	account := testutil.SeedAccount(t, db, customer.ID, domain.AccountKindCheque, "50.00")

	_, err := svc.Withdraw(ctx, account.Number, decimal.RequireFromString("50.01"), nil)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.True(t, testutil.GetAccountBalance(t, db, account.Number).Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, account.Number))
}

func TestWithdraw_SavingsAlwaysRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Saver One", "ID200004", "sv1@test.com", "+26772000004")
	account := testutil.SeedAccount(t, db, customer.ID, domain.AccountKindSavings, "1000.00")

	_, err := svc.Withdraw(ctx, account.Number, decimal.RequireFromString("1.00"), nil)
	require.ErrorIs(t, err, domain.ErrWithdrawalNotSupported)

	assert.True(t, testutil.GetAccountBalance(t, db, account.Number).Equal(decimal.RequireFromString("1000.00")))
}

func TestWithdraw_InvestmentMinimumBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Investor One", "ID200005", "inv1@test.com", "+26772000005")
	account := testutil.SeedAccount(t, db, customer.ID, domain.AccountKindInvestment, "600.00")

	// would leave 499.00, below the floor
	_, err := svc.Withdraw(ctx, account.Number, decimal.RequireFromString("101.00"), nil)
	require.ErrorIs(t, err, domain.ErrBelowMinimumBalance)

	// leaving exactly 500.00 is fine
	_, err = svc.Withdraw(ctx, account.Number, decimal.RequireFromString("100.00"), nil)
	require.NoError(t, err)
	assert.True(t, testutil.GetAccountBalance(t, db, account.Number).Equal(decimal.RequireFromString("500.00")))
}

func TestDeposit_UnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)

	_, err := svc.Deposit(context.Background(), "B001-FFFFFFFF", decimal.RequireFromString("10.00"), nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeposit_NonPositiveAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Depositor Two", "ID200006", "dep2@test.com", "+26772000006")
	account := testutil.SeedAccount(t, db, customer.ID, domain.AccountKindCheque, "10.00")

	_, err := svc.Deposit(ctx, account.Number, decimal.Zero, nil)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Deposit(ctx, account.Number, decimal.RequireFromString("-5.00"), nil)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

// Concurrent withdrawals against one account must serialize on the row
// lock: the final balance is exactly the opening balance minus the sum
// of the withdrawals that succeeded, and it never goes negative.
func TestConcurrentWithdrawals_NeverOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Racer One", "ID200007", "race1@test.com", "+26772000007")
	account := testutil.SeedAccount(t, db, customer.ID, domain.AccountKindCheque, "100.00")

	const workers = 8
	amount := decimal.RequireFromString("30.00")

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, account.Number, amount, nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	}

	// 100.00 only covers three 30.00 withdrawals
	assert.Equal(t, 3, succeeded)
	assert.True(t, testutil.GetAccountBalance(t, db, account.Number).Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, 3, testutil.CountTransactions(t, db, account.Number))
}

func TestHistory_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTransactionService(db)
	ctx := context.Background()

	customer := testutil.SeedIndividualCustomer(t, db, "Historian One", "ID200008", "hist1@test.com", "+26772000008")
	account := testutil.SeedAccount(t, db, customer.ID, domain.AccountKindCheque, "0.00")

	for i := 0; i < 5; i++ {
		_, err := svc.Deposit(ctx, account.Number, decimal.RequireFromString("10.00"), nil)
		require.NoError(t, err)
	}

	txs, total, err := svc.History(ctx, account.Number, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, txs, 2)

	txs, total, err = svc.History(ctx, account.Number, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, txs, 1)
}
