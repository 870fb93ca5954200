package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sediba-fin/sediba-core/internal/domain"
)

func SeedTeller(t *testing.T, db *sql.DB, username string) *domain.Teller {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	teller := &domain.Teller{
		ID:           uuid.New(),
		Username:     username,
		Name:         "Test Teller",
		PasswordHash: string(hash),
		BranchCode:   "B001",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO tellers (id, username, name, password_hash, branch_code, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		teller.ID, teller.Username, teller.Name, teller.PasswordHash,
		teller.BranchCode, teller.Active, teller.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed teller %s: %v", username, err)
	}
	return teller
}

func SeedIndividualCustomer(t *testing.T, db *sql.DB, name, nationalID, email, phone string) *domain.Customer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	dob := time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)
	c := &domain.Customer{
		ID:           uuid.New(),
		Kind:         domain.CustomerKindIndividual,
		Name:         name,
		Email:        email,
		Phone:        phone,
		Address:      "12 Test Street",
		Username:     "user_" + uuid.NewString()[:8],
		PasswordHash: string(hash),
		Active:       true,
		NationalID:   &nationalID,
		DateOfBirth:  &dob,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO customers (id, kind, name, email, phone, address, username, password_hash,
			active, national_id, date_of_birth, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Kind, c.Name, c.Email, c.Phone, c.Address, c.Username, c.PasswordHash,
		c.Active, c.NationalID, c.DateOfBirth, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed customer %s: %v", name, err)
	}
	return c
}

func SeedAccount(t *testing.T, db *sql.DB, customerID uuid.UUID, kind domain.AccountKind, balance string) *domain.Account {
	t.Helper()

	number, err := domain.GenerateAccountNumber("B001")
	if err != nil {
		t.Fatalf("generate account number: %v", err)
	}
	a := domain.ReconstructAccount(
		number, customerID, kind,
		decimal.RequireFromString(balance), 1, "B001",
		domain.AccountStatusActive, time.Now().UTC(),
	)

	_, err = db.Exec(
		`INSERT INTO accounts (account_number, customer_id, kind, balance, version, branch_code, status, opened_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.Number, a.CustomerID, a.Kind, a.Balance, a.Version, a.BranchCode, a.Status, a.OpenedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s/%s: %v", customerID, kind, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, number string) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE account_number = $1`, number).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", number, err)
	}
	return balance
}

func CountCustomers(t *testing.T, db *sql.DB, naturalKey string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM customers WHERE national_id = $1 OR registration_number = $1`,
		naturalKey,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count customers for %s: %v", naturalKey, err)
	}
	return count
}

func CountTransactions(t *testing.T, db *sql.DB, accountNumber string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE account_number = $1`, accountNumber,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for %s: %v", accountNumber, err)
	}
	return count
}
