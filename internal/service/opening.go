package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sediba-fin/sediba-core/internal/domain"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/repository"
)

// Attempts at generating a non-colliding account number or username
// before the opening fails outright.
const (
	maxAccountNumberAttempts = 5
	maxUsernameAttempts      = 5
)

type openingCustomerRepo interface {
	GetByNaturalKey(ctx context.Context, tx *sql.Tx, kind domain.CustomerKind, key string) (*domain.Customer, error)
	Create(ctx context.Context, tx *sql.Tx, c *domain.Customer) error
	CountByIdentity(ctx context.Context, naturalKey, email, phone string) (int, error)
}

type openingAccountRepo interface {
	Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error
}

// OpeningService onboards a customer and opens an account as one unit of
// work: either both the customer row (when new) and the account row
// commit, or neither does.
type OpeningService struct {
	db           *repository.DB
	customers    openingCustomerRepo
	accounts     openingAccountRepo
	branchCode   string
	tempPassword string
}

func NewOpeningService(db *repository.DB, customers openingCustomerRepo, accounts openingAccountRepo, branchCode, tempPassword string) *OpeningService {
	return &OpeningService{
		db:           db,
		customers:    customers,
		accounts:     accounts,
		branchCode:   branchCode,
		tempPassword: tempPassword,
	}
}

type OpenAccountRequest struct {
	CustomerKind domain.CustomerKind

	// individual
	FirstName   string
	LastName    string
	NationalID  string
	DateOfBirth time.Time

	// company
	CompanyName        string
	RegistrationNumber string
	ContactPerson      string

	Email   string
	Phone   string
	Address string

	AccountKind    domain.AccountKind
	BranchCode     string
	InitialDeposit decimal.Decimal
}

type OpenAccountResult struct {
	AccountNumber string
	CustomerID    uuid.UUID
	NewCustomer   bool
}

// OpenAccount validates the request, reuses or creates the customer by
// natural key, and opens the account. Any failure rolls the whole unit
// of work back: no orphan customer row survives a failed account insert.
func (s *OpeningService) OpenAccount(ctx context.Context, req OpenAccountRequest) (*OpenAccountResult, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", &domain.PersistenceError{Op: "begin", Err: err})
	}
	defer tx.Rollback()

	customer, created, err := s.resolveCustomer(ctx, tx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}

	account, err := s.createAccount(ctx, tx, customer.ID, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", &domain.PersistenceError{Op: "commit", Err: err})
	}

	log.Info("account opened",
		"account_number", account.Number,
		"customer_id", customer.ID,
		"kind", account.Kind,
		"new_customer", created,
	)

	return &OpenAccountResult{
		AccountNumber: account.Number,
		CustomerID:    customer.ID,
		NewCustomer:   created,
	}, nil
}

// CheckCustomerUnique reports whether no existing customer shares the
// natural key, email or phone. It is advisory: the opening workflow
// still relies on the database constraints at insert time.
func (s *OpeningService) CheckCustomerUnique(ctx context.Context, naturalKey, email, phone string) (bool, error) {
	count, err := s.customers.CountByIdentity(ctx, naturalKey, email, phone)
	if err != nil {
		return false, fmt.Errorf("CheckCustomerUnique: %w", &domain.PersistenceError{Op: "count customers", Err: err})
	}
	return count == 0, nil
}

func (s *OpeningService) resolveCustomer(ctx context.Context, tx *sql.Tx, req OpenAccountRequest) (*domain.Customer, bool, error) {
	key := req.naturalKey()

	existing, err := s.customers.GetByNaturalKey(ctx, tx, req.CustomerKind, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, &domain.PersistenceError{Op: "find customer", Err: err}
	}

	customer, err := s.buildCustomer(req)
	if err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		err := s.customers.Create(ctx, tx, customer)
		if err == nil {
			return customer, true, nil
		}
		if errors.Is(err, repository.ErrUsernameTaken) {
			// Another customer with the same name drew the same suffix;
			// draw again, the customer is still new.
			customer.Username, err = usernameFor(req)
			if err != nil {
				return nil, false, fmt.Errorf("resolveCustomer: %w", err)
			}
			continue
		}
		if errors.Is(err, domain.ErrDuplicateCustomer) {
			// Lost the race between the natural-key lookup and the
			// insert; surface it, the caller resubmits.
			return nil, false, err
		}
		return nil, false, &domain.PersistenceError{Op: "create customer", Err: err}
	}
	return nil, false, &domain.PersistenceError{
		Op:  "create customer",
		Err: fmt.Errorf("exhausted %d username attempts", maxUsernameAttempts),
	}
}

func (s *OpeningService) buildCustomer(req OpenAccountRequest) (*domain.Customer, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("buildCustomer: hash temp password: %w", err)
	}

	c := &domain.Customer{
		ID:           uuid.New(),
		Kind:         req.CustomerKind,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	switch req.CustomerKind {
	case domain.CustomerKindIndividual:
		c.Name = strings.TrimSpace(req.FirstName + " " + req.LastName)
		nationalID := req.NationalID
		dob := req.DateOfBirth
		c.NationalID = &nationalID
		c.DateOfBirth = &dob
	case domain.CustomerKindCompany:
		c.Name = req.CompanyName
		regNo := req.RegistrationNumber
		contact := req.ContactPerson
		c.RegistrationNumber = &regNo
		c.ContactPerson = &contact
	}
	c.Username, err = usernameFor(req)
	if err != nil {
		return nil, fmt.Errorf("buildCustomer: %w", err)
	}
	return c, nil
}

func usernameFor(req OpenAccountRequest) (string, error) {
	if req.CustomerKind == domain.CustomerKindCompany {
		return generateUsername(req.CompanyName, "")
	}
	return generateUsername(req.FirstName, req.LastName)
}

func (s *OpeningService) createAccount(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, req OpenAccountRequest) (*domain.Account, error) {
	branch := req.BranchCode
	if branch == "" {
		branch = s.branchCode
	}

	for attempt := 0; attempt < maxAccountNumberAttempts; attempt++ {
		account, err := domain.NewAccount(req.AccountKind, customerID, branch, req.InitialDeposit)
		if err != nil {
			return nil, err
		}

		err = s.accounts.Create(ctx, tx, account)
		if err == nil {
			return account, nil
		}
		if errors.Is(err, repository.ErrNumberTaken) {
			continue
		}
		return nil, &domain.PersistenceError{Op: "create account", Err: err}
	}
	return nil, &domain.PersistenceError{
		Op:  "create account",
		Err: fmt.Errorf("exhausted %d account number attempts", maxAccountNumberAttempts),
	}
}

var usernameStrip = regexp.MustCompile(`[^a-z.]`)

// generateUsername builds first.last plus three random digits, lowercase,
// capped so the suffix always fits in 50 characters.
func generateUsername(first, last string) (string, error) {
	base := strings.ToLower(first)
	if last != "" {
		base += "." + strings.ToLower(last)
	}
	base = usernameStrip.ReplaceAllString(strings.ReplaceAll(base, " ", ""), "")
	if len(base) > 46 {
		base = base[:46]
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", fmt.Errorf("generateUsername: %w", err)
	}
	return fmt.Sprintf("%s%03d", base, n.Int64()), nil
}

func (r OpenAccountRequest) naturalKey() string {
	if r.CustomerKind == domain.CustomerKindCompany {
		return r.RegistrationNumber
	}
	return r.NationalID
}

func (r OpenAccountRequest) validate() error {
	if !r.CustomerKind.IsValid() {
		return &domain.ValidationError{Field: "customer_kind", Message: "must be individual or company"}
	}

	switch r.CustomerKind {
	case domain.CustomerKindIndividual:
		if strings.TrimSpace(r.FirstName) == "" {
			return &domain.ValidationError{Field: "first_name", Message: "required"}
		}
		if strings.TrimSpace(r.LastName) == "" {
			return &domain.ValidationError{Field: "last_name", Message: "required"}
		}
		if strings.TrimSpace(r.NationalID) == "" {
			return &domain.ValidationError{Field: "national_id", Message: "required"}
		}
		if r.DateOfBirth.IsZero() {
			return &domain.ValidationError{Field: "date_of_birth", Message: "required"}
		}
	case domain.CustomerKindCompany:
		if strings.TrimSpace(r.CompanyName) == "" {
			return &domain.ValidationError{Field: "company_name", Message: "required"}
		}
		if strings.TrimSpace(r.RegistrationNumber) == "" {
			return &domain.ValidationError{Field: "registration_number", Message: "required"}
		}
	}

	if strings.TrimSpace(r.Email) == "" {
		return &domain.ValidationError{Field: "email", Message: "required"}
	}
	if !strings.Contains(r.Email, "@") {
		return &domain.ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if strings.TrimSpace(r.Phone) == "" {
		return &domain.ValidationError{Field: "phone", Message: "required"}
	}

	if !r.AccountKind.IsValid() {
		return &domain.ValidationError{Field: "account_kind", Message: "must be cheque, savings or investment"}
	}
	if r.InitialDeposit.IsNegative() {
		return &domain.ValidationError{Field: "initial_deposit", Message: "must not be negative"}
	}
	if r.AccountKind == domain.AccountKindInvestment && r.InitialDeposit.LessThan(domain.InvestmentMinimumBalance) {
		return &domain.ValidationError{
			Field:   "initial_deposit",
			Message: fmt.Sprintf("investment accounts require at least %s", domain.InvestmentMinimumBalance),
		}
	}
	return nil
}
