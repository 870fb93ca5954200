package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sediba-fin/sediba-core/internal/domain"
)

const customerColumns = `id, kind, name, email, phone, address, username, password_hash,
	active, national_id, date_of_birth, registration_number, contact_person, created_at`

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id,
	)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) GetByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE username = $1`, username,
	)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUsername: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByUsername: %w", err)
	}
	return c, nil
}

// GetByNaturalKey looks a customer up by national ID (individuals) or
// registration number (companies). It runs on the transaction so the
// opening workflow sees its own uncommitted writes.
func (r *CustomerRepository) GetByNaturalKey(ctx context.Context, tx *sql.Tx, kind domain.CustomerKind, key string) (*domain.Customer, error) {
	column := "national_id"
	if kind == domain.CustomerKindCompany {
		column = "registration_number"
	}
	row := tx.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+column+` = $1`, key,
	)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByNaturalKey: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByNaturalKey: %w", err)
	}
	return c, nil
}

// ErrUsernameTaken signals a generated-username collision so the caller
// can regenerate and retry; it never reaches the API surface.
var ErrUsernameTaken = errors.New("username already taken")

func (r *CustomerRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Customer) error {
	// Insert under a savepoint so a username collision leaves the
	// transaction usable for the regenerate-and-retry path.
	if _, err := tx.ExecContext(ctx, `SAVEPOINT create_customer`); err != nil {
		return fmt.Errorf("Create: savepoint: %w", err)
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO customers (
			id, kind, name, email, phone, address, username, password_hash,
			active, national_id, date_of_birth, registration_number, contact_person, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Kind, c.Name, c.Email, c.Phone, c.Address, c.Username, c.PasswordHash,
		c.Active, c.NationalID, c.DateOfBirth, c.RegistrationNumber, c.ContactPerson, c.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "customers_username_key") {
			if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT create_customer`); rbErr != nil {
				return fmt.Errorf("Create: rollback to savepoint: %w", rbErr)
			}
			return fmt.Errorf("Create: %w", ErrUsernameTaken)
		}
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateCustomer)
		}
		return fmt.Errorf("Create: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT create_customer`); err != nil {
		return fmt.Errorf("Create: release savepoint: %w", err)
	}
	return nil
}

type ProfileUpdate struct {
	Email   string
	Phone   string
	Address string
}

// UpdateProfile changes contact details only; identity fields are
// immutable after creation.
func (r *CustomerRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET email = $1, phone = $2, address = $3 WHERE id = $4`,
		upd.Email, upd.Phone, upd.Address, id,
	)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("UpdateProfile: %w", domain.ErrDuplicateCustomer)
		}
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateProfile: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateProfile: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CustomerRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET active = FALSE WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Deactivate: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Deactivate: %w", domain.ErrNotFound)
	}
	return nil
}

// CountByIdentity counts customers sharing any of the submitted natural
// key, email or phone. Used by the pre-insert uniqueness check; the
// database constraints remain the authority at write time.
func (r *CustomerRepository) CountByIdentity(ctx context.Context, naturalKey, email, phone string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers
		WHERE national_id = $1 OR registration_number = $1 OR email = $2 OR phone = $3`,
		naturalKey, email, phone,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountByIdentity: %w", err)
	}
	return count, nil
}

func scanCustomer(s scanner) (*domain.Customer, error) {
	var c domain.Customer
	err := s.Scan(
		&c.ID, &c.Kind, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.Username, &c.PasswordHash, &c.Active,
		&c.NationalID, &c.DateOfBirth, &c.RegistrationNumber, &c.ContactPerson,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
