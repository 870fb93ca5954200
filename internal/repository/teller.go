package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sediba-fin/sediba-core/internal/domain"
)

const tellerColumns = `id, username, name, password_hash, branch_code, active, created_at`

type TellerRepository struct {
	db *sql.DB
}

func NewTellerRepository(db *sql.DB) *TellerRepository {
	return &TellerRepository{db: db}
}

func (r *TellerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Teller, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tellerColumns+` FROM tellers WHERE id = $1`, id,
	)
	t, err := scanTeller(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *TellerRepository) GetByUsername(ctx context.Context, username string) (*domain.Teller, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tellerColumns+` FROM tellers WHERE username = $1`, username,
	)
	t, err := scanTeller(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUsername: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByUsername: %w", err)
	}
	return t, nil
}

func scanTeller(s scanner) (*domain.Teller, error) {
	var t domain.Teller
	err := s.Scan(
		&t.ID, &t.Username, &t.Name, &t.PasswordHash,
		&t.BranchCode, &t.Active, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
