package domain

import (
	"time"

	"github.com/google/uuid"
)

// Teller is a branch employee who performs deposits and withdrawals on
// behalf of customers. Teller identity travels with each request as an
// explicit parameter, never as ambient session state.
type Teller struct {
	ID           uuid.UUID
	Username     string
	Name         string
	PasswordHash string
	BranchCode   string
	Active       bool
	CreatedAt    time.Time
}
