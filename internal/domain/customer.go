package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CustomerKind string

const (
	CustomerKindIndividual CustomerKind = "individual"
	CustomerKindCompany    CustomerKind = "company"
)

func (k CustomerKind) IsValid() bool {
	return k == CustomerKindIndividual || k == CustomerKindCompany
}

// Customer is a bank customer. Kind discriminates the identity fields:
// individuals carry a national ID and date of birth, companies a
// registration number and contact person. The ID and natural key are
// immutable after creation; customers are deactivated, never deleted.
type Customer struct {
	ID           uuid.UUID
	Kind         CustomerKind
	Name         string
	Email        string
	Phone        string
	Address      string
	Username     string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time

	// individual
	NationalID  *string
	DateOfBirth *time.Time

	// company
	RegistrationNumber *string
	ContactPerson      *string
}

// NaturalKey returns the business identifier used for deduplication:
// national ID for individuals, registration number for companies.
func (c *Customer) NaturalKey() string {
	switch c.Kind {
	case CustomerKindIndividual:
		if c.NationalID != nil {
			return *c.NationalID
		}
	case CustomerKindCompany:
		if c.RegistrationNumber != nil {
			return *c.RegistrationNumber
		}
	}
	return ""
}

func (c *Customer) DisplayName() string {
	switch c.Kind {
	case CustomerKindCompany:
		if c.RegistrationNumber != nil {
			return fmt.Sprintf("%s (Reg: %s)", c.Name, *c.RegistrationNumber)
		}
		return c.Name + " (Company)"
	default:
		return c.Name + " (Individual)"
	}
}
