package iam

import (
	"time"

	"github.com/google/uuid"
)

// Role of a cooperative member account.
type Role string

const (
	RolePresident Role = "president"
	RoleAssociate Role = "associate"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RolePresident || r == RoleAssociate
}

// Account is a cooperative member account. Accounts start inactive and are
// activated when their email is verified.
type Account struct {
	ID              uuid.UUID
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Sex             string
	BirthDate       *time.Time
	Phone           string
	Role            Role
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	Active          bool
	PasswordHash    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
