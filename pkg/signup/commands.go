package signup

import (
	"time"

	"github.com/taxicoop/coopadmin/pkg/iam"
)

// RegisterCommand holds the fields every registration carries. Role-typed
// wrappers exist so each role exposes exactly its own registration shape
// instead of one form with fields toggled at runtime.
type RegisterCommand struct {
	FirstName    string
	LastName     string
	Email        string
	Sex          string
	BirthDate    *time.Time
	PhoneCountry string
	PhoneNumber  string
	Password     string
}

// RegisterPresidentCommand registers the cooperative's president.
type RegisterPresidentCommand struct {
	RegisterCommand
}

// RegisterAssociateCommand registers an associate member.
type RegisterAssociateCommand struct {
	RegisterCommand
}

// phone joins country prefix and number, empty when either is missing,
// matching how the account stores a single phone field.
func (c RegisterCommand) phone() string {
	if c.PhoneCountry == "" || c.PhoneNumber == "" {
		return ""
	}
	return c.PhoneCountry + c.PhoneNumber
}

func (c RegisterCommand) account(role iam.Role) iam.Account {
	return iam.Account{
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Sex:       c.Sex,
		BirthDate: c.BirthDate,
		Phone:     c.phone(),
		Role:      role,
	}
}
