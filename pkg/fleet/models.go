package fleet

import (
	"time"

	"github.com/google/uuid"
)

// PermitValidityDays is how long a paid operating permit stays valid.
const PermitValidityDays = 30

// Address is the physical location of a driver.
type Address struct {
	City         string `json:"city"`
	State        string `json:"state"`
	Municipality string `json:"municipality"`
	Sector       string `json:"sector"`
	HouseNumber  string `json:"houseNumber"`
}

// Driver is a member of the cooperative who operates vehicles.
type Driver struct {
	ID           uuid.UUID  `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	NationalID   string     `json:"nationalId"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	Sex          string     `json:"sex"`
	Phone        string     `json:"phone"`
	Address      Address    `json:"address"`
	PermitPaid   bool       `json:"permitPaid"`
	PermitPaidOn *time.Time `json:"permitPaidOn,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Age returns the driver's age in whole years at now, or -1 when the
// birth date is not recorded.
func (d Driver) Age(now time.Time) int {
	if d.BirthDate == nil {
		return -1
	}
	b := *d.BirthDate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age
}

// PermitValid reports whether the operating permit is paid and still
// inside its validity window.
func (d Driver) PermitValid(now time.Time) bool {
	if !d.PermitPaid || d.PermitPaidOn == nil {
		return false
	}
	return !now.After(d.PermitPaidOn.AddDate(0, 0, PermitValidityDays))
}

// Vehicle is a taxi registered to a driver.
type Vehicle struct {
	ID        uuid.UUID `json:"id"`
	Plate     string    `json:"plate"`
	Model     string    `json:"model"`
	Name      string    `json:"name"`
	Year      int       `json:"year"`
	DriverID  uuid.UUID `json:"driverId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
