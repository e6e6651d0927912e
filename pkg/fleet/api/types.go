package api

import "github.com/taxicoop/coopadmin/pkg/fleet"

// DriverRequest is the payload for creating or updating a driver.
type DriverRequest struct {
	FirstName      string        `json:"firstName"`
	LastName       string        `json:"lastName"`
	NationalID     string        `json:"nationalId"`
	DateOfBirth    string        `json:"birthDate,omitempty"`
	Sex            string        `json:"sex,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Address        fleet.Address `json:"address"`
	PermitPaid     bool          `json:"permitPaid"`
	PermitPaidDate string        `json:"permitPaidOn,omitempty"`
}

// DriverResponse is a driver with its derived fields.
type DriverResponse struct {
	fleet.Driver
	Age         int  `json:"age"`
	PermitValid bool `json:"permitValid"`
}

// VehicleRequest is the payload for creating or updating a vehicle.
type VehicleRequest struct {
	Plate    string `json:"plate"`
	Model    string `json:"model"`
	Name     string `json:"name"`
	Year     int    `json:"year"`
	DriverID string `json:"driverId"`
}

// ErrorResponse is a generic error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
