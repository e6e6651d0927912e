package fleet

import "errors"

var (
	// ErrDriverNotFound is returned when no driver matches the given ID.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrVehicleNotFound is returned when no vehicle matches the given ID.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrNationalIDTaken is returned when another driver is already
	// registered with the same national ID.
	ErrNationalIDTaken = errors.New("a driver with this national ID already exists")

	// ErrPlateTaken is returned when another vehicle already carries the
	// same plate.
	ErrPlateTaken = errors.New("a vehicle with this plate already exists")

	// ErrInvalidInput wraps field validation failures.
	ErrInvalidInput = errors.New("invalid input")
)
