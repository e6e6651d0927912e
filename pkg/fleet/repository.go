package fleet

import (
	"context"

	"github.com/google/uuid"
)

// DriverRepository defines storage for drivers.
type DriverRepository interface {
	CreateDriver(ctx context.Context, driver Driver) (Driver, error)
	GetDriver(ctx context.Context, id uuid.UUID) (Driver, error)
	FindDrivers(ctx context.Context) ([]Driver, error)
	UpdateDriver(ctx context.Context, driver Driver) (Driver, error)
	// DeleteDriver removes a driver and, with it, every vehicle
	// registered to the driver.
	DeleteDriver(ctx context.Context, id uuid.UUID) error
}

// VehicleRepository defines storage for vehicles.
type VehicleRepository interface {
	CreateVehicle(ctx context.Context, vehicle Vehicle) (Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error)
	FindVehicles(ctx context.Context) ([]Vehicle, error)
	FindVehiclesByDriver(ctx context.Context, driverID uuid.UUID) ([]Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle Vehicle) (Vehicle, error)
	DeleteVehicle(ctx context.Context, id uuid.UUID) error
}
