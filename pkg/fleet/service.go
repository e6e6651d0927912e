package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// FleetService manages the cooperative's drivers and their vehicles.
type FleetService struct {
	drivers  DriverRepository
	vehicles VehicleRepository
}

// NewFleetService creates a new fleet service.
func NewFleetService(drivers DriverRepository, vehicles VehicleRepository) *FleetService {
	return &FleetService{drivers: drivers, vehicles: vehicles}
}

// CreateDriver validates and stores a new driver.
func (s *FleetService) CreateDriver(ctx context.Context, driver Driver) (Driver, error) {
	if err := validateDriver(&driver); err != nil {
		return Driver{}, err
	}

	created, err := s.drivers.CreateDriver(ctx, driver)
	if err != nil {
		slog.Error("Failed to create driver", "national_id", driver.NationalID, "err", err)
		return Driver{}, err
	}
	slog.Info("Driver created", "driver_id", created.ID)
	return created, nil
}

// GetDriver returns one driver by ID.
func (s *FleetService) GetDriver(ctx context.Context, id uuid.UUID) (Driver, error) {
	return s.drivers.GetDriver(ctx, id)
}

// FindDrivers lists all drivers.
func (s *FleetService) FindDrivers(ctx context.Context) ([]Driver, error) {
	return s.drivers.FindDrivers(ctx)
}

// UpdateDriver persists driver changes.
func (s *FleetService) UpdateDriver(ctx context.Context, driver Driver) (Driver, error) {
	if err := validateDriver(&driver); err != nil {
		return Driver{}, err
	}
	return s.drivers.UpdateDriver(ctx, driver)
}

// DeleteDriver removes a driver together with all vehicles registered to
// the driver.
func (s *FleetService) DeleteDriver(ctx context.Context, id uuid.UUID) error {
	if err := s.drivers.DeleteDriver(ctx, id); err != nil {
		return err
	}
	slog.Info("Driver deleted", "driver_id", id)
	return nil
}

// DriverVehicles lists the vehicles registered to one driver.
func (s *FleetService) DriverVehicles(ctx context.Context, driverID uuid.UUID) ([]Vehicle, error) {
	if _, err := s.drivers.GetDriver(ctx, driverID); err != nil {
		return nil, err
	}
	return s.vehicles.FindVehiclesByDriver(ctx, driverID)
}

// CreateVehicle validates and stores a new vehicle for an existing driver.
func (s *FleetService) CreateVehicle(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	if err := validateVehicle(&vehicle); err != nil {
		return Vehicle{}, err
	}
	if _, err := s.drivers.GetDriver(ctx, vehicle.DriverID); err != nil {
		return Vehicle{}, err
	}

	created, err := s.vehicles.CreateVehicle(ctx, vehicle)
	if err != nil {
		slog.Error("Failed to create vehicle", "plate", vehicle.Plate, "err", err)
		return Vehicle{}, err
	}
	slog.Info("Vehicle created", "vehicle_id", created.ID, "driver_id", created.DriverID)
	return created, nil
}

// GetVehicle returns one vehicle by ID.
func (s *FleetService) GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	return s.vehicles.GetVehicle(ctx, id)
}

// FindVehicles lists all vehicles.
func (s *FleetService) FindVehicles(ctx context.Context) ([]Vehicle, error) {
	return s.vehicles.FindVehicles(ctx)
}

// UpdateVehicle persists vehicle changes.
func (s *FleetService) UpdateVehicle(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	if err := validateVehicle(&vehicle); err != nil {
		return Vehicle{}, err
	}
	if _, err := s.drivers.GetDriver(ctx, vehicle.DriverID); err != nil {
		return Vehicle{}, err
	}
	return s.vehicles.UpdateVehicle(ctx, vehicle)
}

// DeleteVehicle removes a vehicle.
func (s *FleetService) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	return s.vehicles.DeleteVehicle(ctx, id)
}

func validateDriver(driver *Driver) error {
	driver.FirstName = strings.TrimSpace(driver.FirstName)
	driver.LastName = strings.TrimSpace(driver.LastName)
	driver.NationalID = strings.TrimSpace(driver.NationalID)
	if driver.FirstName == "" || driver.LastName == "" {
		return fmt.Errorf("%w: driver name is required", ErrInvalidInput)
	}
	if driver.NationalID == "" {
		return fmt.Errorf("%w: national ID is required", ErrInvalidInput)
	}
	if driver.PermitPaid && driver.PermitPaidOn == nil {
		return fmt.Errorf("%w: permit payment date is required when the permit is paid", ErrInvalidInput)
	}
	return nil
}

func validateVehicle(vehicle *Vehicle) error {
	vehicle.Plate = strings.ToUpper(strings.TrimSpace(vehicle.Plate))
	if vehicle.Plate == "" {
		return fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}
	if vehicle.Year < 1900 {
		return fmt.Errorf("%w: vehicle year is not valid", ErrInvalidInput)
	}
	if vehicle.DriverID == uuid.Nil {
		return fmt.Errorf("%w: driver is required", ErrInvalidInput)
	}
	return nil
}
